package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/flora-backend/internal/domain/learning"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

const draftKeyPrefix = "designer:draft:"

// DraftStore holds the latest course draft per designer session. Each Put
// replaces the previous draft wholesale.
type DraftStore interface {
	Get(ctx context.Context, sessionID string) (*types.CourseDraft, error)
	Put(ctx context.Context, sessionID string, draft *types.CourseDraft) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryDraftStore struct {
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[string]memoryDraft
}

type memoryDraft struct {
	raw     []byte
	expires time.Time
}

// NewMemoryDraftStore keeps drafts in process. ttl <= 0 means drafts never expire.
func NewMemoryDraftStore(ttl time.Duration) DraftStore {
	return &memoryDraftStore{
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[string]memoryDraft),
	}
}

func (s *memoryDraftStore) Get(_ context.Context, sessionID string) (*types.CourseDraft, error) {
	s.mu.RLock()
	d, ok := s.drafts[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoDraft
	}
	if !d.expires.IsZero() && s.now().After(d.expires) {
		s.mu.Lock()
		delete(s.drafts, sessionID)
		s.mu.Unlock()
		return nil, ErrNoDraft
	}
	// stored as JSON so callers never share the held value
	var out types.CourseDraft
	if err := json.Unmarshal(d.raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *memoryDraftStore) Put(_ context.Context, sessionID string, draft *types.CourseDraft) error {
	if draft == nil {
		return fmt.Errorf("nil draft")
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	d := memoryDraft{raw: raw}
	if s.ttl > 0 {
		d.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.drafts[sessionID] = d
	s.mu.Unlock()
	return nil
}

func (s *memoryDraftStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.drafts, sessionID)
	s.mu.Unlock()
	return nil
}

type redisDraftStore struct {
	log *logger.Logger
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewRedisDraftStore(log *logger.Logger, rdb goredis.UniversalClient, ttl time.Duration) (DraftStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &redisDraftStore{
		log: log.With("service", "RedisDraftStore"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func draftKey(sessionID string) string { return draftKeyPrefix + sessionID }

func (s *redisDraftStore) Get(ctx context.Context, sessionID string) (*types.CourseDraft, error) {
	raw, err := s.rdb.Get(ctx, draftKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("redis get draft: %w", err)
	}
	var out types.CourseDraft
	if err := json.Unmarshal(raw, &out); err != nil {
		s.log.Warn("Dropping unreadable draft", "session_id", sessionID, "error", err)
		_ = s.rdb.Del(ctx, draftKey(sessionID)).Err()
		return nil, ErrNoDraft
	}
	return &out, nil
}

func (s *redisDraftStore) Put(ctx context.Context, sessionID string, draft *types.CourseDraft) error {
	if draft == nil {
		return fmt.Errorf("nil draft")
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, draftKey(sessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, draftKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete draft: %w", err)
	}
	return nil
}
