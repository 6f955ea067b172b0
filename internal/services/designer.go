package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/flora-backend/internal/domain/chat"
	types "github.com/yungbote/flora-backend/internal/domain/learning"
	"github.com/yungbote/flora-backend/internal/modules/chat/bridge"
	"github.com/yungbote/flora-backend/internal/modules/chat/extractor"
	"github.com/yungbote/flora-backend/internal/platform/apierr"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

var ErrInvalidSession = apierr.BadRequest("invalid_session", errors.New("invalid designer session id"))

// DesignerTurn reports what one designer exchange produced.
type DesignerTurn struct {
	bridge.Result
	// Draft is set when this turn produced a usable course draft.
	Draft *types.CourseDraft
}

type DesignerService interface {
	StartSession(ctx context.Context, owner Educator) (string, error)
	Converse(ctx context.Context, owner Educator, sessionID string, turn chat.Turn, sink bridge.Sink) (DesignerTurn, error)
	Draft(ctx context.Context, owner Educator, sessionID string) (*types.CourseDraft, error)
	Finalize(ctx context.Context, owner Educator, sessionID string) (*types.Course, error)
	Discard(ctx context.Context, owner Educator, sessionID string) error
}

type designerService struct {
	log     *logger.Logger
	runner  ChatRunner
	drafts  DraftStore
	courses CourseService
}

func NewDesignerService(log *logger.Logger, runner ChatRunner, drafts DraftStore, courses CourseService) DesignerService {
	return &designerService{
		log:     log.With("service", "DesignerService"),
		runner:  runner,
		drafts:  drafts,
		courses: courses,
	}
}

func (s *designerService) StartSession(ctx context.Context, owner Educator) (string, error) {
	id := uuid.NewString()
	s.log.Debug("Designer session started", "educator_id", owner.ID, "session_id", id)
	return id, nil
}

// draftSlot scopes a session to its educator so ids cannot be shared across accounts.
func draftSlot(owner Educator, sessionID string) (string, error) {
	sid, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		return "", ErrInvalidSession
	}
	return owner.ID.String() + ":" + sid.String(), nil
}

// Converse runs one designer turn. Only a turn that streamed to completion is
// scanned for a draft; a hit replaces the held draft.
func (s *designerService) Converse(ctx context.Context, owner Educator, sessionID string, turn chat.Turn, sink bridge.Sink) (DesignerTurn, error) {
	slot, err := draftSlot(owner, sessionID)
	if err != nil {
		return DesignerTurn{}, err
	}
	turn.Role = chat.RoleEducator
	turn.Mode = chat.ModeDesigner

	res, err := s.runner.Run(ctx, turn, sink)
	out := DesignerTurn{Result: res}
	if err != nil {
		return out, err
	}

	draft, ok := extractor.Extract(res.Text)
	if !ok {
		return out, nil
	}
	// the reply is already delivered; a store failure only costs the preview
	if err := s.drafts.Put(context.WithoutCancel(ctx), slot, draft); err != nil {
		s.log.Error("Failed to store course draft", "session_id", sessionID, "error", err)
		return out, nil
	}
	out.Draft = draft
	s.log.Info("Course draft updated", "session_id", sessionID, "lessons", len(draft.Lessons))
	return out, nil
}

func (s *designerService) Draft(ctx context.Context, owner Educator, sessionID string) (*types.CourseDraft, error) {
	slot, err := draftSlot(owner, sessionID)
	if err != nil {
		return nil, err
	}
	d, err := s.drafts.Get(ctx, slot)
	if err != nil {
		if errors.Is(err, ErrNoDraft) {
			return nil, err
		}
		return nil, persistErr("draft", err)
	}
	return d, nil
}

// Finalize persists the held draft. The draft stays in place whatever the
// outcome, so a failed save can be retried.
func (s *designerService) Finalize(ctx context.Context, owner Educator, sessionID string) (*types.Course, error) {
	draft, err := s.Draft(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.CreateFromDraft(ctx, owner, draft)
	if err != nil {
		s.log.Warn("Finalize failed, draft retained", "session_id", sessionID, "error", err)
		return nil, err
	}
	return course, nil
}

func (s *designerService) Discard(ctx context.Context, owner Educator, sessionID string) error {
	slot, err := draftSlot(owner, sessionID)
	if err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, slot); err != nil {
		return persistErr("draft", err)
	}
	return nil
}
