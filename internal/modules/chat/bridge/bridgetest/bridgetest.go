// Package bridgetest provides in-memory stand-ins for the model and the output sink.
package bridgetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/yungbote/flora-backend/internal/modules/chat/bridge"
)

// Model replays Chunks for every call and records each Request it receives.
type Model struct {
	Chunks []string
	// OpenErr fails the call before any chunk is produced.
	OpenErr error
	// FailAfter, when > 0, fails the stream with StreamErr after that many chunks.
	FailAfter int
	StreamErr error

	mu       sync.Mutex
	requests []bridge.Request
	closed   int
}

func (m *Model) OpenStream(ctx context.Context, req bridge.Request) (bridge.Stream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	return &stream{model: m, chunks: append([]string(nil), m.Chunks...)}, nil
}

// Requests returns a copy of every request seen so far.
func (m *Model) Requests() []bridge.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bridge.Request(nil), m.requests...)
}

// Closed reports how many streams were closed.
func (m *Model) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type stream struct {
	model  *Model
	chunks []string
	sent   int
}

func (s *stream) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.model.FailAfter > 0 && s.sent >= s.model.FailAfter {
		err := s.model.StreamErr
		if err == nil {
			err = errors.New("stream reset")
		}
		return "", err
	}
	if s.sent >= len(s.chunks) {
		return "", io.EOF
	}
	c := s.chunks[s.sent]
	s.sent++
	return c, nil
}

func (s *stream) Close() error {
	s.model.mu.Lock()
	s.model.closed++
	s.model.mu.Unlock()
	return nil
}

// Sink records every write and flush. FailWriteAt, when > 0, makes the n-th
// write fail as a disconnected client would.
type Sink struct {
	FailWriteAt int

	mu      sync.Mutex
	buf     bytes.Buffer
	writes  []string
	flushes int
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWriteAt > 0 && len(s.writes)+1 >= s.FailWriteAt {
		return 0, errors.New("broken pipe")
	}
	s.writes = append(s.writes, string(p))
	return s.buf.Write(p)
}

func (s *Sink) Flush() error {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
	return nil
}

func (s *Sink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *Sink) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *Sink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}
