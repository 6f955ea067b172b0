package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/flora-backend/internal/modules/chat/bridge"
)

const (
	headerStreamStatus = "X-Stream-Status"
	headerDraftUpdated = "X-Draft-Updated"

	streamComplete  = "complete"
	streamTruncated = "truncated"
)

// textStreamSink relays plain text to the browser. The status line and headers
// are committed on the first chunk, so a failure before any output can still
// be answered with a JSON error.
type textStreamSink struct {
	w        gin.ResponseWriter
	trailers []string
	started  bool
}

var _ bridge.Sink = (*textStreamSink)(nil)

// newTextStreamSink declares X-Stream-Status plus any extra trailer names.
func newTextStreamSink(w gin.ResponseWriter, extraTrailers ...string) *textStreamSink {
	return &textStreamSink{w: w, trailers: append([]string{headerStreamStatus}, extraTrailers...)}
}

func (s *textStreamSink) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	h.Set("Trailer", strings.Join(s.trailers, ", "))
	s.w.WriteHeader(http.StatusOK)
}

func (s *textStreamSink) Write(p []byte) (int, error) {
	s.start()
	return s.w.Write(p)
}

func (s *textStreamSink) Flush() error {
	s.w.Flush()
	return nil
}

// Started reports whether any bytes were committed.
func (s *textStreamSink) Started() bool { return s.started }

// Finish closes a committed stream. The trailer tells the client whether the
// text it received is the whole reply.
func (s *textStreamSink) Finish(err error) {
	s.start()
	status := streamComplete
	if err != nil {
		status = streamTruncated
	}
	s.w.Header().Set(headerStreamStatus, status)
}
