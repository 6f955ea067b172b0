package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/flora-backend/internal/domain/chat"
	"github.com/yungbote/flora-backend/internal/modules/chat/prompt"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

var (
	// ErrEmptyConversation is returned when a turn carries no messages.
	ErrEmptyConversation = errors.New("conversation has no messages")
	// ErrClientGone is returned when the caller stops accepting output mid-stream.
	ErrClientGone = errors.New("client stopped reading the stream")
)

// GenerationFailure means the upstream model call failed. Partial is set when
// some output had already been relayed before the failure.
type GenerationFailure struct {
	Partial bool
	Err     error
}

func (e *GenerationFailure) Error() string {
	if e == nil {
		return ""
	}
	if e.Partial {
		return fmt.Sprintf("generation interrupted: %v", e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

// Request is what one chat turn sends upstream.
type Request struct {
	System  string
	History []HistoryTurn
	Message string
}

// Model opens one streamed completion. Implementations must be safe for
// concurrent use; the bridge never reuses a Stream.
type Model interface {
	OpenStream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields generated text in order. Next returns io.EOF once the model is done.
type Stream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Sink receives relayed chunks. Flush pushes buffered bytes to the client.
type Sink interface {
	io.Writer
	Flush() error
}

// Result describes what was relayed.
type Result struct {
	Text   string
	Chunks int
	Bytes  int
}

type Bridge struct {
	model  Model
	log    *logger.Logger
	tracer trace.Tracer
}

func New(model Model, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{
		model:  model,
		log:    log.With("service", "ConversationBridge"),
		tracer: otel.Tracer("flora/chat/bridge"),
	}
}

// Prepare composes the upstream request for turn without calling the model.
func Prepare(turn chat.Turn) (Request, error) {
	if len(turn.Messages) == 0 {
		return Request{}, ErrEmptyConversation
	}
	history, latest := SplitConversation(turn.Messages)
	return Request{
		System: prompt.Compose(prompt.Input{
			Role:          turn.Role,
			Mode:          turn.Mode,
			CourseContext: turn.CourseContext,
		}),
		History: history,
		Message: latest,
	}, nil
}

// Run executes one chat turn and relays the model output to sink, one write and
// one flush per chunk, in arrival order.
//
// A failure before the first chunk returns *GenerationFailure and leaves sink
// untouched. A failure after it stops the relay; bytes already written stay
// written and Result reports them.
func (b *Bridge) Run(ctx context.Context, turn chat.Turn, sink Sink) (Result, error) {
	req, err := Prepare(turn)
	if err != nil {
		return Result{}, err
	}

	ctx, span := b.tracer.Start(ctx, "chat.bridge.run", trace.WithAttributes(
		attribute.String("chat.role", string(chat.ParseRole(string(turn.Role)))),
		attribute.String("chat.mode", string(turn.Mode)),
		attribute.Int("chat.history_turns", len(req.History)),
	))
	defer span.End()

	stream, err := b.model.OpenStream(ctx, req)
	if err != nil {
		b.log.Warn("model call failed before streaming", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "open stream")
		return Result{}, &GenerationFailure{Err: err}
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			b.log.Debug("closing model stream", "error", cerr)
		}
	}()

	var (
		res  Result
		full strings.Builder
	)
	finish := func(err error) (Result, error) {
		res.Text = full.String()
		span.SetAttributes(attribute.Int("chat.chunks", res.Chunks), attribute.Int("chat.bytes", res.Bytes))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return res, err
	}

	for {
		chunk, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return finish(nil)
		}
		if err != nil {
			if ctx.Err() != nil {
				b.log.Info("client went away mid-stream", "chunks", res.Chunks)
				return finish(fmt.Errorf("%w: %v", ErrClientGone, ctx.Err()))
			}
			b.log.Warn("model stream broke", "error", err, "chunks", res.Chunks)
			return finish(&GenerationFailure{Partial: res.Chunks > 0, Err: err})
		}
		if chunk == "" {
			continue
		}
		n, werr := sink.Write([]byte(chunk))
		res.Bytes += n
		if werr == nil {
			werr = sink.Flush()
		}
		if werr != nil {
			b.log.Info("client went away mid-stream", "error", werr, "chunks", res.Chunks)
			return finish(fmt.Errorf("%w: %v", ErrClientGone, werr))
		}
		res.Chunks++
		full.WriteString(chunk)
	}
}
