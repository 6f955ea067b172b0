package services

import (
	"context"

	"github.com/yungbote/flora-backend/internal/domain/chat"
	"github.com/yungbote/flora-backend/internal/modules/chat/bridge"
	"github.com/yungbote/flora-backend/internal/platform/ctxutil"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

// ChatRunner runs one streamed turn. *bridge.Bridge implements it.
type ChatRunner interface {
	Run(ctx context.Context, turn chat.Turn, sink bridge.Sink) (bridge.Result, error)
}

type ChatService interface {
	Respond(ctx context.Context, turn chat.Turn, sink bridge.Sink) (bridge.Result, error)
}

type chatService struct {
	log    *logger.Logger
	runner ChatRunner
}

func NewChatService(log *logger.Logger, runner ChatRunner) ChatService {
	return &chatService{
		log:    log.With("service", "ChatService"),
		runner: runner,
	}
}

// Respond relays one chat turn. A signed-in caller's verified role wins over the
// role claimed in the request body.
func (s *chatService) Respond(ctx context.Context, turn chat.Turn, sink bridge.Sink) (bridge.Result, error) {
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.Role != "" {
		turn.Role = chat.ParseRole(rd.Role)
	}
	res, err := s.runner.Run(ctx, turn, sink)
	if err != nil {
		fields := append([]any{"role", string(turn.Role), "chunks", res.Chunks, "error", err}, ctxutil.TraceFields(ctx)...)
		s.log.Debug("Chat turn ended with error", fields...)
		return res, err
	}
	s.log.Debug("Chat turn relayed", "role", string(turn.Role), "chunks", res.Chunks, "bytes", res.Bytes)
	return res, nil
}
