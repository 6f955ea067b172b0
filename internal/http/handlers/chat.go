package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/flora-backend/internal/domain/chat"
	"github.com/yungbote/flora-backend/internal/http/response"
	"github.com/yungbote/flora-backend/internal/modules/chat/bridge"
	"github.com/yungbote/flora-backend/internal/platform/logger"
	"github.com/yungbote/flora-backend/internal/services"
)

const generationFailedMessage = "Failed to generate response"

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:  log.With("handler", "ChatHandler"),
		chat: chat,
	}
}

type chatRequest struct {
	Messages      []chat.Message      `json:"messages"`
	Role          string              `json:"role"`
	Mode          string              `json:"mode"`
	CourseContext *chat.CourseContext `json:"courseContext"`
}

func (r chatRequest) turn() chat.Turn {
	return chat.Turn{
		Messages:      r.Messages,
		Role:          chat.ParseRole(r.Role),
		Mode:          chat.ParseMode(r.Mode),
		CourseContext: r.CourseContext,
	}
}

// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	sink := newTextStreamSink(c.Writer)
	_, err := h.chat.Respond(c.Request.Context(), req.turn(), sink)
	finishStream(c, h.log, sink, err)
}

// finishStream answers a turn whose relay has ended. Before the first byte a
// failure is still a JSON 500; afterwards only the trailer can report it.
func finishStream(c *gin.Context, log *logger.Logger, sink *textStreamSink, err error) {
	if err != nil && !sink.Started() {
		if errors.Is(err, bridge.ErrClientGone) {
			c.Abort()
			return
		}
		if errors.Is(err, bridge.ErrEmptyConversation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
			return
		}
		var gf *bridge.GenerationFailure
		if !errors.As(err, &gf) {
			// service-level rejection such as a bad session id
			response.RespondServiceError(c, err, "chat_failed")
			return
		}
		log.Error("Chat generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": generationFailedMessage})
		return
	}
	if err != nil {
		log.Warn("Chat stream ended early", "error", err)
		_ = c.Error(err)
	}
	sink.Finish(err)
}
