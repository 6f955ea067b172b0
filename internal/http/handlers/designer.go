package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/flora-backend/internal/domain/chat"
	"github.com/yungbote/flora-backend/internal/http/response"
	"github.com/yungbote/flora-backend/internal/platform/logger"
	"github.com/yungbote/flora-backend/internal/services"
)

type DesignerHandler struct {
	log      *logger.Logger
	designer services.DesignerService
}

func NewDesignerHandler(log *logger.Logger, designer services.DesignerService) *DesignerHandler {
	return &DesignerHandler{
		log:      log.With("handler", "DesignerHandler"),
		designer: designer,
	}
}

// POST /api/designer/sessions
func (h *DesignerHandler) StartSession(c *gin.Context) {
	owner, ok := requireEducator(c)
	if !ok {
		return
	}
	id, err := h.designer.StartSession(c.Request.Context(), owner)
	if err != nil {
		response.RespondServiceError(c, err, "start_session_failed")
		return
	}
	response.RespondCreated(c, gin.H{"session_id": id})
}

type designerMessageRequest struct {
	Messages      []chat.Message      `json:"messages"`
	CourseContext *chat.CourseContext `json:"courseContext"`
}

// POST /api/designer/sessions/:id/messages
func (h *DesignerHandler) SendMessage(c *gin.Context) {
	owner, ok := requireEducator(c)
	if !ok {
		return
	}
	var req designerMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	sink := newTextStreamSink(c.Writer, headerDraftUpdated)
	turn := chat.Turn{Messages: req.Messages, CourseContext: req.CourseContext}
	out, err := h.designer.Converse(c.Request.Context(), owner, c.Param("id"), turn, sink)
	if sink.Started() {
		updated := "false"
		if out.Draft != nil {
			updated = "true"
		}
		c.Writer.Header().Set(headerDraftUpdated, updated)
	}
	finishStream(c, h.log, sink, err)
}

// GET /api/designer/sessions/:id/draft
func (h *DesignerHandler) GetDraft(c *gin.Context) {
	owner, ok := requireEducator(c)
	if !ok {
		return
	}
	draft, err := h.designer.Draft(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err, "load_draft_failed")
		return
	}
	response.RespondOK(c, gin.H{"draft": draft})
}

// DELETE /api/designer/sessions/:id/draft
func (h *DesignerHandler) DiscardDraft(c *gin.Context) {
	owner, ok := requireEducator(c)
	if !ok {
		return
	}
	if err := h.designer.Discard(c.Request.Context(), owner, c.Param("id")); err != nil {
		response.RespondServiceError(c, err, "discard_draft_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/designer/sessions/:id/finalize
func (h *DesignerHandler) Finalize(c *gin.Context) {
	owner, ok := requireEducator(c)
	if !ok {
		return
	}
	course, err := h.designer.Finalize(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		h.log.Warn("Finalize failed", "error", err)
		response.RespondServiceError(c, err, "finalize_failed")
		return
	}
	response.RespondCreated(c, gin.H{"course_id": course.ID, "course": course})
}
