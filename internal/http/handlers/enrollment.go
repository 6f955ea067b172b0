package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/flora-backend/internal/http/response"
	"github.com/yungbote/flora-backend/internal/platform/logger"
	"github.com/yungbote/flora-backend/internal/services"
)

type EnrollmentHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewEnrollmentHandler(log *logger.Logger, courseService services.CourseService) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:           log.With("handler", "EnrollmentHandler"),
		courseService: courseService,
	}
}

type enrollRequest struct {
	Code string `json:"code" binding:"required"`
}

// POST /api/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	e, err := h.courseService.EnrollWithCode(c.Request.Context(), rd.UserID, req.Code)
	if err != nil {
		response.RespondServiceError(c, err, "enroll_failed")
		return
	}
	response.RespondCreated(c, gin.H{"enrollment": e})
}

// GET /api/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.courseService.ListEnrollments(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondServiceError(c, err, "load_enrollments_failed")
		return
	}
	response.RespondOK(c, gin.H{"enrollments": list})
}

type progressRequest struct {
	CompletedLessons *int   `json:"completedLessons" binding:"required"`
	LastTopic        string `json:"lastTopic"`
}

// PATCH /api/enrollments/:course_id/progress
func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "course_id")
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	e, err := h.courseService.UpdateProgress(c.Request.Context(), rd.UserID, courseID, services.ProgressInput{
		CompletedLessons: *req.CompletedLessons,
		LastTopic:        req.LastTopic,
	})
	if err != nil {
		response.RespondServiceError(c, err, "update_progress_failed")
		return
	}
	response.RespondOK(c, gin.H{"enrollment": e})
}

// GET /api/activity
func (h *EnrollmentHandler) ListActivity(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	events, err := h.courseService.ListActivity(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		response.RespondServiceError(c, err, "load_activity_failed")
		return
	}
	response.RespondOK(c, gin.H{"activity": events})
}
