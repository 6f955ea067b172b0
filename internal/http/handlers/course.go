package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/flora-backend/internal/domain/learning"
	"github.com/yungbote/flora-backend/internal/http/response"
	"github.com/yungbote/flora-backend/internal/platform/logger"
	"github.com/yungbote/flora-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

type courseView struct {
	*types.Course
	Topics []string `json:"topics"`
}

func viewCourse(c *types.Course) courseView {
	topics := c.TopicList()
	if topics == nil {
		topics = []string{}
	}
	return courseView{Course: c, Topics: topics}
}

// GET /api/courses
func (h *CourseHandler) ListEducatorCourses(c *gin.Context) {
	owner, ok := requireEducator(c)
	if !ok {
		return
	}
	courses, err := h.courseService.ListForEducator(c.Request.Context(), owner.ID)
	if err != nil {
		h.log.Error("ListEducatorCourses failed", "error", err, "educator_id", owner.ID)
		response.RespondServiceError(c, err, "load_courses_failed")
		return
	}
	out := make([]courseView, 0, len(courses))
	for _, course := range courses {
		out = append(out, viewCourse(course))
	}
	response.RespondOK(c, gin.H{"courses": out})
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	owner, ok := requireEducator(c)
	if !ok {
		return
	}
	var in services.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courseService.Create(c.Request.Context(), owner, in)
	if err != nil {
		response.RespondServiceError(c, err, "create_course_failed")
		return
	}
	response.RespondCreated(c, gin.H{"course": viewCourse(course)})
}

// GET /api/courses/:id/lessons
func (h *CourseHandler) ListCourseLessons(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessons, err := h.courseService.GetLessons(c.Request.Context(), courseID)
	if err != nil {
		response.RespondServiceError(c, err, "load_lessons_failed")
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}
