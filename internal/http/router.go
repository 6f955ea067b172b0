package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/flora-backend/internal/http/handlers"
	httpMW "github.com/yungbote/flora-backend/internal/http/middleware"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	ChatHandler       *httpH.ChatHandler
	DesignerHandler   *httpH.DesignerHandler
	CourseHandler     *httpH.CourseHandler
	EnrollmentHandler *httpH.EnrollmentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")

	// Chat (anonymous allowed; a session refines the role)
	if cfg.ChatHandler != nil {
		chat := api.Group("")
		if cfg.AuthMiddleware != nil {
			chat.Use(cfg.AuthMiddleware.OptionalAuth())
		}
		chat.POST("/chat", cfg.ChatHandler.Chat)
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	educator := protected.Group("")
	educator.Use(httpMW.RequireRole("educator"))

	student := protected.Group("")
	student.Use(httpMW.RequireRole("student"))

	// Designer
	if cfg.DesignerHandler != nil {
		educator.POST("/designer/sessions", cfg.DesignerHandler.StartSession)
		educator.POST("/designer/sessions/:id/messages", cfg.DesignerHandler.SendMessage)
		educator.GET("/designer/sessions/:id/draft", cfg.DesignerHandler.GetDraft)
		educator.DELETE("/designer/sessions/:id/draft", cfg.DesignerHandler.DiscardDraft)
		educator.POST("/designer/sessions/:id/finalize", cfg.DesignerHandler.Finalize)
	}

	// Courses
	if cfg.CourseHandler != nil {
		educator.GET("/courses", cfg.CourseHandler.ListEducatorCourses)
		educator.POST("/courses", cfg.CourseHandler.CreateCourse)
		protected.GET("/courses/:id/lessons", cfg.CourseHandler.ListCourseLessons)
	}

	// Enrollments
	if cfg.EnrollmentHandler != nil {
		student.POST("/enrollments", cfg.EnrollmentHandler.Enroll)
		student.GET("/enrollments", cfg.EnrollmentHandler.ListEnrollments)
		student.PATCH("/enrollments/:course_id/progress", cfg.EnrollmentHandler.UpdateProgress)
		student.GET("/activity", cfg.EnrollmentHandler.ListActivity)
	}

	return r
}
