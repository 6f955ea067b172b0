package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/flora-backend/internal/clients/redis"
	"github.com/yungbote/flora-backend/internal/data/repos"
	httpserver "github.com/yungbote/flora-backend/internal/http"
	httpH "github.com/yungbote/flora-backend/internal/http/handlers"
	httpMW "github.com/yungbote/flora-backend/internal/http/middleware"
	"github.com/yungbote/flora-backend/internal/modules/chat/bridge"
	"github.com/yungbote/flora-backend/internal/modules/chat/prompt"
	"github.com/yungbote/flora-backend/internal/platform/gemini"
	"github.com/yungbote/flora-backend/internal/platform/logger"
	"github.com/yungbote/flora-backend/internal/services"
)

type Clients struct {
	Model bridge.Model
	Redis *goredis.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	model, err := gemini.NewClient(log, cfg.Gemini)
	if err != nil {
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	}

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewClient(ctx, log, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
	}
	return Clients{Model: bridge.GeminiModel(model), Redis: rdb}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

type Repos struct {
	Course     repos.CourseRepo
	Lesson     repos.LessonRepo
	Enrollment repos.EnrollmentRepo
	Activity   repos.ActivityRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Course:     repos.NewCourseRepo(db, log),
		Lesson:     repos.NewLessonRepo(db, log),
		Enrollment: repos.NewEnrollmentRepo(db, log),
		Activity:   repos.NewActivityRepo(db, log),
	}
}

type Services struct {
	Bridge   *bridge.Bridge
	Chat     services.ChatService
	Course   services.CourseService
	Designer services.DesignerService
	Session  services.SessionService
}

// wirePrompts installs the persona document. A broken override stops startup
// rather than silently serving one persona to every role.
func wirePrompts(log *logger.Logger, cfg Config) error {
	if err := prompt.LoadPersonas(cfg.PersonasPath); err != nil {
		return fmt.Errorf("load personas: %w", err)
	}
	if cfg.PersonasPath != "" {
		log.Info("Loaded persona override", "path", cfg.PersonasPath)
	}
	return nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	if err := wirePrompts(log, cfg); err != nil {
		return Services{}, err
	}

	b := bridge.New(clients.Model, log)

	var drafts services.DraftStore
	if clients.Redis != nil {
		store, err := services.NewRedisDraftStore(log, clients.Redis, cfg.DraftTTL)
		if err != nil {
			return Services{}, err
		}
		drafts = store
	} else {
		log.Warn("REDIS_ADDR not set; designer drafts are kept in process memory")
		drafts = services.NewMemoryDraftStore(cfg.DraftTTL)
	}

	sessions, err := services.NewSessionService(log, cfg.SessionSecret)
	if err != nil {
		return Services{}, err
	}
	courses := services.NewCourseService(db, log, reposet.Course, reposet.Lesson, reposet.Enrollment, reposet.Activity)

	return Services{
		Bridge:   b,
		Chat:     services.NewChatService(log, b),
		Course:   courses,
		Designer: services.NewDesignerService(log, b, drafts, courses),
		Session:  sessions,
	}, nil
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Chat       *httpH.ChatHandler
	Designer   *httpH.DesignerHandler
	Course     *httpH.CourseHandler
	Enrollment *httpH.EnrollmentHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() }
	}
	return Handlers{
		Health:     httpH.NewHealthHandler(checks),
		Chat:       httpH.NewChatHandler(log, serviceset.Chat),
		Designer:   httpH.NewDesignerHandler(log, serviceset.Designer),
		Course:     httpH.NewCourseHandler(log, serviceset.Course),
		Enrollment: httpH.NewEnrollmentHandler(log, serviceset.Course),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, serviceset Services) *gin.Engine {
	log.Info("Wiring router...")
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, serviceset.Session),
		HealthHandler:     handlerset.Health,
		ChatHandler:       handlerset.Chat,
		DesignerHandler:   handlerset.Designer,
		CourseHandler:     handlerset.Course,
		EnrollmentHandler: handlerset.Enrollment,
	})
}

const shutdownGrace = 10 * time.Second
