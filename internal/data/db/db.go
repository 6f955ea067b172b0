package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/flora-backend/internal/domain/learning"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

type Config struct {
	// Driver is "postgres" (default) or "sqlite".
	Driver      string
	PostgresDSN string
	SQLitePath  string
	// Silent turns gorm's own SQL logging off.
	Silent bool
}

// Open connects to the document store backing courses, lessons and enrollments.
func Open(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{TranslateError: true}
	if cfg.Silent {
		gcfg.Logger = gormLogger.Default.LogMode(gormLogger.Silent)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "sqlite", "sqlite3":
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "file:flora?mode=memory&cache=shared"
		}
		dialector = sqlite.Open(path)
		if log != nil {
			log.Info("Connecting to SQLite...", "path", path)
		}
	default:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("missing postgres dsn")
		}
		dialector = postgres.Open(cfg.PostgresDSN)
		if log != nil {
			log.Info("Connecting to Postgres...")
		}
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	return db, nil
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&learning.Course{},
		&learning.Lesson{},
		&learning.Enrollment{},
		&learning.ActivityEvent{},
	)
}
