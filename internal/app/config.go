package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/flora-backend/internal/data/db"
	"github.com/yungbote/flora-backend/internal/observability"
	"github.com/yungbote/flora-backend/internal/platform/envutil"
	"github.com/yungbote/flora-backend/internal/platform/gemini"
	"github.com/yungbote/flora-backend/internal/platform/logger"
)

type Config struct {
	Port    string
	LogMode string

	Gemini       gemini.Config
	// PersonasPath replaces the embedded persona document when set.
	PersonasPath string
	DB           db.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DraftTTL      time.Duration

	SessionSecret  string
	AllowedOrigins []string

	Otel observability.OtelConfig
}

// LoadDotEnv reads .env (or the given files) into the process environment
// without overriding variables that are already set.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded []string
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no env file loaded from %s", strings.Join(files, ", "))
	}
	return nil
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		Gemini: gemini.Config{
			APIKey:        envutil.String("GEMINI_API_KEY", ""),
			Model:         envutil.String("GEMINI_MODEL", gemini.DefaultModel),
			BaseURL:       envutil.String("GEMINI_BASE_URL", gemini.DefaultBaseURL),
			HeaderTimeout: envutil.Seconds("GEMINI_TIMEOUT_SECONDS", 60*time.Second),
		},
		PersonasPath: envutil.String("FLORA_PERSONAS_YAML", ""),
		DB: db.Config{
			Driver:      envutil.String("DB_DRIVER", "postgres"),
			PostgresDSN: postgresDSN(),
			SQLitePath:  envutil.String("SQLITE_PATH", ""),
		},
		RedisAddr:      envutil.String("REDIS_ADDR", ""),
		RedisPassword:  envutil.String("REDIS_PASSWORD", ""),
		RedisDB:        envutil.Int("REDIS_DB", 0),
		DraftTTL:       envutil.Seconds("DESIGNER_DRAFT_TTL_SECONDS", 24*time.Hour),
		SessionSecret:  envutil.String("SESSION_JWT_SECRET", ""),
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "flora"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
	}

	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		return cfg, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return cfg, fmt.Errorf("missing SESSION_JWT_SECRET")
	}
	if log != nil {
		log.Info("Config loaded",
			"port", cfg.Port,
			"db_driver", cfg.DB.Driver,
			"gemini_model", cfg.Gemini.Model,
			"redis", cfg.RedisAddr != "",
			"otel", cfg.Otel.Enabled,
		)
	}
	return cfg, nil
}

// postgresDSN prefers POSTGRES_DSN and otherwise assembles one from POSTGRES_* parts.
func postgresDSN() string {
	if dsn := envutil.String("POSTGRES_DSN", ""); dsn != "" {
		return dsn
	}
	host := envutil.String("POSTGRES_HOST", "")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		envutil.String("POSTGRES_PORT", "5432"),
		envutil.String("POSTGRES_USER", "postgres"),
		envutil.String("POSTGRES_PASSWORD", ""),
		envutil.String("POSTGRES_NAME", "flora"),
		envutil.String("POSTGRES_SSLMODE", "disable"),
	)
}
