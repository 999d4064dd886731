package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort    string
	AppEnv     string
	AppBaseURL string

	DBDriver    string
	DatabaseDSN string

	JWTSecret  string
	SessionTTL time.Duration

	CronSecret     string
	SyncSchedule   string
	SkinAPIBaseURL string
	SkinAPITimeout time.Duration

	RedisURL string
	CacheTTL time.Duration

	RabbitMQURL string
	MailQueue   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	LogLevel  string
	LogFormat string

	AuthRateLimit int
}

// IsProduction reports whether the service runs with production defaults.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads configuration from an optional .env file and the environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=skintracker port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("CRON_SECRET", "")
	v.SetDefault("SYNC_SCHEDULE", "")
	v.SetDefault("SKIN_API_BASE_URL", "https://valorant-api.com/v1")
	v.SetDefault("SKIN_API_TIMEOUT", "30s")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("MAIL_QUEUE", "mail_queue")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "Valorant Skins <no-reply@valorantskins.dev>")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("AUTH_RATE_LIMIT", 30)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:        v.GetString("APP_PORT"),
		AppEnv:         strings.ToLower(v.GetString("APP_ENV")),
		AppBaseURL:     strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		CronSecret:     v.GetString("CRON_SECRET"),
		SyncSchedule:   v.GetString("SYNC_SCHEDULE"),
		SkinAPIBaseURL: strings.TrimRight(v.GetString("SKIN_API_BASE_URL"), "/"),
		SkinAPITimeout: v.GetDuration("SKIN_API_TIMEOUT"),
		RedisURL:       v.GetString("REDIS_URL"),
		CacheTTL:       v.GetDuration("CACHE_TTL"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		MailQueue:      v.GetString("MAIL_QUEUE"),
		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SMTPUsername:   v.GetString("SMTP_USERNAME"),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),
		MailFrom:       v.GetString("MAIL_FROM"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		AuthRateLimit:  v.GetInt("AUTH_RATE_LIMIT"),
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev_jwt_secret"
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	return cfg, nil
}
