package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, populated from the environment.
// An optional .env file is loaded first and never overrides real env vars.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN    string `env:"DATABASE_DSN" envDefault:"file:bookvault.db"`

	SessionBackend     string        `env:"SESSION_BACKEND" envDefault:"database"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	SessionCookieName  string        `env:"SESSION_COOKIE_NAME" envDefault:"bookvault_session"`
	AuthCookieName     string        `env:"AUTH_COOKIE_NAME" envDefault:"bookvault_auth"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTIssuer    string        `env:"JWT_ISSUER" envDefault:"bookvault"`
	JWTAudience  string        `env:"JWT_AUDIENCE" envDefault:"bookvault"`
	AuthTokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"30m"`

	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	ShortURLTTL          time.Duration `env:"SHORT_URL_TTL" envDefault:"1h"`

	RateLimitFile  string        `env:"RATE_LIMIT_FILE" envDefault:"data/rate_limits.json"`
	ResetCooldown  time.Duration `env:"RESET_COOLDOWN" envDefault:"5m"`
	ResetHourlyCap int           `env:"RESET_HOURLY_CAP" envDefault:"1"`

	AuthRateLimitRPM int `env:"AUTH_RATE_LIMIT_RPM" envDefault:"30"`
	APIRateLimitRPM  int `env:"API_RATE_LIMIT_RPM" envDefault:"300"`

	SMTPEnabled  bool   `env:"SMTP_ENABLED" envDefault:"false"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	FromEmail    string `env:"FROM_EMAIL" envDefault:"noreply@bookvault.local"`
	FromName     string `env:"FROM_NAME" envDefault:"BookVault"`

	OTELServiceName           string        `env:"OTEL_SERVICE_NAME" envDefault:"bookvault"`
	OTELEnvironment           string        `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	OTELMetricsEnabled        bool          `env:"OTEL_METRICS_ENABLED" envDefault:"false"`
	OTELTracingEnabled        bool          `env:"OTEL_TRACING_ENABLED" envDefault:"false"`
	OTELExporterOTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELExporterOTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELMetricsExportInterval time.Duration `env:"OTEL_METRICS_EXPORT_INTERVAL" envDefault:"15s"`
	EnableOTelHTTP            bool          `env:"OTEL_HTTP_ENABLED" envDefault:"false"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		recordConfigValidationEvent(context.Background(), "", "failure", "parse")
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		recordConfigValidationEvent(context.Background(), cfg.AppEnv, "failure", "validation")
		return nil, fmt.Errorf("validate config: %w", err)
	}
	recordConfigValidationEvent(context.Background(), cfg.AppEnv, "success", "none")
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.SessionBackend {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.ResetHourlyCap < 1 {
		return fmt.Errorf("RESET_HOURLY_CAP must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }
