package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"bookvault/internal/app"
	"bookvault/internal/config"
	"bookvault/internal/database"
	"bookvault/internal/http/handler"
	"bookvault/internal/http/middleware"
	"bookvault/internal/http/router"
	"bookvault/internal/observability"
	"bookvault/internal/repository"
	"bookvault/internal/security"
	"bookvault/internal/service"
	"bookvault/internal/session"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.InitLogger(cfg)

	runtime, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	sessions, redisClient, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	deps, sweep := buildDependencies(cfg, db, sessions)
	deps.Readiness = readinessProbe(db, redisClient)
	deps.EnableOTelHTTP = cfg.EnableOTelHTTP

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	a := app.New(cfg, logger, server, runtime)
	a.Sweep = sweep
	return a.Run(ctx)
}

func newSessionStore(cfg *config.Config) (session.Store, redis.UniversalClient, error) {
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return session.NewRedisStore(client, cfg.SessionIdleTimeout), client, nil
	case "database":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend %q", cfg.SessionBackend)
	}
}

// buildDependencies wires the repositories, services, and handlers. The
// returned sweep func is the hourly cleanup pass.
func buildDependencies(cfg *config.Config, db *gorm.DB, sessions session.Store) (router.Dependencies, func(ctx context.Context)) {
	if sessions == nil {
		sessions = session.NewGormStore(db)
	}

	jwt := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret)
	audit := service.NewAuditService(repository.NewAuditRepository(db))
	issuer := service.NewTokenIssuer(repository.NewCredentialTokenRepository(db), cfg.VerificationTokenTTL, cfg.ResetTokenTTL)
	shortener := service.NewURLShortener(repository.NewShortenedURLRepository(db), cfg.ShortURLTTL)
	email := service.NewThrottledEmailService(service.NewSMTPEmailSender(cfg), cfg.BaseURL)
	limiter := service.NewResetRateLimiter(cfg.RateLimitFile, cfg.ResetCooldown, cfg.ResetHourlyCap)
	accounts := service.NewAccountService(
		repository.NewUserRepository(db), issuer, shortener, limiter, email, audit, cfg.BaseURL,
	)

	deps := router.Dependencies{
		AccountHandler: handler.NewAccountHandler(
			accounts, sessions, audit, jwt,
			cfg.AuthCookieName, cfg.SessionCookieName, cfg.AuthTokenTTL,
		),
		BookHandler:     handler.NewBookHandler(repository.NewBookRepository(db), audit),
		ContactHandler:  handler.NewContactHandler(repository.NewContactRepository(db), audit),
		ShortURLHandler: handler.NewShortURLHandler(shortener),
		AuditHandler:    handler.NewAuditHandler(audit),
		SessionGuard: middleware.NewSessionGuard(
			jwt, sessions,
			cfg.AuthCookieName, cfg.SessionCookieName,
			cfg.SessionIdleTimeout, cfg.AuthTokenTTL,
		),
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
	}

	sweep := func(ctx context.Context) {
		if n, err := shortener.CleanupExpired(ctx); err != nil {
			slog.WarnContext(ctx, "short url cleanup failed", "error", err)
		} else if n > 0 {
			slog.InfoContext(ctx, "short urls cleaned", "removed", n)
		}
		cutoff := time.Now().UTC().Add(-cfg.SessionIdleTimeout)
		if n, err := sessions.DeleteStale(ctx, cutoff); err != nil {
			slog.WarnContext(ctx, "session cleanup failed", "error", err)
		} else if n > 0 {
			slog.InfoContext(ctx, "stale sessions cleaned", "removed", n)
		}
		if n := email.CleanupThrottles(); n > 0 {
			slog.InfoContext(ctx, "email throttle entries cleaned", "removed", n)
		}
	}
	return deps, sweep
}

func readinessProbe(db *gorm.DB, redisClient redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}
