package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bookvault/internal/http/handler"
	"bookvault/internal/http/middleware"
	"bookvault/internal/http/response"
)

type Dependencies struct {
	AccountHandler  *handler.AccountHandler
	BookHandler     *handler.BookHandler
	ContactHandler  *handler.ContactHandler
	ShortURLHandler *handler.ShortURLHandler
	AuditHandler    *handler.AuditHandler
	SessionGuard    *middleware.SessionGuard

	AuthRateLimitRPM int
	APIRateLimitRPM  int

	// Readiness pings the hard dependencies; nil means always ready.
	Readiness func(ctx context.Context) error

	EnableOTelHTTP bool
}

// NewRouter mounts the application. Account and short-link routes sit
// outside the guarded group: that placement is the guard's allow-list, so a
// route added here without thought becomes reachable anonymously.
func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))
	r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())

	authLimiter := middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness != nil {
			if err := dep.Readiness(r.Context()); err != nil {
				response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", err.Error(), nil)
				return
			}
		}
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/account", func(r chi.Router) {
		r.With(authLimiter).Post("/register", dep.AccountHandler.Register)
		r.With(authLimiter).Post("/login", dep.AccountHandler.Login)
		r.Post("/logout", dep.AccountHandler.Logout)
		r.Get("/logout", dep.AccountHandler.Logout)
		r.Get("/logged-out", dep.AccountHandler.LoggedOut)
		r.Get("/verify-email", dep.AccountHandler.VerifyEmail)
		r.With(authLimiter).Post("/resend-verification", dep.AccountHandler.ResendVerification)
		r.With(authLimiter).Post("/forgot-password", dep.AccountHandler.ForgotPassword)
		r.Get("/change-password", dep.AccountHandler.ChangePasswordForm)
		r.With(authLimiter).Post("/change-password", dep.AccountHandler.ChangePassword)
		r.Post("/check-email-exists", dep.AccountHandler.CheckEmailExists)
	})

	r.Get("/s/{code}", dep.ShortURLHandler.Resolve)

	r.Group(func(r chi.Router) {
		r.Use(dep.SessionGuard.Middleware())

		r.Route("/books", func(r chi.Router) {
			r.Get("/", dep.BookHandler.List)
			r.Post("/", dep.BookHandler.Create)
			r.Get("/{id}", dep.BookHandler.Get)
			r.Put("/{id}", dep.BookHandler.Update)
			r.Delete("/{id}", dep.BookHandler.Delete)
		})

		r.Route("/contact", func(r chi.Router) {
			r.Post("/", dep.ContactHandler.Create)
			r.Get("/", dep.ContactHandler.List)
		})

		r.Get("/audit", dep.AuditHandler.List)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
