package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/observability"
	"bookvault/internal/security"
	"bookvault/internal/session"
)

const (
	LoginPath  = "/account/login"
	LogoutPath = "/account/logout"
)

type GuardOutcome int

const (
	GuardAllow GuardOutcome = iota
	GuardRedirectLogin
	GuardRedirectLogout
)

type GuardDecision struct {
	Outcome GuardOutcome
	Reason  string
}

// SessionGuard gates every protected route on both the signed auth cookie
// and the server-side session record. Anonymous routes are mounted outside
// the guarded router group; there is no path allow-list here.
type SessionGuard struct {
	jwt           *security.JWTManager
	sessions      session.Store
	authCookie    string
	sessionCookie string
	idleTimeout   time.Duration
	authTTL       time.Duration
	now           func() time.Time
}

func NewSessionGuard(
	jwt *security.JWTManager,
	sessions session.Store,
	authCookie, sessionCookie string,
	idleTimeout, authTTL time.Duration,
) *SessionGuard {
	return &SessionGuard{
		jwt:           jwt,
		sessions:      sessions,
		authCookie:    authCookie,
		sessionCookie: sessionCookie,
		idleTimeout:   idleTimeout,
		authTTL:       authTTL,
		now:           time.Now,
	}
}

// Evaluate applies the gate checks in order. Identity failures send the user
// to log in; session failures send them through logout so stale state is
// cleared. The two targets are not interchangeable.
//
// lastActivity is the stored RFC3339 text; a value that does not parse
// skips the idle check rather than rejecting the session.
func Evaluate(p security.Principal, sessionID, lastActivity string, idleTimeout time.Duration, now time.Time) GuardDecision {
	if !p.Authenticated {
		return GuardDecision{Outcome: GuardRedirectLogin, Reason: "unauthenticated"}
	}
	if sessionID == "" {
		return GuardDecision{Outcome: GuardRedirectLogout, Reason: "no_session"}
	}
	if lastActivity != "" {
		if at, err := time.Parse(time.RFC3339, lastActivity); err == nil {
			if now.Sub(at) > idleTimeout {
				return GuardDecision{Outcome: GuardRedirectLogout, Reason: "idle_timeout"}
			}
		}
	}
	if p.Name == "" {
		return GuardDecision{Outcome: GuardRedirectLogin, Reason: "missing_name"}
	}
	if !p.HasSubjectClaim() {
		return GuardDecision{Outcome: GuardRedirectLogin, Reason: "missing_subject"}
	}
	return GuardDecision{Outcome: GuardAllow, Reason: "allow"}
}

func (g *SessionGuard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal := security.Anonymous()
			if raw := security.GetCookie(r, g.authCookie); raw != "" {
				if claims, err := g.jwt.ParseAuthToken(raw); err == nil {
					principal = security.PrincipalFromClaims(claims)
				}
			}

			sessionID := security.GetCookie(r, g.sessionCookie)
			var lastActivity string
			if sessionID != "" {
				record, err := g.sessions.Get(ctx, sessionID)
				switch {
				case err == nil:
					lastActivity = record.LastActivity
				case errors.Is(err, session.ErrSessionNotFound):
					// No record yet; the idle check is skipped and a
					// fresh record is written on allow.
				default:
					slog.ErrorContext(ctx, "session store read failed", "error", err)
					observability.RecordGuardDecision(ctx, "store_error")
					g.clear(ctx, sessionID)
					http.Redirect(w, r, LogoutPath, http.StatusFound)
					return
				}
			}

			now := g.now().UTC()
			decision := Evaluate(principal, sessionID, lastActivity, g.idleTimeout, now)
			observability.RecordGuardDecision(ctx, decision.Reason)

			switch decision.Outcome {
			case GuardRedirectLogin:
				g.clear(ctx, sessionID)
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			case GuardRedirectLogout:
				g.clear(ctx, sessionID)
				http.Redirect(w, r, LogoutPath, http.StatusFound)
				return
			}

			g.refresh(w, r, sessionID, principal, now)
			next.ServeHTTP(w, r.WithContext(security.WithPrincipal(ctx, principal)))
		})
	}
}

// clear drops the session record on any rejection. A record with no matching
// authenticated principal is invalid and must not survive the redirect.
func (g *SessionGuard) clear(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := g.sessions.Delete(ctx, sessionID); err != nil {
		slog.WarnContext(ctx, "session clear failed", "error", err)
	}
}

// refresh slides the session forward: touch LastActivity, persist, and
// re-issue the auth cookie with a fresh expiry.
func (g *SessionGuard) refresh(w http.ResponseWriter, r *http.Request, sessionID string, p security.Principal, now time.Time) {
	ctx := r.Context()
	record := &domain.SessionRecord{
		ID:           sessionID,
		UserID:       p.Subject,
		LastActivity: now.Format(time.RFC3339),
	}
	if err := g.sessions.Save(ctx, record); err != nil {
		slog.WarnContext(ctx, "session refresh failed", "error", err)
	}

	if userID, err := strconv.ParseUint(p.Subject, 10, 64); err == nil {
		if token, err := g.jwt.SignAuthToken(uint(userID), p.Name, g.authTTL); err == nil {
			security.SetCookie(w, r, g.authCookie, token, int(g.authTTL.Seconds()))
		} else {
			slog.WarnContext(ctx, "auth cookie refresh failed", "error", err)
		}
	}
}
