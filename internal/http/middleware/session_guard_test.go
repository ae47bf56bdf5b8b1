package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookvault/internal/domain"
	"bookvault/internal/security"
	"bookvault/internal/session"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var guardNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluate(t *testing.T) {
	authed := security.Principal{Subject: "7", Name: "Jane Reader", Authenticated: true}
	fresh := guardNow.Add(-5 * time.Minute).Format(time.RFC3339)
	stale := guardNow.Add(-45 * time.Minute).Format(time.RFC3339)

	cases := []struct {
		name         string
		principal    security.Principal
		sessionID    string
		lastActivity string
		want         GuardOutcome
	}{
		{"anonymous", security.Anonymous(), "sid", fresh, GuardRedirectLogin},
		{"no session cookie", authed, "", fresh, GuardRedirectLogout},
		{"idle timeout", authed, "sid", stale, GuardRedirectLogout},
		{"malformed activity skips idle check", authed, "sid", "not-a-timestamp", GuardAllow},
		{"empty activity skips idle check", authed, "sid", "", GuardAllow},
		{"missing name", security.Principal{Subject: "7", Authenticated: true}, "sid", fresh, GuardRedirectLogin},
		{"missing subject", security.Principal{Name: "Jane", Authenticated: true}, "sid", fresh, GuardRedirectLogin},
		{"all checks pass", authed, "sid", fresh, GuardAllow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.principal, tc.sessionID, tc.lastActivity, 30*time.Minute, guardNow)
			if got.Outcome != tc.want {
				t.Fatalf("outcome = %v (%s), want %v", got.Outcome, got.Reason, tc.want)
			}
		})
	}
}

// Anonymous users must land on the login page, stale sessions on logout.
// Swapping the two would either strand logged-out users or skip cleanup.
func TestEvaluateRedirectTargetsDistinct(t *testing.T) {
	authed := security.Principal{Subject: "7", Name: "Jane", Authenticated: true}

	anon := Evaluate(security.Anonymous(), "sid", "", 30*time.Minute, guardNow)
	if anon.Outcome != GuardRedirectLogin {
		t.Fatalf("anonymous: %v", anon.Outcome)
	}
	noSession := Evaluate(authed, "", "", 30*time.Minute, guardNow)
	if noSession.Outcome != GuardRedirectLogout {
		t.Fatalf("missing session: %v", noSession.Outcome)
	}
}

func newGuardFixture(t *testing.T) (*SessionGuard, session.Store, *security.JWTManager) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.SessionRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := session.NewGormStore(db)
	jwt := security.NewJWTManager("bookvault-test", "bookvault", "0123456789abcdef0123456789abcdef")
	guard := NewSessionGuard(jwt, store, "bookvault_auth", "bookvault_session", 30*time.Minute, 30*time.Minute)
	guard.now = func() time.Time { return guardNow }
	return guard, store, jwt
}

func guardedRequest(t *testing.T, guard *SessionGuard, authToken, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	handler := guard.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := security.PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("principal missing from context")
		}
		w.Write([]byte(p.Name))
	}))
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	if authToken != "" {
		req.AddCookie(&http.Cookie{Name: "bookvault_auth", Value: authToken})
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "bookvault_session", Value: sessionID})
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestGuardMiddlewareAnonymousRedirectsToLogin(t *testing.T) {
	guard, _, _ := newGuardFixture(t)

	rr := guardedRequest(t, guard, "", "some-session")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != LoginPath {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestGuardMiddlewareMissingSessionRedirectsToLogout(t *testing.T) {
	guard, _, jwt := newGuardFixture(t)
	token, err := jwt.SignAuthToken(7, "Jane Reader", 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	rr := guardedRequest(t, guard, token, "")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != LogoutPath {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestGuardMiddlewareAllowRefreshesSession(t *testing.T) {
	guard, store, jwt := newGuardFixture(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	token, err := jwt.SignAuthToken(7, "Jane Reader", 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	sid := session.NewSessionID()
	old := guardNow.Add(-10 * time.Minute).Format(time.RFC3339)
	if err := store.Save(ctx, &domain.SessionRecord{ID: sid, UserID: "7", LastActivity: old}); err != nil {
		t.Fatal(err)
	}

	rr := guardedRequest(t, guard, token, sid)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "Jane Reader" {
		t.Fatalf("principal name = %q", rr.Body.String())
	}

	record, err := store.Get(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if record.LastActivity != guardNow.Format(time.RFC3339) {
		t.Fatalf("LastActivity = %q, want refreshed", record.LastActivity)
	}

	refreshed := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == "bookvault_auth" && c.Value != "" {
			refreshed = true
		}
	}
	if !refreshed {
		t.Fatal("auth cookie not re-issued")
	}
}

func TestGuardMiddlewareIdleSessionRedirectsToLogout(t *testing.T) {
	guard, store, jwt := newGuardFixture(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	token, err := jwt.SignAuthToken(7, "Jane Reader", 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	sid := session.NewSessionID()
	stale := guardNow.Add(-31 * time.Minute).Format(time.RFC3339)
	if err := store.Save(ctx, &domain.SessionRecord{ID: sid, UserID: "7", LastActivity: stale}); err != nil {
		t.Fatal(err)
	}

	rr := guardedRequest(t, guard, token, sid)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != LogoutPath {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

// A rejected request must not leave its session record behind; a record with
// no matching authenticated principal is invalid.
func TestGuardMiddlewareRejectionClearsSession(t *testing.T) {
	guard, store, jwt := newGuardFixture(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	fresh := guardNow.Add(-5 * time.Minute).Format(time.RFC3339)
	sid := session.NewSessionID()
	if err := store.Save(ctx, &domain.SessionRecord{ID: sid, UserID: "7", LastActivity: fresh}); err != nil {
		t.Fatal(err)
	}

	rr := guardedRequest(t, guard, "", sid)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != LoginPath {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if _, err := store.Get(ctx, sid); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("record survived anonymous rejection: err = %v", err)
	}

	token, err := jwt.SignAuthToken(7, "Jane Reader", 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	sid = session.NewSessionID()
	stale := guardNow.Add(-31 * time.Minute).Format(time.RFC3339)
	if err := store.Save(ctx, &domain.SessionRecord{ID: sid, UserID: "7", LastActivity: stale}); err != nil {
		t.Fatal(err)
	}

	rr = guardedRequest(t, guard, token, sid)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != LogoutPath {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if _, err := store.Get(ctx, sid); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("record survived idle timeout: err = %v", err)
	}
}

func TestGuardMiddlewareGarbageTokenRedirectsToLogin(t *testing.T) {
	guard, _, _ := newGuardFixture(t)

	rr := guardedRequest(t, guard, "not.a.jwt", "some-session")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != LoginPath {
		t.Fatalf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}
