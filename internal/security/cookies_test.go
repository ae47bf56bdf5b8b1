package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsSensitiveCookie(t *testing.T) {
	cases := map[string]bool{
		"bookvault_session":   true,
		"bookvault_auth":      true,
		"csrf_token":          true,
		"MyIdentityProvider":  true,
		"preferred_language":  false,
		"cart_items":          false,
		"X-Session-Recovery":  true,
		"analytics_consent":   false,
	}
	for name, want := range cases {
		if got := IsSensitiveCookie(name); got != want {
			t.Fatalf("IsSensitiveCookie(%q)=%v want %v", name, got, want)
		}
	}
}

func TestClearSecurityCookiesExpiresOnlySensitive(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/account/logout", nil)
	req.Host = "app.example.com:8443"
	req.AddCookie(&http.Cookie{Name: "bookvault_session", Value: "s"})
	req.AddCookie(&http.Cookie{Name: "bookvault_auth", Value: "a"})
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})

	rr := httptest.NewRecorder()
	ClearSecurityCookies(rr, req)

	cleared := map[string]bool{}
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Fatalf("cookie %q not expired", c.Name)
		}
		if c.Domain != "app.example.com" {
			t.Fatalf("cookie %q scoped to %q, want host only", c.Name, c.Domain)
		}
		cleared[c.Name] = true
	}
	if !cleared["bookvault_session"] || !cleared["bookvault_auth"] {
		t.Fatalf("expected both security cookies cleared, got %v", cleared)
	}
	if cleared["theme"] {
		t.Fatal("non-sensitive cookie must not be touched")
	}
}
