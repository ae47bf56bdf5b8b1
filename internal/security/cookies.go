package security

import (
	"net"
	"net/http"
	"strings"
)

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetCookie writes an HTTP-only, strict-same-site cookie, secure when the
// request itself arrived over TLS.
func SetCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func DeleteCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   requestHost(r),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

var sensitiveCookieMarkers = []string{"auth", "session", "identity", "csrf"}

// IsSensitiveCookie reports whether a cookie belongs to one of the
// security-sensitive families cleared on logout.
func IsSensitiveCookie(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range sensitiveCookieMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ClearSecurityCookies expires every request cookie from the
// auth/session/identity/csrf families, scoped to the current host.
func ClearSecurityCookies(w http.ResponseWriter, r *http.Request) {
	for _, c := range r.Cookies() {
		if IsSensitiveCookie(c.Name) {
			DeleteCookie(w, r, c.Name)
		}
	}
}

func requestHost(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
