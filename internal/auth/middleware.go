package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// CookieName is read when no Authorization header is present.
const CookieName = "pagebuilder_admin"

// TokenConfig configures the admin token middleware.
type TokenConfig struct {
	// Token grants Permissions to requests presenting it.
	Token string
	// Permissions defaults to the wildcard.
	Permissions []string
	// Insecure grants Permissions to every request. Intended for local development.
	Insecure bool
}

// TokenMiddleware attaches permissions to requests that present the admin
// token as a bearer credential or cookie. Other requests pass through anonymous.
func TokenMiddleware(cfg TokenConfig) func(http.Handler) http.Handler {
	perms := cfg.Permissions
	if len(perms) == 0 {
		perms = []string{Wildcard}
	}
	checker := NewSet(perms...)
	expected := []byte(strings.TrimSpace(cfg.Token))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Insecure || (len(expected) > 0 && matches(expected, presentedToken(r))) {
				r = r.WithContext(WithChecker(r.Context(), checker))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func matches(expected []byte, presented string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare(expected, []byte(presented)) == 1
}
