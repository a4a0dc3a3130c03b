package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/cohort/internal/config"
)

// SessionCookie carries the page session once a key has been entered on the
// login form.
const SessionCookie = "cohort_session"

// SessionTTL bounds how long a page session lasts.
const SessionTTL = 12 * time.Hour

// SessionToken derives the cookie value for an API key. The key itself never
// leaves the server.
func SessionToken(key string) string {
	sum := sha256.Sum256([]byte("cohort-session:" + key))
	return hex.EncodeToString(sum[:])
}

// ValidKey reports whether key is one of the configured API keys.
func ValidKey(cfg *config.SecurityConfig, key string) bool {
	return key != "" && isValidAPIKey(key, cfg.APIKeys)
}

// SetSession writes the session cookie for key.
func SetSession(w http.ResponseWriter, r *http.Request, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    SessionToken(key),
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// PageAuth guards the HTML routes. A request passes with a valid API key
// header or a valid session cookie; otherwise it is redirected to loginPath.
// If RequireAPIKey is false, all requests pass through.
func PageAuth(cfg *config.SecurityConfig, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey || ValidKey(cfg, requestKey(r)) || validSession(cfg, r) {
				next.ServeHTTP(w, r)
				return
			}

			slog.Warn("auth: page without session",
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		})
	}
}

func validSession(cfg *config.SecurityConfig, r *http.Request) bool {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return false
	}
	valid := 0
	for _, key := range cfg.APIKeys {
		valid |= subtle.ConstantTimeCompare([]byte(c.Value), []byte(SessionToken(key)))
	}
	return valid == 1
}
