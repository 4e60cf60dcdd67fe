package middleware

import (
	"net/http"
	"strings"

	"github.com/dlrodev92/my-portfolio-api/internal/auth"
	"github.com/dlrodev92/my-portfolio-api/internal/transport"
)

// AdminAuth gates write endpoints behind a valid bearer token with the
// admin role. A nil parse result means unauthenticated, never a crash.
func AdminAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil || len(manager.Secret) == 0 {
				transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				transport.WriteError(w, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims := manager.Parse(strings.TrimSpace(token))
			if claims == nil || claims.Role != "admin" {
				transport.WriteError(w, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
