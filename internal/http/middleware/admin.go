package middleware

import (
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/telecrm/helpdesk-sso/internal/http/response"
)

// RequireAdminKey guards the operator endpoints. Callers present the plain
// key as a bearer token; it is compared against an argon2id hash so the key
// itself never sits in configuration. An empty hash disables the routes.
func RequireAdminKey(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				response.NotFound(w, "not found")
				return
			}

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "operator key required")
				return
			}
			key := strings.TrimPrefix(authz, "Bearer ")

			match, err := argon2id.ComparePasswordAndHash(key, keyHash)
			if err != nil || !match {
				response.Forbidden(w, "invalid operator key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
