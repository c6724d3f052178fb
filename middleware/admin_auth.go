package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireAdminAuth validates the static operator token (ADMIN_TOKEN). Fully isolated from officer auth.
// Missing or mismatch → 403; an empty configured token disables the admin routes.
func RequireAdminAuth(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken == "" {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Admin access not configured")
				return
			}
			if r.Header.Get("Authorization") == "" {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Authorization header required")
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Invalid authorization format")
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
