package middleware

import (
	"context"
	"net/http"

	"civicreport/utils"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"
)

// OfficerAuthMiddleware validates officer JWT tokens and sets user_id in context
type OfficerAuthMiddleware struct {
	jwtSecret []byte
}

// NewOfficerAuthMiddleware creates a new officer auth middleware
func NewOfficerAuthMiddleware(jwtSecret string) *OfficerAuthMiddleware {
	return &OfficerAuthMiddleware{jwtSecret: []byte(jwtSecret)}
}

// RequireOfficerAuth rejects requests without a valid officer token.
// Whether the user actually holds an active officer profile is checked by the services.
func (m *OfficerAuthMiddleware) RequireOfficerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authorization header required")
			return
		}
		tokenString, ok := bearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization format. Expected: Bearer <token>")
			return
		}

		userID, err := utils.ParseOfficerJWT(tokenString, m.jwtSecret)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
			return
		}

		ctx := WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUserID returns a context carrying an authenticated user ID
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID set by RequireOfficerAuth
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}
