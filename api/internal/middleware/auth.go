package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/venuepulse/venuepulse/api/pkg/tokens"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
)

// Validator checks an access token and returns its claims.
type Validator interface {
	ValidateToken(tokenString string) (*tokens.Claims, error)
}

type AuthMiddleware struct {
	validator Validator
}

func NewAuthMiddleware(validator Validator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth guards a handler behind a valid bearer token. The token is read
// from the Authorization header, or from a "token" query parameter as a
// fallback for EventSource clients that cannot set headers.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "Missing authorization", http.StatusUnauthorized)
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, EmailKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// GetUserID extracts the authenticated user ID from ctx, or "".
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}
