package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-recipe-api/internal/api"
	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

// Define typed context keys
type contextKey string

const (
	UserIDKey contextKey = "userID"
	UserKey   contextKey = "user"
)

// Authenticate is middleware that resolves `Authorization: Token <key>` to a
// user. `Bearer` is accepted as a synonym for `Token`.
func Authenticate(service AuthService, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.DebugContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}

			scheme, key, found := strings.Cut(strings.TrimSpace(authHeader), " ")
			key = strings.TrimSpace(key)
			if !found || key == "" || strings.Contains(key, " ") ||
				(!strings.EqualFold(scheme, "token") && !strings.EqualFold(scheme, "bearer")) {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token header.")
				return
			}

			u, err := service.ResolveToken(ctx, key)
			if err != nil {
				l.WarnContext(ctx, "Token resolution failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token.")
				return
			}

			ctx = WithUser(ctx, u)
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", u.ID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, u *types.User) context.Context {
	ctx = context.WithValue(ctx, UserKey, u)
	return context.WithValue(ctx, UserIDKey, u.ID)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

func GetUserFromContext(ctx context.Context) (*types.User, bool) {
	u, ok := ctx.Value(UserKey).(*types.User)
	return u, ok && u != nil
}
