package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/georgemunganga/slist-backend/internal/modules/user"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the user stored by Middleware, if any.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*user.User)
	return u, ok && u != nil
}

// Middleware rejects requests without a valid bearer token and stores the
// token's user in the request context.
func Middleware(svc Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractBearer(r.Header.Get("Authorization"))
			if err != nil {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "Authentication failed"})
				return
			}

			u, err := svc.Authenticate(r.Context(), token)
			if errors.Is(err, user.ErrNotFound) {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "User not found"})
				return
			}
			if err != nil {
				logger.Warn("authentication failed", "error", err, "path", r.URL.Path)
				respond(w, http.StatusUnauthorized, map[string]string{"error": "Authentication failed"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
