package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contextKey struct{}

// User is the authenticated principal attached to a request context.
type User struct {
	ID    string
	Email string
}

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok
}

// WithUser returns a context carrying the authenticated user. Exposed
// for handler tests.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// Authenticator returns middleware that verifies the bearer token and
// stores the authenticated user in the request context. Missing,
// malformed, and expired tokens all produce 401 with distinct messages.
func Authenticator(tokens *Tokens, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ParseBearer(r.Header.Get("Authorization"))
			if raw == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					unauthorized(w, "token expired")
					return
				}
				logger.Debug("token verification failed", zap.Error(err))
				unauthorized(w, "invalid token")
				return
			}

			user := &User{ID: claims.Subject, Email: claims.Email}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireOwner returns middleware that rejects requests whose {userID}
// path parameter differs from the token subject. This is the multi-user
// isolation boundary: a valid token for one user can never reach another
// user's resources.
func RequireOwner(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := FromContext(r.Context())
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			pathUserID := chi.URLParam(r, "userID")
			if pathUserID == "" || pathUserID != user.ID {
				logger.Warn("ownership check failed",
					zap.String("token_user", user.ID),
					zap.String("path_user", pathUserID),
				)
				writeJSONError(w, http.StatusForbidden, "access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="taskie"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
