package httpserver

import (
	"context"
	"net/http"

	"taskhub/internal/domain"
	"taskhub/internal/security"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// Cookie names for the JWT pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// WithUser returns a new context carrying the current user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser extracts the current user from context, if any.
func CurrentUser(r *http.Request) *domain.User {
	if v := r.Context().Value(userContextKey); v != nil {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// AuthMiddleware validates the access-token cookie and attaches the user to
// the request context.
func AuthMiddleware(tokens *security.TokenService, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized access."})
				return
			}

			userID, err := tokens.ParseAccessToken(cookie.Value)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Access token expired."})
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized access."})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OwnerOnly rejects requests from non-owner users. Must run after
// AuthMiddleware.
func OwnerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r)
		if u == nil || u.Role != domain.RoleOwner {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied - Owner only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
