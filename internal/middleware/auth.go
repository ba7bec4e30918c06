// Package middleware provides HTTP middlewares for authentication,
// authorization, request logging, rate limiting and response headers.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/auth"
	"github.com/atinyakov/NoteKeeper/internal/httpx"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier resolves a session token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLookup loads a user by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate requires a valid session token, taken from the
// "Authorization: Bearer" header or else from the token cookie. The user
// it names must still exist; it is stored in the request context.
func Authenticate(tokens TokenVerifier, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httpx.WriteError(w, log, apperr.Authentication("Not authorized to access this route"))
				return
			}
			id, err := tokens.Verify(token)
			if err != nil {
				httpx.WriteError(w, log, &apperr.Error{
					Kind:    apperr.KindAuthentication,
					Message: "Not authorized to access this route",
					Err:     err,
				})
				return
			}
			user, err := users.GetByID(r.Context(), id)
			if apperr.Is(err, apperr.KindNotFound) {
				httpx.WriteError(w, log, apperr.Authentication("Not authorized to access this route"))
				return
			}
			if err != nil {
				httpx.WriteError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// Authorize admits only users whose role is one of roles. It must run
// after Authenticate.
func Authorize(log *zap.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, log, apperr.Authentication("Not authorized to access this route"))
				return
			}
			if !slices.Contains(roles, user.Role) {
				httpx.WriteError(w, log, apperr.Authorization("User role %s is not authorized to access this route", user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user stored by Authenticate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	c, err := r.Cookie(auth.CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return ""
	}
	return c.Value
}
