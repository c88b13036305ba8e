package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
)

// UserResolver maps a raw session token to the user it belongs to.
// (nil, nil) means anonymous. *service.AuthService satisfies it.
type UserResolver interface {
	ResolveCurrentUser(ctx context.Context, token string) (*model.User, error)
}

// CookieStore reads and clears the session cookie.
// *auth.SessionManager satisfies it.
type CookieStore interface {
	TokenFromRequest(r *http.Request) string
	ClearCookie(w http.ResponseWriter)
}

// LoadUser resolves the current user once per request and stores it in the
// request context (see auth.UserFromContext).
//
// A cookie that no longer resolves to a user (bad signature, expired, user
// gone) is cleared, and the request continues as anonymous. A store failure
// ends the request with 500.
func LoadUser(resolver UserResolver, cookies CookieStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookies.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.ResolveCurrentUser(r.Context(), token)
			if err != nil {
				logger.Error("failed to resolve session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if user == nil {
				cookies.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// RequireAuthenticated redirects anonymous callers to loginPath with
// 303 See Other. The wrapped handler only ever runs for a logged-in user.
func RequireAuthenticated(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserFromContext(r.Context()); !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
