package auth

import (
	"context"

	"github.com/sakif/blog/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// WithUser returns a copy of ctx carrying the resolved current user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the current user, or (nil, false) for anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}
