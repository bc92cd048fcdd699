package context

import (
	"context"

	"github.com/trustlens/review-analyzer/internal/models"
)

type contextkey string

const (
	userKey contextkey = "user"
)

// SetUser binds the authenticated user to the request context.
func SetUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User retrieves the authenticated user from request context.
// Returns nil if no user is set (unauthenticated request).
func User(ctx context.Context) *models.User {
	val := ctx.Value(userKey)
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}
