package identity

import (
	"context"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the PublicUser in the given context
func WithContext(r context.Context, user *PublicUser) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*PublicUser, bool) {
	raw, ok := ctx.Value(userCtxKey).(*PublicUser)
	return raw, ok
}
