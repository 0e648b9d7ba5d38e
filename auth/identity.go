package auth

import "context"

// Identity is the caller a request was authenticated as.
type Identity struct {
	// Name labels the key in logs; it is never the key itself.
	Name string
}

type contextKey struct{}

// WithIdentity returns a new context with the given identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}
