package observe

import "context"

type callIDKey struct{}

// WithCallID returns ctx carrying a tool call ID. Loggers attach it to
// every entry written under ctx.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

// CallID returns the call ID in ctx, or "".
func CallID(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}
