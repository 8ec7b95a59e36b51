package auth

import "context"

type contextKey struct{}

// Identity is the verified caller of a request. Services take it as an
// explicit argument; only the HTTP layer reads it from a context.
type Identity struct {
	UserID    int64
	Email     string
	Name      string
	SessionID int64
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

func UserID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return id.UserID
}
