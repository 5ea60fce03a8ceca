package actor

import (
	"context"

	"pocketflix-portal/internal/domain"
)

type callerKey struct{}

// WithCaller attaches the calling principal to ctx. An empty principal is anonymous.
func WithCaller(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, callerKey{}, principal)
}

// CallerFrom returns the principal attached by WithCaller, or "" for anonymous calls.
func CallerFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(callerKey{}).(domain.Principal)
	return p
}
