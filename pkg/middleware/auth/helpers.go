package auth

import (
	"context"
	"slices"
)

func (m *Middleware) GetPrincipal(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalCtxKey).(Principal); ok {
		return p
	}
	return Principal{}
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	p, ok := ctx.Value(principalCtxKey).(Principal)
	return ok && p.Subject != ""
}

func (m *Middleware) InGroup(ctx context.Context, group string) bool {
	p, ok := ctx.Value(principalCtxKey).(Principal)
	return ok && slices.Contains(p.Groups, group)
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}
