package scopetree

import (
	"context"
)

type scopeContextKey struct{}

// WithScope returns a copy of parent carrying scope. Consumers receive their
// scope explicitly through the context instead of reaching for a global.
func WithScope(parent context.Context, scope *Scope) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, scopeContextKey{}, scope)
}

// FromContext returns the scope carried by ctx.
func FromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(scopeContextKey{}).(*Scope)
	return s, ok && s != nil
}

// ServiceFrom resolves a typed service from the scope carried by ctx, walking
// up the tree like Lookup. A context without a scope reports the service as
// not found.
func ServiceFrom[T any](ctx context.Context, name string) (T, error) {
	s, ok := FromContext(ctx)
	if !ok {
		var zero T
		return zero, &ServiceNotFoundError{Name: name, Path: "<no scope>"}
	}
	return Lookup[T](s, name)
}
