// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the acting player.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// Actor identifies the local player on whose behalf a call runs.
type Actor struct {
	ID   string
	Name string
}

// WithActor returns a context with the acting player embedded.
func WithActor(ctx context.Context, id, name string) context.Context {
	return context.WithValue(ctx, ActorKey{}, Actor{ID: id, Name: name})
}

// ActorFromContext returns the acting player ID, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	return ActorInfo(ctx).ID
}

// ActorInfo returns the acting player, or the zero Actor if not set.
func ActorInfo(ctx context.Context) Actor {
	if v, ok := ctx.Value(ActorKey{}).(Actor); ok {
		return v
	}
	return Actor{}
}
