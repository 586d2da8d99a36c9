package auth

import (
	"context"

	"github.com/itinera/backend/internal/domain"
)

type ctxKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, if any.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(domain.Actor)
	return actor, ok
}
