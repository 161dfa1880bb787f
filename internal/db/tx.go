package db

import "context"

type actorKey struct{}

// WithActor records which user performs the writes made with ctx. History
// events are attributed to the actor, falling back to the document owner.
func WithActor(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user id when one was recorded.
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

func actorOr(ctx context.Context, fallback string) string {
	if id := ActorFromContext(ctx); id != "" {
		return id
	}
	return fallback
}
