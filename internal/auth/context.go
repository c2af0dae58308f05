// Package auth carries the acting user through request contexts. Every
// ledger write is attributed to an actor, so handlers resolve one before
// reaching the facades.
package auth

import (
	"context"
	"fmt"

	"github.com/finmax/ledger/internal/ident"
)

type contextKey string

const actorIDKey contextKey = "actorID"

// ContextWithActorID returns a new context that carries the authenticated
// acting user.
func ContextWithActorID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorIDKey, id)
}

// ActorIDFromContext retrieves the acting user from the context, if any.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value := ctx.Value(actorIDKey)
	if value == nil {
		return "", false
	}
	id, ok := value.(string)
	if !ok || !ident.Valid(id) {
		return "", false
	}
	return id, true
}

// RequireActor returns the acting user or an error when the context carries
// none. Writes without an attributable actor are refused.
func RequireActor(ctx context.Context) (string, error) {
	id, ok := ActorIDFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("no acting user in request context")
	}
	return id, nil
}
