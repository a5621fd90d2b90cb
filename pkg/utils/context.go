package utils

import (
	"context"
)

type contextKey string

const (
	ActorIDKey contextKey = "actor_id"
	RoleKey    contextKey = "role"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

func GetActorIDFromContext(ctx context.Context) (string, bool) {
	actorVal := ctx.Value(ActorIDKey)
	if actorVal == nil {
		return "", false
	}

	actorID, ok := actorVal.(string)
	if !ok || actorID == "" {
		return "", false
	}

	return actorID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	roleVal := ctx.Value(RoleKey)
	if roleVal == nil {
		return "", false
	}

	role, ok := roleVal.(string)
	return role, ok
}

// SetActorContext stores who is calling. The gateway in front of this
// service authenticates the caller and forwards the identity as headers.
func SetActorContext(ctx context.Context, actorID, role string) context.Context {
	ctx = context.WithValue(ctx, ActorIDKey, actorID)
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}
