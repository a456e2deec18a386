package types

import (
	"context"
)

// ContextKey namespaces the values this module stores in a context
type ContextKey string

const (
	CtxRequestID     ContextKey = "request_id"
	CtxTenantID      ContextKey = "tenant_id"
	CtxActor         ContextKey = "actor"
	CtxDBTransaction ContextKey = "db_transaction"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderActor     = "X-Actor"

	// ActorSystem is recorded on rows written by scheduled jobs and other
	// calls that carry no caller identity
	ActorSystem = "system"
)

func stringFromContext(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

func GetRequestID(ctx context.Context) string {
	return stringFromContext(ctx, CtxRequestID)
}

func GetTenantID(ctx context.Context) string {
	return stringFromContext(ctx, CtxTenantID)
}

// GetActor returns who is performing the write, ActorSystem when unknown
func GetActor(ctx context.Context) string {
	if actor := stringFromContext(ctx, CtxActor); actor != "" {
		return actor
	}
	return ActorSystem
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, CtxTenantID, tenantID)
}

func SetActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, CtxActor, actor)
}
