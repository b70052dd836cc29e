package apicontainersv1

import (
	"context"

	"github.com/fulldump/hyperpool/service"
)

type contextKey string

const ContextServicerKey contextKey = "8a4d5c3e-7b2f-11ef-9c1a-3f6e2d1b0a94"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}
