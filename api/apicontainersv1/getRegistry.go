package apicontainersv1

import (
	"context"

	"github.com/fulldump/hyperpool/service"
)

func getRegistry(ctx context.Context) *service.Registry {
	return GetServicer(ctx).GetRegistry()
}
