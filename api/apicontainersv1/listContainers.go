package apicontainersv1

import (
	"context"

	"github.com/fulldump/hyperpool/service"
)

func listContainers(ctx context.Context) []*service.Container {
	return GetServicer(ctx).ListContainers()
}
