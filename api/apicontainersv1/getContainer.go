package apicontainersv1

import (
	"context"
	"fmt"

	"github.com/fulldump/box"

	"github.com/fulldump/hyperpool/service"
)

func getContainer(ctx context.Context) (*service.Container, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")

	container, err := GetServicer(ctx).GetContainer(typeName)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", typeName, err)
	}

	return container, nil
}
