package apicontainersv1

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fulldump/box"

	"github.com/fulldump/hyperpool/service"
)

var ErrInvalidIndex = errors.New("invalid object index")

func getObject(ctx context.Context) (*service.Object, error) {

	typeName := box.GetUrlParameter(ctx, "typeName")
	rawIndex := box.GetUrlParameter(ctx, "index")

	index, err := strconv.ParseUint(rawIndex, 10, 32)
	if err != nil || index == 0 {
		return nil, fmt.Errorf("'%s': %w", rawIndex, ErrInvalidIndex)
	}

	return GetServicer(ctx).GetObject(typeName, uint32(index))
}
