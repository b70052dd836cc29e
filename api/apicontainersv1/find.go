package apicontainersv1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/hyperpool/service"
)

const DefaultFindLimit = 100

// find streams one JSON snapshot per line. A negative limit returns every
// match.
func find(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	query := &service.Query{
		Filter: map[string]interface{}{},
		Limit:  DefaultFindLimit,
	}
	err := json.NewDecoder(r.Body).Decode(query)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	typeName := box.GetUrlParameter(ctx, "typeName")
	e := json.NewEncoder(w)

	return GetServicer(ctx).FindObjects(typeName, query, func(object *service.Object) bool {
		return e.Encode(object) == nil
	})
}
