package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/hyperpool/api/apicontainersv1"
	"github.com/fulldump/hyperpool/service"
)

// Build mounts the inspector. metrics is optional.
func Build(s service.Servicer, version string, metrics http.Handler) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		injectServicer(s),
	)
	apicontainersv1.BuildV1Containers(v1)

	if metrics != nil {
		b.Resource("/metrics").
			WithActions(
				box.Get(metrics.ServeHTTP).WithName("metrics"),
			)
	}

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}))

	openapi := boxopenapi.Spec(b)
	openapi.Info.Title = "Hyperpool inspector"
	openapi.Info.Description = "Read only view over the live object containers of a process."
	b.Resource("/openapi.json").
		WithActions(box.Get(func(r *http.Request) any {
			o := openapi
			o.Servers = []boxopenapi.Server{
				{
					Url: "http://" + r.Host,
				},
			}
			return o
		}))

	b.Resource("/*").
		WithActions(box.AnyMethod(func(ctx context.Context) error {
			return box.ErrResourceNotFound
		}))

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apicontainersv1.SetServicer(ctx, s))
		}
	}
}
