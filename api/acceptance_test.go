package api

import (
	"io"
	"log"
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/service"
)

func newTestRegistry() *registry.Registry {
	return registry.New(&registry.Config{
		BlockSize: 16,
		Logger:    log.New(io.Discard, "", 0),
	})
}

func buildTestApi(r *registry.Registry, metrics http.Handler) *apitest.Apitest {
	b := Build(service.NewService(r), "test", metrics)
	b.WithInterceptors(
		InterceptorUnavailable(r),
		RecoverFromPanic,
		PrettyErrorInterceptor,
	)
	return apitest.NewWithHandler(b)
}

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		r := newTestRegistry()
		biff.AssertEqual(r.GetStatus(), registry.StatusOperating)

		api := buildTestApi(r, nil)

		service.Acceptance(a, r, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})
	})
}

func TestInspector(t *testing.T) {

	biff.Alternative("Inspector", func(a *biff.A) {

		r := newTestRegistry()
		metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("metrics here"))
		})
		api := buildTestApi(r, metrics)

		a.Alternative("Release", func(a *biff.A) {
			resp := api.Request("GET", "/release").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJson(), "test")
		})

		a.Alternative("Metrics", func(a *biff.A) {
			resp := api.Request("GET", "/metrics").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyString(), "metrics here")
		})

		a.Alternative("OpenAPI", func(a *biff.A) {
			resp := api.Request("GET", "/openapi.json").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJson().(map[string]interface{})
			biff.AssertNotNil(body["paths"])
		})

		a.Alternative("Unknown resource", func(a *biff.A) {
			resp := api.Request("GET", "/v2/nothing").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Malformed find body", func(a *biff.A) {
			resp := api.Request("POST", "/v1/containers/api.Nothing:find").
				WithBodyString("{not json").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Closed registry", func(a *biff.A) {
			biff.AssertNil(r.Close())

			resp := api.Request("GET", "/v1/containers").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
			body := resp.BodyJson().(map[string]interface{})
			biff.AssertEqual(body["error"].(map[string]interface{})["message"], "temporary unavailable: closed")
		})
	})
}
