package metrics

import (
	"io"
	"log"
	"net/http"
	"strings"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/hyperpool/handle"
	"github.com/fulldump/hyperpool/registry"
)

type gauge struct {
	Value int
}

func TestHandler(t *testing.T) {

	biff.Alternative("Metrics", func(a *biff.A) {

		r := registry.New(&registry.Config{
			BlockSize: 8,
			Logger:    log.New(io.Discard, "", 0),
		})
		api := apitest.NewWithHandler(Handler(r))

		a.Alternative("Empty registry", func(a *biff.A) {
			resp := api.Request("GET", "/metrics").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			body := resp.BodyString()
			biff.AssertTrue(strings.Contains(body, `hyperpool_registry_containers{registry="`+r.ID+`"} 0`))
			biff.AssertFalse(strings.Contains(body, "hyperpool_container_live_objects{"))
		})

		a.Alternative("Live objects", func(a *biff.A) {
			h1 := handle.Create(r, func(g *gauge) { g.Value = 1 })
			h2 := handle.Create(r, func(g *gauge) { g.Value = 2 })
			h3 := handle.Create(r, func(g *gauge) { g.Value = 3 })
			h2.Release()

			resp := api.Request("GET", "/metrics").Do()
			body := resp.BodyString()

			labels := `{registry="` + r.ID + `",type="metrics.gauge"}`
			biff.AssertTrue(strings.Contains(body, `hyperpool_registry_containers{registry="`+r.ID+`"} 1`))
			biff.AssertTrue(strings.Contains(body, "hyperpool_container_live_objects"+labels+" 2"))
			biff.AssertTrue(strings.Contains(body, "hyperpool_container_capacity_slots"+labels+" 8"))
			biff.AssertTrue(strings.Contains(body, "hyperpool_container_allocated_indices"+labels+" 3"))
			biff.AssertTrue(strings.Contains(body, "hyperpool_container_free_indices"+labels+" 1"))
			biff.AssertTrue(strings.Contains(body, "hyperpool_container_blocks"+labels+" 1"))
			biff.AssertTrue(strings.Contains(body, "go_goroutines"))

			h1.Release()
			h3.Release()
		})
	})
}
