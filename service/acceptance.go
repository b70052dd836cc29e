package service

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/hyperpool/handle"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/typedesc"
)

type JSON = map[string]interface{}

// Probe is the object type the acceptance scenarios populate the registry
// with.
type Probe struct {
	Name string
	Size int
}

func Acceptance(a *biff.A, r *registry.Registry, apiRequest func(method, path string) *apitest.Request) {

	typedesc.Register[Probe]()

	a.Alternative("Empty registry", func(a *biff.A) {
		resp := apiRequest("GET", "/registry").Do()
		Save(resp, "Retrieve registry", `
			Registry identifier, status and every container registered so far.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body := resp.BodyJson().(JSON)
		biff.AssertEqual(body["id"], r.ID)
		biff.AssertEqual(body["status"], registry.StatusOperating)
		biff.AssertEqualJson(body["containers"], []JSON{})

		a.Alternative("Unknown container", func(a *biff.A) {
			resp := apiRequest("GET", "/containers/service.Probe").Do()
			Save(resp, "Retrieve container - not found", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})
	})

	a.Alternative("Populated registry", func(a *biff.A) {

		first := handle.Create(r, func(p *Probe) { p.Name, p.Size = "first", 1 })
		second := handle.Create(r, func(p *Probe) { p.Name, p.Size = "second", 2 })
		third := handle.Create(r, func(p *Probe) { p.Name, p.Size = "third", 2 })
		weak := second.Weak()

		expectedContainer := JSON{
			"name":       "service.Probe",
			"type_id":    first.TypeID().String(),
			"properties": []string{"Name", "Size"},
			"live":       3,
			"capacity":   first.Container().Stats().Capacity,
			"allocated":  3,
			"free":       0,
			"blocks":     1,
			"block_size": first.Container().Stats().BlockSize,
		}

		a.Alternative("List containers", func(a *biff.A) {
			resp := apiRequest("GET", "/containers").Do()
			Save(resp, "List containers", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{expectedContainer})
		})

		a.Alternative("Retrieve container", func(a *biff.A) {
			resp := apiRequest("GET", "/containers/service.Probe").Do()
			Save(resp, "Retrieve container", `
				Slot usage of one container. The type name is the Go type
				qualified with its package name.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), expectedContainer)
		})

		a.Alternative("Retrieve object", func(a *biff.A) {
			resp := apiRequest("GET", "/containers/service.Probe/objects/2").Do()
			Save(resp, "Retrieve object", `
				Snapshot of a live object with its reference counts.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"index":      2,
				"generation": 0,
				"strong":     1,
				"weak":       1,
				"value": JSON{
					"Name": "second",
					"Size": 2,
				},
			})

			a.Alternative("Retrieve released object", func(a *biff.A) {
				second.Release()

				resp := apiRequest("GET", "/containers/service.Probe/objects/2").Do()
				Save(resp, "Retrieve object - not alive", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				biff.AssertFalse(weak.Lock().IsValid())
			})
		})

		a.Alternative("Retrieve object out of range", func(a *biff.A) {
			resp := apiRequest("GET", "/containers/service.Probe/objects/100000").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Retrieve object with invalid index", func(a *biff.A) {
			resp := apiRequest("GET", "/containers/service.Probe/objects/zero").Do()
			Save(resp, "Retrieve object - invalid index", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Find all", func(a *biff.A) {
			resp := apiRequest("POST", "/containers/service.Probe:find").
				WithBodyJson(JSON{}).Do()
			Save(resp, "Find objects", `
				Streams one object per line in index order.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(len(readLines(resp.BodyString())), 3)
		})

		a.Alternative("Find with filter", func(a *biff.A) {
			resp := apiRequest("POST", "/containers/service.Probe:find").
				WithBodyJson(JSON{
					"filter": JSON{
						"Size": 2,
					},
				}).Do()
			Save(resp, "Find objects - filter", `
				Filters follow the MongoDB query syntax over the object snapshot.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			lines := readLines(resp.BodyString())
			biff.AssertEqual(len(lines), 2)
			biff.AssertEqualJson(lines[0]["value"], JSON{"Name": "second", "Size": 2})
			biff.AssertEqualJson(lines[1]["value"], JSON{"Name": "third", "Size": 2})
		})

		a.Alternative("Find with skip and limit", func(a *biff.A) {
			resp := apiRequest("POST", "/containers/service.Probe:find").
				WithBodyJson(JSON{
					"skip":  1,
					"limit": 1,
				}).Do()
			Save(resp, "Find objects - skip and limit", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			lines := readLines(resp.BodyString())
			biff.AssertEqual(len(lines), 1)
			biff.AssertEqualJson(lines[0]["index"], 2)
		})

		a.Alternative("Find in unknown container", func(a *biff.A) {
			resp := apiRequest("POST", "/containers/service.Nothing:find").
				WithBodyJson(JSON{}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Registry with containers", func(a *biff.A) {
			resp := apiRequest("GET", "/registry").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson().(JSON)["containers"], []JSON{expectedContainer})
		})

		weak.Release()
		first.Release()
		second.Release()
		third.Release()
	})
}

func readLines(body string) []JSON {
	result := []JSON{}
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item := JSON{}
		json.Unmarshal([]byte(line), &item)
		result = append(result, item)
	}
	return result
}
