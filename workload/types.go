package workload

import (
	"github.com/fulldump/hyperpool/handle"
	"github.com/fulldump/hyperpool/typedesc"
)

type Texture struct {
	Name   string
	Width  int
	Height int
	Format string
}

type Material struct {
	Name      string
	Roughness float64
	Albedo    handle.Handle[Texture]
}

func (m *Material) Destroy() {
	m.Albedo.Release()
}

type Mesh struct {
	Name     string
	Vertices int
	Material handle.Handle[Material]
}

func (m *Mesh) Destroy() {
	m.Material.Release()
}

// RegisterTypes describes the demo types so they can be inspected by name.
func RegisterTypes() {
	typedesc.Register[Texture]()
	typedesc.Register[Material]()
	typedesc.Register[Mesh]()
}
