// Package workload keeps a registry busy with a synthetic mix of creations,
// clones, weak locks and releases spread over several goroutines.
package workload

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fulldump/hyperpool/handle"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/typedesc"
)

const sharedTextures = 8

type Config struct {
	Workers int
	Objects int // meshes kept alive by each worker
	Churn   time.Duration
	Seed    uint64
	Logger  *log.Logger
}

type Stats struct {
	Created      uint64 `json:"created"`
	Released     uint64 `json:"released"`
	Locked       uint64 `json:"locked"`
	LockFailures uint64 `json:"lock_failures"`
}

type Workload struct {
	registry *registry.Registry
	config   *Config
	logger   *log.Logger

	exit     chan struct{}
	stopOnce sync.Once

	created      atomic.Uint64
	released     atomic.Uint64
	locked       atomic.Uint64
	lockFailures atomic.Uint64
}

func New(r *registry.Registry, config *Config) *Workload {

	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "WORKLOAD: ", log.Lshortfile)
	}

	return &Workload{
		registry: r,
		config:   config,
		logger:   logger,
		exit:     make(chan struct{}),
	}
}

// Start blocks until Stop is called. Every handle taken by the workload is
// released before it returns.
func (w *Workload) Start() error {

	RegisterTypes()

	textures := make([]handle.Handle[Texture], sharedTextures)
	for i := range textures {
		textures[i] = handle.Create(w.registry, func(t *Texture) {
			t.Name = fmt.Sprintf("texture-%d", i)
			t.Width = 256 << (i % 4)
			t.Height = t.Width
			t.Format = "rgba8"
		})
	}

	w.logger.Printf("starting %d workers with %d objects each\n", w.config.Workers, w.config.Objects)

	wg := &sync.WaitGroup{}
	for id := 0; id < w.config.Workers; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.worker(id, textures)
		}()
	}

	<-w.exit
	wg.Wait()

	for i := range textures {
		textures[i].Release()
	}

	stats := w.Stats()
	w.logger.Printf("stopped: created=%d released=%d locked=%d lock_failures=%d\n",
		stats.Created, stats.Released, stats.Locked, stats.LockFailures)

	return nil
}

func (w *Workload) Stop() {
	w.stopOnce.Do(func() {
		close(w.exit)
	})
}

func (w *Workload) Stats() Stats {
	return Stats{
		Created:      w.created.Load(),
		Released:     w.released.Load(),
		Locked:       w.locked.Load(),
		LockFailures: w.lockFailures.Load(),
	}
}

type worker struct {
	*Workload
	rnd       *rand.Rand
	textures  []handle.Handle[Texture]
	meshes    []handle.Handle[Mesh]
	materials []handle.WeakHandle[Material]
	material  *typedesc.Descriptor
}

func (w *Workload) worker(id int, textures []handle.Handle[Texture]) {

	wk := &worker{
		Workload: w,
		rnd:      rand.New(rand.NewPCG(w.config.Seed, uint64(id))),
		textures: textures,
		material: typedesc.Register[Material](),
	}
	defer wk.releaseAll()

	for {
		select {
		case <-w.exit:
			return
		default:
		}

		wk.step()

		if w.config.Churn > 0 {
			select {
			case <-w.exit:
				return
			case <-time.After(w.config.Churn):
			}
		}
	}
}

func (wk *worker) step() {

	if len(wk.meshes) > 0 && len(wk.meshes) >= wk.config.Objects {
		i := wk.rnd.IntN(len(wk.meshes))
		wk.meshes[i].Release()
		wk.meshes[i] = wk.meshes[len(wk.meshes)-1]
		wk.meshes = wk.meshes[:len(wk.meshes)-1]
		wk.released.Add(1)
		return
	}

	if wk.config.Objects == 0 {
		return
	}

	material := wk.nextMaterial()
	mesh := handle.Create(wk.registry, func(m *Mesh) {
		m.Name = fmt.Sprintf("mesh-%d", wk.rnd.Uint32())
		m.Vertices = 3 + wk.rnd.IntN(10000)
		m.Material = material.Move()
	})
	wk.meshes = append(wk.meshes, mesh)
	wk.created.Add(1)
}

// nextMaterial reuses a material seen before when it is still alive.
func (wk *worker) nextMaterial() handle.Handle[Material] {

	if len(wk.materials) > 0 && wk.rnd.IntN(2) == 0 {
		i := wk.rnd.IntN(len(wk.materials))
		locked := wk.materials[i].Lock()
		if locked.IsValid() {
			wk.locked.Add(1)
			return locked
		}
		wk.lockFailures.Add(1)
		wk.materials[i].Release()
		wk.materials[i] = wk.materials[len(wk.materials)-1]
		wk.materials = wk.materials[:len(wk.materials)-1]
	}

	texture := wk.textures[wk.rnd.IntN(len(wk.textures))]
	material := handle.Create(wk.registry, func(m *Material) {
		m.Name = fmt.Sprintf("material-%d", wk.rnd.Uint32())
		m.Albedo = texture.Clone()
	})
	wk.created.Add(1)

	erased := material.Any()
	err := wk.material.SetProperty(erased, "Roughness", wk.rnd.Float64())
	if err != nil {
		wk.logger.Println("ERROR:", err.Error())
	}
	erased.Release()

	if len(wk.materials) >= wk.config.Objects {
		wk.materials[0].Release()
		wk.materials = wk.materials[1:]
	}
	wk.materials = append(wk.materials, material.Weak())

	return material
}

func (wk *worker) releaseAll() {
	for i := range wk.meshes {
		wk.meshes[i].Release()
	}
	wk.released.Add(uint64(len(wk.meshes)))
	wk.meshes = nil

	for i := range wk.materials {
		wk.materials[i].Release()
	}
	wk.materials = nil
}
