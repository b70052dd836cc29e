// Package registry maps type identifiers to their object containers. A single
// mutex guards the whole map: lookups happen when handles are created, never
// on reference counting, so it is not contended.
package registry

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fulldump/hyperpool/objectpool"
	"github.com/fulldump/hyperpool/typeid"
)

const (
	StatusOperating = "operating"
	StatusClosing   = "closing"
	StatusClosed    = "closed"
)

var (
	ErrTypeNotRegistered = errors.New("type not registered")
	ErrRegistryClosed    = errors.New("registry is closed")
)

type Config struct {
	BlockSize  int
	LeakPolicy objectpool.LeakPolicy
	Logger     *log.Logger
}

type Registry struct {
	ID     string
	config *Config
	logger *log.Logger

	mutex      sync.Mutex
	status     string
	containers map[typeid.TypeID]objectpool.ObjectContainer
	order      []typeid.TypeID // registration order
}

type Entry struct {
	ID        typeid.TypeID
	Name      string
	Container objectpool.ObjectContainer
}

func New(config *Config) *Registry {

	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "REGISTRY: ", log.Lshortfile)
	}

	return &Registry{
		ID:         uuid.New().String(),
		config:     config,
		logger:     logger,
		status:     StatusOperating,
		containers: map[typeid.TypeID]objectpool.ObjectContainer{},
	}
}

var (
	defaultMutex    sync.Mutex
	defaultRegistry *Registry
)

// Default returns the process wide registry.
func Default() *Registry {
	defaultMutex.Lock()
	defer defaultMutex.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = New(nil)
	}
	return defaultRegistry
}

// Shutdown closes the process wide registry, if it was ever used.
func Shutdown() error {
	defaultMutex.Lock()
	r := defaultRegistry
	defaultMutex.Unlock()

	if r == nil {
		return nil
	}
	return r.Close()
}

func (r *Registry) GetStatus() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.status
}

// GetOrCreate returns the container for id, calling factory the first time.
// A factory returning nil leaves the entry empty so the next call retries.
func (r *Registry) GetOrCreate(id typeid.TypeID, factory func() objectpool.ObjectContainer) objectpool.ObjectContainer {

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.status != StatusOperating {
		panic(fmt.Errorf("registry %s: %w", r.ID, ErrRegistryClosed))
	}

	container, exists := r.containers[id]
	if exists && container != nil {
		return container
	}

	container = factory()
	if !exists {
		r.order = append(r.order, id)
	}
	r.containers[id] = container

	return container
}

// Get is for types that must have been registered already. Absence is a bug.
func (r *Registry) Get(id typeid.TypeID) objectpool.ObjectContainer {
	container, ok := r.TryGet(id)
	if !ok {
		panic(fmt.Errorf("registry %s: %w: %s", r.ID, ErrTypeNotRegistered, id))
	}
	return container
}

func (r *Registry) TryGet(id typeid.TypeID) (objectpool.ObjectContainer, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	container := r.containers[id]
	return container, container != nil
}

// List returns the registered containers sorted by type name.
func (r *Registry) List() []Entry {

	r.mutex.Lock()
	result := make([]Entry, 0, len(r.containers))
	for id, container := range r.containers {
		if container == nil {
			continue
		}
		result = append(result, Entry{
			ID:        id,
			Name:      container.TypeName(),
			Container: container,
		})
	}
	r.mutex.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Close destroys every container in reverse registration order. Containers
// are closed outside the registry lock because teardown may run destructors
// and log.
func (r *Registry) Close() error {

	r.mutex.Lock()
	if r.status != StatusOperating {
		r.mutex.Unlock()
		return nil
	}
	r.status = StatusClosing
	closing := make([]objectpool.ObjectContainer, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if container := r.containers[r.order[i]]; container != nil {
			closing = append(closing, container)
		}
	}
	r.mutex.Unlock()

	var errs []error
	for _, container := range closing {
		err := container.Close()
		if err != nil {
			r.logger.Printf("ERROR: registry %s: close %s: %s\n", r.ID, container.TypeName(), err.Error())
			errs = append(errs, err)
		}
	}

	r.mutex.Lock()
	r.status = StatusClosed
	r.containers = map[typeid.TypeID]objectpool.ObjectContainer{}
	r.order = nil
	r.mutex.Unlock()

	return errors.Join(errs...)
}

// Factory builds containers for T with the registry settings.
func Factory[T any](r *Registry) func() objectpool.ObjectContainer {
	return func() objectpool.ObjectContainer {
		return objectpool.NewContainer[T](&objectpool.ContainerOptions[T]{
			BlockSize:  r.config.BlockSize,
			LeakPolicy: r.config.LeakPolicy,
			Logger:     r.config.Logger,
		})
	}
}

// ContainerFor returns the typed container for T, creating it on first use.
func ContainerFor[T any](r *Registry) *objectpool.Container[T] {
	container := r.GetOrCreate(typeid.Of[T](), Factory[T](r))
	typed, ok := container.(*objectpool.Container[T])
	if !ok {
		panic(fmt.Sprintf("registry %s: container for %s has type %T", r.ID, typeid.Of[T](), container))
	}
	return typed
}
