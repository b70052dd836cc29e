// Package handle provides the strong and weak references to pooled objects.
//
// Go has no copy constructors or destructors, so ownership is explicit:
// Clone takes a new strong reference, Move transfers one and Release drops
// it. A Handle must not be duplicated by plain assignment.
package handle

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fulldump/hyperpool/objectpool"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/typeid"
)

var ErrEmptyHandle = errors.New("empty handle")

// Ref is implemented by pointers to every handle type. Reflection code uses
// it to copy and drop handles stored in fields without knowing T.
type Ref interface {
	CloneRef() any
	ReleaseRef()
}

type Handle[T any] struct {
	container *objectpool.Container[T]
	index     uint32
}

// New creates an object in the process wide registry.
func New[T any](init func(*T)) Handle[T] {
	return Create[T](registry.Default(), init)
}

func Create[T any](r *registry.Registry, init func(*T)) Handle[T] {
	c := registry.ContainerFor[T](r)
	return Handle[T]{
		container: c,
		index:     c.Construct(init),
	}
}

// FromIndex takes a new strong reference to a live index. Index 0 gives an
// empty handle.
func FromIndex[T any](r *registry.Registry, index uint32) Handle[T] {
	if index == 0 {
		return Handle[T]{}
	}
	c := registry.ContainerFor[T](r)
	c.IncRefStrong(index)
	return Handle[T]{
		container: c,
		index:     index,
	}
}

// Adopt wraps a strong reference already counted by the caller.
func Adopt[T any](c *objectpool.Container[T], index uint32) Handle[T] {
	if index == 0 {
		return Handle[T]{}
	}
	return Handle[T]{
		container: c,
		index:     index,
	}
}

func (h Handle[T]) IsValid() bool {
	return h.index != 0
}

func (h Handle[T]) Index() uint32 {
	return h.index
}

func (h Handle[T]) TypeID() typeid.TypeID {
	return typeid.Of[T]()
}

func (h Handle[T]) Container() *objectpool.Container[T] {
	return h.container
}

// Get dereferences the handle. Dereferencing an empty handle is a bug.
func (h Handle[T]) Get() *T {
	if h.index == 0 {
		panic(fmt.Errorf("handle %s: %w", h.typeName(), ErrEmptyHandle))
	}
	return h.container.GetObjectPointer(h.index)
}

func (h Handle[T]) TryGet() (*T, bool) {
	if h.index == 0 {
		return nil, false
	}
	return h.container.GetObjectPointer(h.index), true
}

func (h Handle[T]) Clone() Handle[T] {
	if h.index != 0 {
		h.container.IncRefStrong(h.index)
	}
	return h
}

func (h *Handle[T]) CloneRef() any {
	return h.Clone()
}

func (h *Handle[T]) ReleaseRef() {
	h.Release()
}

// Move returns the reference held by h and leaves h empty.
func (h *Handle[T]) Move() Handle[T] {
	moved := *h
	*h = Handle[T]{}
	return moved
}

// Release drops the reference. The last release destroys the object.
func (h *Handle[T]) Release() {
	if h.index == 0 {
		return
	}
	h.container.DecRefStrong(h.index)
	*h = Handle[T]{}
}

func (h Handle[T]) StrongCount() uint32 {
	if h.index == 0 {
		return 0
	}
	return h.container.StrongCount(h.index)
}

func (h Handle[T]) Weak() WeakHandle[T] {
	if h.index == 0 {
		return WeakHandle[T]{}
	}
	h.container.IncRefWeak(h.index)
	return WeakHandle[T]{
		container:  h.container,
		index:      h.index,
		generation: h.container.Generation(h.index),
	}
}

// Any returns a new type-erased strong reference to the same object.
func (h Handle[T]) Any() AnyHandle {
	if h.index == 0 {
		return AnyHandle{}
	}
	h.container.IncRefStrong(h.index)
	return AnyHandle{
		container: h.container,
		index:     h.index,
	}
}

func (h Handle[T]) Equal(other Handle[T]) bool {
	return h.container == other.container && h.index == other.index
}

func (h Handle[T]) String() string {
	return fmt.Sprintf("Handle<%s>(%d)", h.typeName(), h.index)
}

// MarshalJSON writes the slot index, 0 for empty handles.
func (h Handle[T]) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(h.index), 10), nil
}

func (h Handle[T]) typeName() string {
	if h.container != nil {
		return h.container.TypeName()
	}
	name, _ := typeid.Name(typeid.Of[T]())
	return name
}
