package handle

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/fulldump/hyperpool/objectpool"
	"github.com/fulldump/hyperpool/typeid"
)

// AnyHandle is a strong reference that only knows the type identifier of its
// object. Reflection and interop code build on it.
type AnyHandle struct {
	container objectpool.ObjectContainer
	index     uint32
}

// NewAny takes a new strong reference to a live index of c.
func NewAny(c objectpool.ObjectContainer, index uint32) AnyHandle {
	if index == 0 {
		return AnyHandle{}
	}
	c.IncRefStrong(index)
	return AnyHandle{container: c, index: index}
}

// AdoptAny wraps a strong reference already counted by the caller.
func AdoptAny(c objectpool.ObjectContainer, index uint32) AnyHandle {
	if index == 0 {
		return AnyHandle{}
	}
	return AnyHandle{container: c, index: index}
}

func (h AnyHandle) IsValid() bool {
	return h.index != 0
}

func (h AnyHandle) Index() uint32 {
	return h.index
}

func (h AnyHandle) TypeID() typeid.TypeID {
	if h.container == nil {
		return typeid.Invalid
	}
	return h.container.TypeID()
}

func (h AnyHandle) Container() objectpool.ObjectContainer {
	return h.container
}

// Value returns the payload as a pointer to its concrete type.
func (h AnyHandle) Value() any {
	if h.index == 0 {
		panic(fmt.Errorf("any handle: %w", ErrEmptyHandle))
	}
	return h.container.Value(h.index)
}

func (h AnyHandle) Pointer() unsafe.Pointer {
	if h.index == 0 {
		panic(fmt.Errorf("any handle: %w", ErrEmptyHandle))
	}
	return h.container.Pointer(h.index)
}

func (h AnyHandle) Clone() AnyHandle {
	if h.index != 0 {
		h.container.IncRefStrong(h.index)
	}
	return h
}

func (h *AnyHandle) CloneRef() any {
	return h.Clone()
}

func (h *AnyHandle) ReleaseRef() {
	h.Release()
}

func (h *AnyHandle) Move() AnyHandle {
	moved := *h
	*h = AnyHandle{}
	return moved
}

func (h *AnyHandle) Release() {
	if h.index == 0 {
		return
	}
	h.container.DecRefStrong(h.index)
	*h = AnyHandle{}
}

func (h AnyHandle) String() string {
	if h.container == nil {
		return "AnyHandle(0)"
	}
	return fmt.Sprintf("AnyHandle<%s>(%d)", h.container.TypeName(), h.index)
}

// To converts h into a typed handle holding its own strong reference.
func To[T any](h AnyHandle) (Handle[T], bool) {
	if h.index == 0 {
		return Handle[T]{}, false
	}
	c, ok := h.container.(*objectpool.Container[T])
	if !ok {
		return Handle[T]{}, false
	}
	c.IncRefStrong(h.index)
	return Handle[T]{container: c, index: h.index}, true
}

// MarshalJSON writes the slot index, 0 for empty handles.
func (h AnyHandle) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(h.index), 10), nil
}
