package handle

import (
	"fmt"
	"strconv"

	"github.com/fulldump/hyperpool/objectpool"
)

// WeakHandle observes an object without keeping it alive. It keeps the slot
// reserved, so Lock never returns an unrelated object that reused the index.
type WeakHandle[T any] struct {
	container  *objectpool.Container[T]
	index      uint32
	generation uint32
}

// Lock returns a strong handle if the object is still alive, otherwise an
// empty one.
func (w WeakHandle[T]) Lock() Handle[T] {
	if w.index == 0 {
		return Handle[T]{}
	}
	if !w.container.TryIncRefStrong(w.index, w.generation) {
		return Handle[T]{}
	}
	return Handle[T]{
		container: w.container,
		index:     w.index,
	}
}

func (w WeakHandle[T]) IsValid() bool {
	return w.index != 0
}

func (w WeakHandle[T]) IsAlive() bool {
	if w.index == 0 {
		return false
	}
	return w.container.StrongCount(w.index) > 0 && w.container.Generation(w.index) == w.generation
}

func (w WeakHandle[T]) Index() uint32 {
	return w.index
}

func (w WeakHandle[T]) Clone() WeakHandle[T] {
	if w.index != 0 {
		w.container.IncRefWeak(w.index)
	}
	return w
}

func (w *WeakHandle[T]) CloneRef() any {
	return w.Clone()
}

func (w *WeakHandle[T]) ReleaseRef() {
	w.Release()
}

func (w *WeakHandle[T]) Move() WeakHandle[T] {
	moved := *w
	*w = WeakHandle[T]{}
	return moved
}

func (w *WeakHandle[T]) Release() {
	if w.index == 0 {
		return
	}
	w.container.DecRefWeak(w.index)
	*w = WeakHandle[T]{}
}

func (w WeakHandle[T]) String() string {
	name := ""
	if w.container != nil {
		name = w.container.TypeName()
	}
	return fmt.Sprintf("WeakHandle<%s>(%d)", name, w.index)
}

// MarshalJSON writes the slot index, 0 for empty handles.
func (w WeakHandle[T]) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(w.index), 10), nil
}
