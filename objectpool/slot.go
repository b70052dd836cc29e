package objectpool

import (
	"sync/atomic"
	"unsafe"
)

type slotState = uint32

const (
	slotEmpty slotState = iota
	slotAlive
)

// header is the per slot bookkeeping.
//
// pins counts the weak references plus one for the payload while it is
// constructed. The index goes back to the allocator when pins drops to zero,
// so a slot observed by weak handles is never reused under them.
type header struct {
	strong     atomic.Uint32
	weak       atomic.Uint32
	pins       atomic.Uint32
	generation atomic.Uint32
	state      atomic.Uint32
	index      uint32 // 0-based storage position
}

type slot[T any] struct {
	header
	object T
}

// block is a fixed array of slots. Blocks are never reallocated, which keeps
// every payload address stable for the life of the container.
type block[T any] struct {
	slots  []slot[T]
	first  uint32 // storage position of slots[0]
	base   uintptr
	end    uintptr
	stride uintptr
	offset uintptr // payload offset inside a slot
}

func newBlock[T any](first, size uint32) *block[T] {

	slots := make([]slot[T], size)
	for i := range slots {
		slots[i].index = first + uint32(i)
	}

	base := uintptr(unsafe.Pointer(&slots[0]))
	stride := unsafe.Sizeof(slots[0])

	return &block[T]{
		slots:  slots,
		first:  first,
		base:   base,
		end:    base + stride*uintptr(size),
		stride: stride,
		offset: uintptr(unsafe.Pointer(&slots[0].object)) - base,
	}
}

// locate returns the slot whose payload starts exactly at p.
func (b *block[T]) locate(p uintptr) (*slot[T], bool) {
	if p < b.base || p >= b.end {
		return nil, false
	}
	delta := p - b.base
	if delta%b.stride != b.offset {
		return nil, false
	}
	return &b.slots[delta/b.stride], true
}

func blockLess[T any](a, b *block[T]) bool {
	return a.base < b.base
}
