// Package indexallocator hands out reusable 1-based slot indices for a single
// object container. Index 0 is never issued: handles use it as the empty
// sentinel.
package indexallocator

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

type IndexAllocator struct {
	counter   atomic.Uint32 // highest index ever issued, 0 = none
	freeCount atomic.Uint32

	mutex sync.Mutex
	free  *bitset.BitSet // bit i means index i+1 is free
	top   int            // highest word of free that may hold a set bit
}

func New() *IndexAllocator {
	return &IndexAllocator{
		free: bitset.New(0),
	}
}

// Next returns a free index, reusing released ones before growing.
//
// The free count is read first so the common path (no churn) never takes
// the mutex. It is read again under the mutex because a concurrent Next may
// have consumed the last free index in between.
func (a *IndexAllocator) Next() uint32 {

	if a.freeCount.Load() > 0 {
		a.mutex.Lock()
		if a.freeCount.Load() > 0 {
			bit, ok := a.popHighest()
			if ok {
				a.freeCount.Add(^uint32(0))
				a.mutex.Unlock()
				return uint32(bit) + 1
			}
		}
		a.mutex.Unlock()
	}

	index := a.counter.Add(1)
	if index == 0 {
		panic("indexallocator: index space exhausted")
	}
	return index
}

// Release returns index to the free set. Releasing 0, an index that was never
// issued or an index that is already free is a programmer error and panics.
func (a *IndexAllocator) Release(index uint32) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if index == 0 {
		panic("indexallocator: release of index 0")
	}
	if index > a.counter.Load() {
		panic(fmt.Sprintf("indexallocator: release of index %d never issued", index))
	}

	bit := uint(index - 1)
	if a.free.Test(bit) {
		panic(fmt.Sprintf("indexallocator: double release of index %d", index))
	}

	a.free.Set(bit)
	if word := int(bit / 64); word > a.top {
		a.top = word
	}
	a.freeCount.Add(1)
}

// Reset forgets every issued index. Only valid when no index is outstanding.
func (a *IndexAllocator) Reset() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.free.ClearAll()
	a.top = 0
	a.freeCount.Store(0)
	a.counter.Store(0)
}

// Count is the highest index ever issued.
func (a *IndexAllocator) Count() uint32 {
	return a.counter.Load()
}

func (a *IndexAllocator) FreeCount() uint32 {
	return a.freeCount.Load()
}

// Outstanding is the number of indices issued and not released.
func (a *IndexAllocator) Outstanding() uint32 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.counter.Load() - a.freeCount.Load()
}

// IsFree reports whether index has been released and not issued again.
func (a *IndexAllocator) IsFree(index uint32) bool {
	if index == 0 {
		return false
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.free.Test(uint(index - 1))
}

// popHighest clears and returns the highest set bit. Must hold the mutex.
func (a *IndexAllocator) popHighest() (uint, bool) {
	words := a.free.Bytes()
	if a.top >= len(words) {
		a.top = len(words) - 1
	}
	for ; a.top >= 0; a.top-- {
		w := words[a.top]
		if w == 0 {
			continue
		}
		bit := uint(a.top)*64 + uint(63-bits.LeadingZeros64(w))
		a.free.Clear(bit)
		return bit, true
	}
	a.top = 0
	return 0, false
}
