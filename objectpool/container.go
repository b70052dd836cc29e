// Package objectpool stores every live instance of one Go type in
// pointer-stable slots with intrusive strong and weak reference counts.
package objectpool

import (
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/google/btree"

	"github.com/fulldump/hyperpool/indexallocator"
	"github.com/fulldump/hyperpool/typeid"
)

const DefaultBlockSize = 1024

var ErrLeakedObjects = errors.New("leaked objects")

type LeakPolicy string

const (
	LeakLog   LeakPolicy = "log"
	LeakPanic LeakPolicy = "panic"
)

type ContainerOptions[T any] struct {
	BlockSize  int
	Destructor func(*T) // takes precedence over Destroyer
	Logger     *log.Logger
	LeakPolicy LeakPolicy
}

type Container[T any] struct {
	typeID     typeid.TypeID
	typeName   string
	blockSize  uint32
	destructor func(*T)
	logger     *log.Logger
	leakPolicy LeakPolicy

	allocator *indexallocator.IndexAllocator

	blocks      atomic.Pointer[[]*block[T]]
	capacity    atomic.Uint32
	blocksMutex sync.RWMutex // growth (write) and address lookups (read)
	addresses   *btree.BTreeG[*block[T]]

	live   atomic.Int64
	closed atomic.Bool
}

func NewContainer[T any](options *ContainerOptions[T]) *Container[T] {

	if options == nil {
		options = &ContainerOptions[T]{}
	}

	blockSize := options.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	logger := options.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "OBJECTPOOL: ", log.Lshortfile)
	}

	leakPolicy := options.LeakPolicy
	if leakPolicy == "" {
		leakPolicy = LeakLog
	}

	c := &Container[T]{
		typeID:     typeid.Of[T](),
		typeName:   reflect.TypeFor[T]().String(),
		blockSize:  uint32(blockSize),
		destructor: options.Destructor,
		logger:     logger,
		leakPolicy: leakPolicy,
		allocator:  indexallocator.New(),
		addresses:  btree.NewG(8, blockLess[T]),
	}
	c.blocks.Store(&[]*block[T]{})

	return c
}

func (c *Container[T]) TypeID() typeid.TypeID {
	return c.typeID
}

func (c *Container[T]) TypeName() string {
	return c.typeName
}

func (c *Container[T]) NextIndex() uint32 {
	if c.closed.Load() {
		panic(fmt.Sprintf("objectpool: %s: container is closed", c.typeName))
	}
	index := c.allocator.Next()
	c.grow(index)
	return index
}

func (c *Container[T]) grow(index uint32) {

	if index <= c.capacity.Load() {
		return
	}

	c.blocksMutex.Lock()
	defer c.blocksMutex.Unlock()

	for c.capacity.Load() < index {
		current := *c.blocks.Load()
		first := uint32(len(current)) * c.blockSize
		b := newBlock[T](first, c.blockSize)

		next := make([]*block[T], len(current)+1)
		copy(next, current)
		next[len(current)] = b

		// publish the block before the capacity that makes it reachable
		c.blocks.Store(&next)
		c.addresses.ReplaceOrInsert(b)
		c.capacity.Store(first + c.blockSize)
	}
}

func (c *Container[T]) slot(index uint32) *slot[T] {
	if index == 0 {
		panic(fmt.Sprintf("objectpool: %s: access to index 0", c.typeName))
	}
	position := index - 1
	blocks := *c.blocks.Load()
	b := position / c.blockSize
	if int(b) >= len(blocks) {
		panic(fmt.Sprintf("objectpool: %s: index %d out of range", c.typeName, index))
	}
	return &blocks[b].slots[position%c.blockSize]
}

func (c *Container[T]) alive(index uint32) *slot[T] {
	s := c.slot(index)
	if s.state.Load() != slotAlive {
		panic(fmt.Sprintf("objectpool: %s: index %d is not constructed", c.typeName, index))
	}
	return s
}

// ConstructAtIndex initializes the payload of a reserved index. The strong
// count stays at zero: the caller is expected to take the first reference.
func (c *Container[T]) ConstructAtIndex(index uint32, init func(*T)) *T {

	s := c.slot(index)
	if !s.state.CompareAndSwap(slotEmpty, slotAlive) {
		panic(fmt.Sprintf("objectpool: %s: index %d constructed twice", c.typeName, index))
	}

	var zero T
	s.object = zero
	if init != nil {
		init(&s.object)
	}

	s.pins.Add(1)
	c.live.Add(1)

	return &s.object
}

func (c *Container[T]) ConstructDefault(index uint32) {
	c.ConstructAtIndex(index, nil)
}

// Construct reserves an index, initializes it and returns it holding one
// strong reference.
func (c *Container[T]) Construct(init func(*T)) uint32 {
	index := c.NextIndex()
	s := c.slot(index)
	c.ConstructAtIndex(index, init)
	s.strong.Add(1)
	return index
}

func (c *Container[T]) IncRefStrong(index uint32) uint32 {
	return c.alive(index).strong.Add(1)
}

// DecRefStrong drops a strong reference. The goroutine that takes the count
// to zero destroys the payload.
func (c *Container[T]) DecRefStrong(index uint32) uint32 {

	s := c.slot(index)
	n := s.strong.Add(^uint32(0))
	if n == ^uint32(0) {
		s.strong.Add(1)
		panic(fmt.Sprintf("objectpool: %s: strong count underflow at index %d", c.typeName, index))
	}
	if n == 0 {
		c.destroy(index, s)
	}

	return n
}

func (c *Container[T]) TryIncRefStrong(index, generation uint32) bool {

	if index == 0 || index > c.capacity.Load() {
		return false
	}

	s := c.slot(index)
	for {
		n := s.strong.Load()
		if n == 0 || s.generation.Load() != generation {
			return false
		}
		if s.strong.CompareAndSwap(n, n+1) {
			break
		}
	}

	// slot destroyed and reused between the load and the swap
	if s.generation.Load() != generation {
		c.DecRefStrong(index)
		return false
	}

	return true
}

// IncRefWeak needs the slot to be pinned already, either by the live payload
// or by another weak reference.
func (c *Container[T]) IncRefWeak(index uint32) uint32 {
	s := c.slot(index)
	if s.pins.Load() == 0 {
		panic(fmt.Sprintf("objectpool: %s: weak reference to free index %d", c.typeName, index))
	}
	s.pins.Add(1)
	return s.weak.Add(1)
}

func (c *Container[T]) DecRefWeak(index uint32) uint32 {

	s := c.slot(index)
	n := s.weak.Add(^uint32(0))
	if n == ^uint32(0) {
		s.weak.Add(1)
		panic(fmt.Sprintf("objectpool: %s: weak count underflow at index %d", c.typeName, index))
	}
	c.unpin(index, s)

	return n
}

func (c *Container[T]) destroy(index uint32, s *slot[T]) {

	if c.destructor != nil {
		c.destructor(&s.object)
	} else if d, ok := any(&s.object).(Destroyer); ok {
		d.Destroy()
	}

	var zero T
	s.object = zero
	s.generation.Add(1)
	s.state.Store(slotEmpty)
	c.live.Add(-1)

	c.unpin(index, s)
}

func (c *Container[T]) unpin(index uint32, s *slot[T]) {
	if s.pins.Add(^uint32(0)) == 0 {
		c.allocator.Release(index)
	}
}

func (c *Container[T]) StrongCount(index uint32) uint32 {
	return c.slot(index).strong.Load()
}

func (c *Container[T]) WeakCount(index uint32) uint32 {
	return c.slot(index).weak.Load()
}

func (c *Container[T]) Generation(index uint32) uint32 {
	return c.slot(index).generation.Load()
}

// GetObjectPointer is only meaningful between construction and destruction.
func (c *Container[T]) GetObjectPointer(index uint32) *T {
	return &c.slot(index).object
}

func (c *Container[T]) Pointer(index uint32) unsafe.Pointer {
	return unsafe.Pointer(c.GetObjectPointer(index))
}

func (c *Container[T]) Value(index uint32) any {
	return c.GetObjectPointer(index)
}

// GetObjectIndex finds the slot whose payload lives at ptr. Pointers into the
// middle of a payload, foreign memory and unconstructed slots are not found.
func (c *Container[T]) GetObjectIndex(ptr unsafe.Pointer) (uint32, bool) {

	if ptr == nil {
		return 0, false
	}
	p := uintptr(ptr)

	var found *block[T]
	c.blocksMutex.RLock()
	c.addresses.DescendLessOrEqual(&block[T]{base: p}, func(b *block[T]) bool {
		found = b
		return false
	})
	c.blocksMutex.RUnlock()

	if found == nil {
		return 0, false
	}

	s, ok := found.locate(p)
	if !ok || s.state.Load() != slotAlive {
		return 0, false
	}

	return s.index + 1, true
}

// Traverse visits live objects in index order holding a strong reference
// to each one while f runs.
func (c *Container[T]) Traverse(f func(index uint32, object *T) bool) {

	last := min(c.allocator.Count(), c.capacity.Load())
	for index := uint32(1); index <= last; index++ {
		s := c.slot(index)
		if !c.TryIncRefStrong(index, s.generation.Load()) {
			continue
		}
		next := f(index, &s.object)
		c.DecRefStrong(index)
		if !next {
			return
		}
	}
}

func (c *Container[T]) TraverseAny(f func(index uint32, value any) bool) {
	c.Traverse(func(index uint32, object *T) bool {
		return f(index, object)
	})
}

func (c *Container[T]) Len() int {
	return int(c.live.Load())
}

func (c *Container[T]) Stats() Stats {
	return Stats{
		Live:      c.live.Load(),
		Capacity:  c.capacity.Load(),
		Allocated: c.allocator.Count(),
		Free:      c.allocator.FreeCount(),
		Blocks:    len(*c.blocks.Load()),
		BlockSize: c.blockSize,
	}
}

// Close tears the container down. Objects still constructed at this point
// are leaks: they are reported following the leak policy and dropped without
// running their destructors, since the containers they point to may already
// be gone.
func (c *Container[T]) Close() error {

	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.blocksMutex.Lock()
	defer c.blocksMutex.Unlock()

	leaked := 0
	for _, b := range *c.blocks.Load() {
		for i := range b.slots {
			s := &b.slots[i]
			if s.state.Load() != slotAlive {
				continue
			}
			leaked++
			c.logger.Printf("WARNING: %s: leaked object at index %d (strong=%d weak=%d)\n",
				c.typeName, s.index+1, s.strong.Load(), s.weak.Load())
		}
	}

	c.blocks.Store(&[]*block[T]{})
	c.addresses.Clear(false)
	c.capacity.Store(0)
	c.allocator.Reset()
	c.live.Store(0)

	if leaked == 0 {
		return nil
	}

	err := fmt.Errorf("%s: %w: %d", c.typeName, ErrLeakedObjects, leaked)
	if c.leakPolicy == LeakPanic {
		panic(err)
	}
	return err
}
