package objectpool

import (
	"unsafe"

	"github.com/fulldump/hyperpool/typeid"
)

// ObjectContainer is the type-erased view of a Container, used by the registry,
// type descriptors and interop code that only know a type identifier.
type ObjectContainer interface {
	TypeID() typeid.TypeID
	TypeName() string

	// Reserve a slot index, growing the storage if needed
	NextIndex() uint32
	// Construct the zero value at a reserved index
	ConstructDefault(index uint32)

	IncRefStrong(index uint32) uint32
	DecRefStrong(index uint32) uint32
	// Increment only while the object is alive and still in generation
	TryIncRefStrong(index, generation uint32) bool
	IncRefWeak(index uint32) uint32
	DecRefWeak(index uint32) uint32

	StrongCount(index uint32) uint32
	WeakCount(index uint32) uint32
	Generation(index uint32) uint32

	// Raw address of the payload, stable for the slot lifetime
	Pointer(index uint32) unsafe.Pointer
	// Reverse lookup of a payload address handed back by foreign code
	GetObjectIndex(ptr unsafe.Pointer) (uint32, bool)
	// Payload as *T
	Value(index uint32) any

	// Visit live objects, each one pinned by a strong reference during f
	TraverseAny(f func(index uint32, value any) bool)

	Stats() Stats
	Close() error
}

// Destroyer is implemented by payloads that hold resources, typically other
// handles, to be released when the last strong reference goes away.
type Destroyer interface {
	Destroy()
}

type Stats struct {
	Live      int64  `json:"live"`
	Capacity  uint32 `json:"capacity"`
	Allocated uint32 `json:"allocated"`
	Free      uint32 `json:"free"`
	Blocks    int    `json:"blocks"`
	BlockSize uint32 `json:"block_size"`
}
