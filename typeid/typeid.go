// Package typeid derives process-stable identifiers for Go types. They key the
// container registry and the type descriptors.
package typeid

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/spaolacci/murmur3"
)

type TypeID uint64

const Invalid TypeID = 0

var (
	mutex  sync.RWMutex
	byType = map[reflect.Type]TypeID{}
	types  = map[TypeID]reflect.Type{}
)

func Of[T any]() TypeID {
	return OfType(reflect.TypeFor[T]())
}

// OfType returns the identifier of t. It is the hash of the qualified type
// name; types sharing a name (function local types, for instance) get the
// name salted with a counter, in the order they are first seen.
func OfType(t reflect.Type) TypeID {

	mutex.RLock()
	id, ok := byType[t]
	mutex.RUnlock()
	if ok {
		return id
	}

	name := QualifiedName(t)

	mutex.Lock()
	defer mutex.Unlock()

	if id, ok := byType[t]; ok {
		return id
	}

	id = ForName(name)
	for salt := 1; id == Invalid || types[id] != nil; salt++ {
		id = ForName(name + "#" + strconv.Itoa(salt))
	}
	byType[t] = id
	types[id] = t

	return id
}

func ForName(name string) TypeID {
	return TypeID(murmur3.Sum64([]byte(name)))
}

// QualifiedName is the package path qualified name used for hashing, so that
// two packages declaring the same type name do not collide.
func QualifiedName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// Type returns the Go type behind id, if it has been seen by OfType.
func Type(id TypeID) (reflect.Type, bool) {
	mutex.RLock()
	defer mutex.RUnlock()
	t, ok := types[id]
	return t, ok
}

func Name(id TypeID) (string, bool) {
	t, ok := Type(id)
	if !ok {
		return "", false
	}
	return t.String(), true
}

func (id TypeID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}
