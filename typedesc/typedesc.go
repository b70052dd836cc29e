// Package typedesc describes pooled types at runtime so that reflection,
// serialization and interop layers can create and inspect objects knowing
// only a type identifier or a type name.
package typedesc

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"
	"unsafe"

	"github.com/go-json-experiment/json"

	"github.com/fulldump/hyperpool/handle"
	"github.com/fulldump/hyperpool/objectpool"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/typeid"
)

var (
	ErrUnknownType     = errors.New("unknown type")
	ErrUnknownProperty = errors.New("unknown property")
	ErrPropertyType    = errors.New("property type mismatch")
	ErrForeignPointer  = errors.New("pointer does not belong to a live object")
	ErrTypeMismatch    = errors.New("handle type does not match descriptor")
)

type Property struct {
	Name  string
	Type  reflect.Type
	index []int
}

type Descriptor struct {
	ID         typeid.TypeID
	Name       string
	Type       reflect.Type
	Properties []Property

	factory func(r *registry.Registry) func() objectpool.ObjectContainer
}

var (
	mutex       sync.RWMutex
	descriptors = map[typeid.TypeID]*Descriptor{}
	byName      = map[string]*Descriptor{}
)

// Register describes T. Registering the same type again returns the existing
// descriptor.
func Register[T any]() *Descriptor {

	id := typeid.Of[T]()

	mutex.Lock()
	defer mutex.Unlock()

	if d, exists := descriptors[id]; exists {
		return d
	}

	t := reflect.TypeFor[T]()
	d := &Descriptor{
		ID:         id,
		Name:       t.String(),
		Type:       t,
		Properties: properties(t),
		factory:    registry.Factory[T],
	}
	descriptors[id] = d
	byName[d.Name] = d

	return d
}

func properties(t reflect.Type) []Property {
	if t.Kind() != reflect.Struct {
		return nil
	}
	result := []Property{}
	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		result = append(result, Property{
			Name:  field.Name,
			Type:  field.Type,
			index: field.Index,
		})
	}
	return result
}

func Lookup(id typeid.TypeID) (*Descriptor, bool) {
	mutex.RLock()
	defer mutex.RUnlock()
	d, ok := descriptors[id]
	return d, ok
}

func LookupName(name string) (*Descriptor, bool) {
	mutex.RLock()
	defer mutex.RUnlock()
	d, ok := byName[name]
	return d, ok
}

// All returns every descriptor sorted by name.
func All() []*Descriptor {
	mutex.RLock()
	result := make([]*Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		result = append(result, d)
	}
	mutex.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Container returns the container of the described type in r.
func (d *Descriptor) Container(r *registry.Registry) objectpool.ObjectContainer {
	return r.GetOrCreate(d.ID, d.factory(r))
}

// CreateInstance constructs a zero value and returns the only reference to it.
func (d *Descriptor) CreateInstance(r *registry.Registry) handle.AnyHandle {
	c := d.Container(r)
	index := c.NextIndex()
	c.ConstructDefault(index)
	c.IncRefStrong(index)
	return handle.AdoptAny(c, index)
}

// Resolve validates a raw payload address received from foreign code and
// returns a new strong reference to the object living there.
func (d *Descriptor) Resolve(r *registry.Registry, ptr unsafe.Pointer) (handle.AnyHandle, error) {

	c, ok := r.TryGet(d.ID)
	if !ok {
		return handle.AnyHandle{}, fmt.Errorf("%s: %w", d.Name, registry.ErrTypeNotRegistered)
	}

	index, ok := c.GetObjectIndex(ptr)
	if !ok {
		return handle.AnyHandle{}, fmt.Errorf("%s: %w", d.Name, ErrForeignPointer)
	}

	if !c.TryIncRefStrong(index, c.Generation(index)) {
		return handle.AnyHandle{}, fmt.Errorf("%s: %w", d.Name, ErrForeignPointer)
	}

	return handle.AdoptAny(c, index), nil
}

func (d *Descriptor) Property(name string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (d *Descriptor) field(h handle.AnyHandle, name string) (reflect.Value, error) {

	if h.TypeID() != d.ID {
		return reflect.Value{}, fmt.Errorf("%s: %w: %s", d.Name, ErrTypeMismatch, h)
	}

	p, ok := d.Property(name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%s.%s: %w", d.Name, name, ErrUnknownProperty)
	}

	return reflect.ValueOf(h.Value()).Elem().FieldByIndex(p.index), nil
}

// GetProperty returns a copy of the property value. Handle properties are
// returned as a new reference that the caller must release.
func (d *Descriptor) GetProperty(h handle.AnyHandle, name string) (any, error) {
	v, err := d.field(h, name)
	if err != nil {
		return nil, err
	}
	if isRef(v.Type()) {
		return v.Addr().Interface().(handle.Ref).CloneRef(), nil
	}
	return v.Interface(), nil
}

// SetProperty assigns value to a property, converting between numeric types
// when no precision is lost (for example float64 decoded from JSON into an
// int field). Handle properties take their own reference to value and
// release the one they held.
func (d *Descriptor) SetProperty(h handle.AnyHandle, name string, value any) error {

	v, err := d.field(h, name)
	if err != nil {
		return err
	}

	if isRef(v.Type()) {
		return d.setRef(v, name, value)
	}

	if value == nil {
		v.SetZero()
		return nil
	}

	in := reflect.ValueOf(value)
	switch {
	case in.Type().AssignableTo(v.Type()):
		v.Set(in)
	case in.Type().ConvertibleTo(v.Type()) && !isNumber(in.Kind()) && !isNumber(v.Kind()):
		v.Set(in.Convert(v.Type()))
	case isNumber(in.Kind()) && isNumber(v.Kind()) && fits(in, v.Type()):
		v.Set(in.Convert(v.Type()))
	default:
		return fmt.Errorf("%s.%s: %w: %s into %s", d.Name, name, ErrPropertyType, in.Type(), v.Type())
	}

	return nil
}

func (d *Descriptor) setRef(v reflect.Value, name string, value any) error {

	old := v.Addr().Interface().(handle.Ref)

	if value == nil {
		old.ReleaseRef()
		return nil
	}

	in := reflect.ValueOf(value)
	if in.Type() != v.Type() {
		return fmt.Errorf("%s.%s: %w: %s into %s", d.Name, name, ErrPropertyType, in.Type(), v.Type())
	}

	// take the new reference before dropping the old one, both may point to
	// the same object
	incoming := reflect.New(v.Type())
	incoming.Elem().Set(in)
	cloned := incoming.Interface().(handle.Ref).CloneRef()

	old.ReleaseRef()
	v.Set(reflect.ValueOf(cloned))

	return nil
}

var refType = reflect.TypeFor[handle.Ref]()

func isRef(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(refType)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// fits reports whether the number in converts to t without overflowing or
// dropping a fractional part.
func fits(in reflect.Value, t reflect.Type) bool {

	out := reflect.New(t).Elem()

	switch {
	case in.CanInt():
		i := in.Int()
		switch {
		case out.CanInt():
			return !out.OverflowInt(i)
		case out.CanUint():
			return i >= 0 && !out.OverflowUint(uint64(i))
		default:
			return !out.OverflowFloat(float64(i))
		}

	case in.CanUint():
		u := in.Uint()
		switch {
		case out.CanInt():
			return u <= math.MaxInt64 && !out.OverflowInt(int64(u))
		case out.CanUint():
			return !out.OverflowUint(u)
		default:
			return !out.OverflowFloat(float64(u))
		}

	default:
		f := in.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return out.CanFloat()
		}
		switch {
		case out.CanInt():
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !out.OverflowInt(int64(f))
		case out.CanUint():
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !out.OverflowUint(uint64(f))
		default:
			return !out.OverflowFloat(f)
		}
	}
}

// Marshal renders the object as JSON with a stable field order.
func (d *Descriptor) Marshal(h handle.AnyHandle) ([]byte, error) {
	if h.TypeID() != d.ID {
		return nil, fmt.Errorf("%s: %w: %s", d.Name, ErrTypeMismatch, h)
	}
	return MarshalValue(h.Value())
}

func MarshalValue(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true))
}

// Unmarshal overwrites the exported fields present in data.
func (d *Descriptor) Unmarshal(h handle.AnyHandle, data []byte) error {
	if h.TypeID() != d.ID {
		return fmt.Errorf("%s: %w: %s", d.Name, ErrTypeMismatch, h)
	}
	return json.Unmarshal(data, h.Value())
}
