package typeid

import (
	"reflect"
	"testing"

	"github.com/fulldump/biff"
)

type texture struct {
	Width int
}

type mesh struct {
	Vertices int
}

func TestTypeID(t *testing.T) {

	biff.Alternative("Stable per type", func(a *biff.A) {
		biff.AssertEqual(Of[texture](), Of[texture]())
		biff.AssertEqual(Of[texture](), OfType(reflect.TypeOf(texture{})))
	})

	biff.Alternative("Distinct types", func(a *biff.A) {
		biff.AssertNotEqual(Of[texture](), Of[mesh]())
		biff.AssertNotEqual(Of[texture](), Of[*texture]())
	})

	biff.Alternative("Derived from qualified name", func(a *biff.A) {
		name := QualifiedName(reflect.TypeFor[texture]())
		biff.AssertEqual(name, "github.com/fulldump/hyperpool/typeid.texture")
		biff.AssertEqual(Of[texture](), ForName(name))
	})

	biff.Alternative("Reverse lookup", func(a *biff.A) {
		id := Of[mesh]()
		name, ok := Name(id)
		biff.AssertTrue(ok)
		biff.AssertEqual(name, "typeid.mesh")

		_, ok = Name(ForName("never seen"))
		biff.AssertFalse(ok)
	})

	biff.Alternative("Local types sharing a name", func(a *biff.A) {
		first := localItemA()
		second := localItemB()
		biff.AssertNotEqual(first, second)
		biff.AssertEqual(localItemA(), first)
		biff.AssertEqual(localItemB(), second)

		firstType, _ := Type(first)
		secondType, _ := Type(second)
		biff.AssertEqual(firstType.Field(0).Name, "A")
		biff.AssertEqual(secondType.Field(0).Name, "B")

		name, _ := Name(second)
		biff.AssertEqual(name, "typeid.item")
	})

	biff.Alternative("String", func(a *biff.A) {
		biff.AssertEqual(len(Of[mesh]().String()), 16)
	})
}

func localItemA() TypeID {
	type item struct{ A int }
	return Of[item]()
}

func localItemB() TypeID {
	type item struct{ B string }
	return Of[item]()
}
