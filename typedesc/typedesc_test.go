package typedesc

import (
	"errors"
	"io"
	"log"
	"math"
	"testing"
	"unsafe"

	"github.com/fulldump/biff"
	"github.com/stretchr/testify/require"

	"github.com/fulldump/hyperpool/handle"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/typeid"
)

type Light struct {
	Name      string
	Intensity float64
	Range     int
	Enabled   bool
	internal  int
}

type Camera struct {
	Fov float64
}

type Bulb struct {
	Watts int
}

type Lamp struct {
	Name  string
	Bulb  handle.Handle[Bulb]
	Spare handle.WeakHandle[Bulb]
	Level int8
	Count uint8
}

func (l *Lamp) Destroy() {
	l.Bulb.Release()
	l.Spare.Release()
}

func TestDescriptor(t *testing.T) {

	biff.Alternative("Descriptor", func(a *biff.A) {

		r := registry.New(&registry.Config{
			BlockSize: 4,
			Logger:    log.New(io.Discard, "", 0),
		})
		d := Register[Light]()

		biff.AssertEqual(d.ID, typeid.Of[Light]())
		biff.AssertEqual(d.Name, "typedesc.Light")
		biff.AssertTrue(Register[Light]() == d)

		names := []string{}
		for _, p := range d.Properties {
			names = append(names, p.Name)
		}
		biff.AssertEqual(names, []string{"Name", "Intensity", "Range", "Enabled"})

		a.Alternative("Lookup", func(a *biff.A) {
			found, ok := Lookup(typeid.Of[Light]())
			biff.AssertTrue(ok)
			biff.AssertTrue(found == d)

			found, ok = LookupName("typedesc.Light")
			biff.AssertTrue(ok)
			biff.AssertTrue(found == d)

			_, ok = LookupName("typedesc.Nothing")
			biff.AssertFalse(ok)
		})

		a.Alternative("CreateInstance", func(a *biff.A) {
			h := d.CreateInstance(r)
			biff.AssertTrue(h.IsValid())
			biff.AssertEqual(h.TypeID(), d.ID)
			biff.AssertEqual(h.Container().StrongCount(h.Index()), uint32(1))

			typed, ok := handle.To[Light](h)
			biff.AssertTrue(ok)
			biff.AssertTrue(typed.Container() == registry.ContainerFor[Light](r))
			typed.Release()

			a.Alternative("Set and get properties", func(a *biff.A) {
				biff.AssertNil(d.SetProperty(h, "Name", "sun"))
				biff.AssertNil(d.SetProperty(h, "Intensity", 2.5))
				biff.AssertNil(d.SetProperty(h, "Range", float64(40)))
				biff.AssertNil(d.SetProperty(h, "Enabled", true))

				value, err := d.GetProperty(h, "Range")
				biff.AssertNil(err)
				biff.AssertEqual(value, 40)

				light := h.Value().(*Light)
				biff.AssertEqual(*light, Light{Name: "sun", Intensity: 2.5, Range: 40, Enabled: true})

				biff.AssertNil(d.SetProperty(h, "Name", nil))
				biff.AssertEqual(light.Name, "")
			})

			a.Alternative("Property errors", func(a *biff.A) {
				_, err := d.GetProperty(h, "internal")
				biff.AssertTrue(errors.Is(err, ErrUnknownProperty))

				err = d.SetProperty(h, "Name", 12)
				biff.AssertTrue(errors.Is(err, ErrPropertyType))

				err = d.SetProperty(h, "Range", 1.7)
				biff.AssertTrue(errors.Is(err, ErrPropertyType))
				biff.AssertEqual(h.Value().(*Light).Range, 0)

				camera := Register[Camera]().CreateInstance(r)
				_, err = d.GetProperty(camera, "Name")
				biff.AssertTrue(errors.Is(err, ErrTypeMismatch))
				camera.Release()
			})

			a.Alternative("Marshal", func(a *biff.A) {
				biff.AssertNil(d.SetProperty(h, "Name", "lamp"))
				b, err := d.Marshal(h)
				biff.AssertNil(err)
				biff.AssertEqual(string(b), `{"Name":"lamp","Intensity":0,"Range":0,"Enabled":false}`)
			})

			a.Alternative("Unmarshal", func(a *biff.A) {
				biff.AssertNil(d.SetProperty(h, "Range", 7))
				err := d.Unmarshal(h, []byte(`{"Name":"spot","Enabled":true}`))
				biff.AssertNil(err)
				biff.AssertEqual(*h.Value().(*Light), Light{Name: "spot", Range: 7, Enabled: true})
			})

			a.Alternative("Resolve raw pointer", func(a *biff.A) {
				resolved, err := d.Resolve(r, h.Pointer())
				biff.AssertNil(err)
				biff.AssertEqual(resolved.Index(), h.Index())
				biff.AssertEqual(h.Container().StrongCount(h.Index()), uint32(2))
				resolved.Release()

				foreign := &Light{}
				_, err = d.Resolve(r, unsafe.Pointer(foreign))
				biff.AssertTrue(errors.Is(err, ErrForeignPointer))

				pointer := h.Pointer()
				h.Release()
				_, err = d.Resolve(r, pointer)
				biff.AssertTrue(errors.Is(err, ErrForeignPointer))
			})
		})

		a.Alternative("Resolve without container", func(a *biff.A) {
			_, err := d.Resolve(r, unsafe.Pointer(&Light{}))
			biff.AssertTrue(errors.Is(err, registry.ErrTypeNotRegistered))
		})

		a.Alternative("All", func(a *biff.A) {
			Register[Camera]()
			all := All()
			biff.AssertTrue(len(all) >= 2)
			for i := 1; i < len(all); i++ {
				biff.AssertTrue(all[i-1].Name < all[i].Name)
			}
		})
	})
}

func TestDescriptor_HandleProperties(t *testing.T) {

	r := registry.New(&registry.Config{
		BlockSize: 4,
		Logger:    log.New(io.Discard, "", 0),
	})
	d := Register[Lamp]()

	bulb1 := handle.Create(r, func(b *Bulb) { b.Watts = 40 })
	bulb2 := handle.Create(r, func(b *Bulb) { b.Watts = 60 })
	weakCount := func(h handle.Handle[Bulb]) uint32 {
		return h.Container().WeakCount(h.Index())
	}

	lamp := d.CreateInstance(r)

	require.NoError(t, d.SetProperty(lamp, "Bulb", bulb1))
	require.Equal(t, uint32(2), bulb1.StrongCount())

	// replacing releases the previous bulb
	require.NoError(t, d.SetProperty(lamp, "Bulb", bulb2))
	require.Equal(t, uint32(1), bulb1.StrongCount())
	require.Equal(t, uint32(2), bulb2.StrongCount())

	require.NoError(t, d.SetProperty(lamp, "Bulb", bulb2))
	require.Equal(t, uint32(2), bulb2.StrongCount())

	value, err := d.GetProperty(lamp, "Bulb")
	require.NoError(t, err)
	got := value.(handle.Handle[Bulb])
	require.Equal(t, 60, got.Get().Watts)
	require.Equal(t, uint32(3), bulb2.StrongCount())
	got.Release()
	require.Equal(t, uint32(2), bulb2.StrongCount())

	weak := bulb1.Weak()
	require.NoError(t, d.SetProperty(lamp, "Spare", weak))
	require.Equal(t, uint32(2), weakCount(bulb1))
	weak.Release()
	require.Equal(t, uint32(1), weakCount(bulb1))

	require.NoError(t, d.SetProperty(lamp, "Bulb", nil))
	require.Equal(t, uint32(1), bulb2.StrongCount())

	err = d.SetProperty(lamp, "Bulb", &bulb2)
	require.ErrorIs(t, err, ErrPropertyType)
	err = d.SetProperty(lamp, "Bulb", 3)
	require.ErrorIs(t, err, ErrPropertyType)
	require.Equal(t, uint32(1), bulb2.StrongCount())

	require.NoError(t, d.SetProperty(lamp, "Bulb", bulb1))
	require.Equal(t, uint32(2), bulb1.StrongCount())

	lamp.Release()
	require.Equal(t, uint32(1), bulb1.StrongCount())
	require.Equal(t, uint32(0), weakCount(bulb1))

	bulb1.Release()
	bulb2.Release()
	require.NoError(t, r.Close())
}

func TestDescriptor_NumericProperties(t *testing.T) {

	r := registry.New(&registry.Config{
		BlockSize: 4,
		Logger:    log.New(io.Discard, "", 0),
	})
	d := Register[Lamp]()
	lamp := d.CreateInstance(r)
	value := lamp.Value().(*Lamp)

	require.NoError(t, d.SetProperty(lamp, "Level", 12.0))
	require.Equal(t, int8(12), value.Level)
	require.NoError(t, d.SetProperty(lamp, "Level", -128))
	require.Equal(t, int8(-128), value.Level)
	require.NoError(t, d.SetProperty(lamp, "Count", uint64(255)))
	require.Equal(t, uint8(255), value.Count)

	rejected := map[string]any{
		"Level": 300.0,
		"Count": -3,
	}
	for name, v := range rejected {
		require.ErrorIs(t, d.SetProperty(lamp, name, v), ErrPropertyType, name)
	}
	for _, v := range []any{1.5, 256, math.NaN(), math.Inf(1), uint64(math.MaxUint64)} {
		require.ErrorIs(t, d.SetProperty(lamp, "Count", v), ErrPropertyType)
	}
	require.Equal(t, int8(-128), value.Level)
	require.Equal(t, uint8(255), value.Count)

	lamp.Release()
	require.NoError(t, r.Close())
}
