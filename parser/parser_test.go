package parser

import (
	"encoding/binary"
	"testing"

	"github.com/lumastream/podwire/builder"
	"github.com/lumastream/podwire/errors"
	"github.com/lumastream/podwire/pod"
)

func buildStruct(t *testing.T) []byte {
	t.Helper()
	b := builder.NewDynamic(64)
	f, err := b.PushStruct()
	if err != nil {
		t.Fatalf("PushStruct() error = %v", err)
	}
	if err := b.Int(42); err != nil {
		t.Fatalf("Int() error = %v", err)
	}
	if err := b.String("hi"); err != nil {
		t.Fatalf("String() error = %v", err)
	}
	if err := b.Double(3.5); err != nil {
		t.Fatalf("Double() error = %v", err)
	}
	if err := b.Pop(f); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return data
}

func TestStructTraversal(t *testing.T) {
	p := New(buildStruct(t))

	f, err := p.Push()
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if n, err := p.GetInt(); err != nil || n != 42 {
		t.Errorf("GetInt() = (%d, %v), want (42, nil)", n, err)
	}
	if s, err := p.GetString(); err != nil || s != "hi" {
		t.Errorf("GetString() = (%q, %v), want (%q, nil)", s, err, "hi")
	}
	if d, err := p.GetDouble(); err != nil || d != 3.5 {
		t.Errorf("GetDouble() = (%v, %v), want (3.5, nil)", d, err)
	}
	if _, ok, err := p.Current(); ok || err != nil {
		t.Errorf("Current() at container end = (ok=%v, %v), want (false, nil)", ok, err)
	}
	if err := p.Pop(f); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if _, ok, err := p.Current(); ok || err != nil {
		t.Errorf("Current() at buffer end = (ok=%v, %v), want (false, nil)", ok, err)
	}
}

func TestMismatchDoesNotAdvance(t *testing.T) {
	p := New(buildStruct(t))
	f, err := p.Push()
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if _, err := p.GetLong(); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Fatalf("GetLong() on Int error = %v, want type_mismatch", err)
	}
	// the cursor stayed put, so the right getter still works
	if n, err := p.GetInt(); err != nil || n != 42 {
		t.Errorf("GetInt() after mismatch = (%d, %v), want (42, nil)", n, err)
	}
	_ = f
}

func TestSnapshotReset(t *testing.T) {
	p := New(buildStruct(t))
	if _, err := p.Push(); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if _, err := p.GetInt(); err != nil {
		t.Fatalf("GetInt() error = %v", err)
	}
	snap := p.GetState()

	if _, err := p.GetString(); err != nil {
		t.Fatalf("GetString() error = %v", err)
	}
	if _, err := p.GetDouble(); err != nil {
		t.Fatalf("GetDouble() error = %v", err)
	}

	p.Reset(snap)
	if s, err := p.GetString(); err != nil || s != "hi" {
		t.Errorf("GetString() after reset = (%q, %v), want (%q, nil)", s, err, "hi")
	}
}

func TestObjectTraversal(t *testing.T) {
	b := builder.NewDynamic(128)
	f, err := b.PushObject(0x40002, 1)
	if err != nil {
		t.Fatalf("PushObject() error = %v", err)
	}
	if err := b.Prop(3, 0); err != nil {
		t.Fatalf("Prop() error = %v", err)
	}
	if err := b.Id(7); err != nil {
		t.Fatalf("Id() error = %v", err)
	}
	if err := b.Prop(4, 8); err != nil {
		t.Fatalf("Prop() error = %v", err)
	}
	if err := b.Rectangle(640, 480); err != nil {
		t.Fatalf("Rectangle() error = %v", err)
	}
	if err := b.Pop(f); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	p := New(data)
	pf, err := p.Push()
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	prop, ok, err := p.CurrentProperty()
	if err != nil || !ok {
		t.Fatalf("CurrentProperty() = (ok=%v, %v), want first property", ok, err)
	}
	if prop.Key != 3 || prop.Flags != 0 {
		t.Errorf("property = (key %d, flags %d), want (3, 0)", prop.Key, prop.Flags)
	}
	if id, err := p.GetId(); err != nil || id != 7 {
		t.Errorf("GetId() = (%d, %v), want (7, nil)", id, err)
	}

	prop, ok, err = p.CurrentProperty()
	if err != nil || !ok {
		t.Fatalf("second CurrentProperty() = (ok=%v, %v)", ok, err)
	}
	if prop.Key != 4 || prop.Flags != 8 {
		t.Errorf("property = (key %d, flags %d), want (4, 8)", prop.Key, prop.Flags)
	}
	if r, err := p.GetRectangle(); err != nil || r.Width != 640 || r.Height != 480 {
		t.Errorf("GetRectangle() = (%+v, %v), want 640x480", r, err)
	}

	if _, ok, _ := p.CurrentProperty(); ok {
		t.Error("CurrentProperty() past last property reported ok")
	}
	if err := p.Pop(pf); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
}

func TestPushContainerProperty(t *testing.T) {
	// a property flag word equal to a container tag must not be
	// mistaken for the value's header
	tests := []struct {
		name  string
		key   uint32
		flags uint32
	}{
		{"plain flags", 3, 0},
		{"flags collide with struct tag", 16, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := builder.NewDynamic(128)
			of, err := b.PushObject(0x40002, 1)
			if err != nil {
				t.Fatalf("PushObject() error = %v", err)
			}
			if err := b.Prop(tt.key, tt.flags); err != nil {
				t.Fatalf("Prop() error = %v", err)
			}
			sf, err := b.PushStruct()
			if err != nil {
				t.Fatalf("PushStruct() error = %v", err)
			}
			if err := b.Int(99); err != nil {
				t.Fatalf("Int() error = %v", err)
			}
			if err := b.Pop(sf); err != nil {
				t.Fatalf("Pop(struct) error = %v", err)
			}
			if err := b.Prop(tt.key+1, 0); err != nil {
				t.Fatalf("second Prop() error = %v", err)
			}
			if err := b.Bool(true); err != nil {
				t.Fatalf("Bool() error = %v", err)
			}
			if err := b.Pop(of); err != nil {
				t.Fatalf("Pop(object) error = %v", err)
			}
			data, err := b.Finish()
			if err != nil {
				t.Fatalf("Finish() error = %v", err)
			}

			p := New(data)
			pf, err := p.Push()
			if err != nil {
				t.Fatalf("Push(object) error = %v", err)
			}
			v, ok, err := p.Current()
			if err != nil || !ok {
				t.Fatalf("Current() = (ok=%v, %v), want first property value", ok, err)
			}
			if v.Type() != pod.TypeStruct {
				t.Fatalf("Current() type = %v, want Struct", v.Type())
			}
			// Push must enter the value Current reported
			vf, err := p.Push()
			if err != nil {
				t.Fatalf("Push(property value) error = %v", err)
			}
			if n, err := p.GetInt(); err != nil || n != 99 {
				t.Errorf("GetInt() inside property = (%d, %v), want (99, nil)", n, err)
			}
			if err := p.Pop(vf); err != nil {
				t.Fatalf("Pop(struct) error = %v", err)
			}
			prop, ok, err := p.CurrentProperty()
			if err != nil || !ok {
				t.Fatalf("CurrentProperty() after pop = (ok=%v, %v)", ok, err)
			}
			if prop.Key != tt.key+1 {
				t.Errorf("next property key = %d, want %d", prop.Key, tt.key+1)
			}
			if v, err := p.GetBool(); err != nil || !v {
				t.Errorf("GetBool() = (%v, %v), want (true, nil)", v, err)
			}
			if err := p.Pop(pf); err != nil {
				t.Fatalf("Pop(object) error = %v", err)
			}
		})
	}
}

func TestPushControlValue(t *testing.T) {
	b := builder.NewDynamic(128)
	f, err := b.PushSequence(1)
	if err != nil {
		t.Fatalf("PushSequence() error = %v", err)
	}
	if _, err := b.Control(5, 2); err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	sf, err := b.PushStruct()
	if err != nil {
		t.Fatalf("PushStruct() error = %v", err)
	}
	if err := b.Long(-8); err != nil {
		t.Fatalf("Long() error = %v", err)
	}
	if err := b.Pop(sf); err != nil {
		t.Fatalf("Pop(struct) error = %v", err)
	}
	if err := b.Pop(f); err != nil {
		t.Fatalf("Pop(sequence) error = %v", err)
	}
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	p := New(data)
	if _, err := p.Push(); err != nil {
		t.Fatalf("Push(sequence) error = %v", err)
	}
	c, ok, err := p.CurrentControl()
	if err != nil || !ok {
		t.Fatalf("CurrentControl() = (ok=%v, %v)", ok, err)
	}
	if c.Offset != 5 || c.Type != 2 {
		t.Errorf("control = (%d, %d), want (5, 2)", c.Offset, c.Type)
	}
	vf, err := p.Push()
	if err != nil {
		t.Fatalf("Push(control value) error = %v", err)
	}
	if n, err := p.GetLong(); err != nil || n != -8 {
		t.Errorf("GetLong() inside control = (%d, %v), want (-8, nil)", n, err)
	}
	if err := p.Pop(vf); err != nil {
		t.Fatalf("Pop(struct) error = %v", err)
	}
}

func TestSequenceTraversal(t *testing.T) {
	b := builder.NewDynamic(128)
	f, err := b.PushSequence(2)
	if err != nil {
		t.Fatalf("PushSequence() error = %v", err)
	}
	if _, err := b.Control(10, 1); err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if err := b.Float(0.25); err != nil {
		t.Fatalf("Float() error = %v", err)
	}
	if _, err := b.Control(20, 1); err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if err := b.Float(0.75); err != nil {
		t.Fatalf("Float() error = %v", err)
	}
	if err := b.Pop(f); err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	p := New(data)
	if _, err := p.Push(); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	var offsets []uint32
	for {
		c, ok, err := p.CurrentControl()
		if err != nil {
			t.Fatalf("CurrentControl() error = %v", err)
		}
		if !ok {
			break
		}
		offsets = append(offsets, c.Offset)
		if err := p.Advance(); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}
	if len(offsets) != 2 || offsets[0] != 10 || offsets[1] != 20 {
		t.Errorf("control offsets = %v, want [10 20]", offsets)
	}
}

func TestNestedStructs(t *testing.T) {
	b := builder.NewDynamic(128)
	outer, _ := b.PushStruct()
	_ = b.Int(1)
	inner, _ := b.PushStruct()
	_ = b.Int(2)
	_ = b.Pop(inner)
	_ = b.Int(3)
	_ = b.Pop(outer)
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	p := New(data)
	of, err := p.Push()
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if n, _ := p.GetInt(); n != 1 {
		t.Errorf("first field = %d, want 1", n)
	}
	nf, err := p.Push()
	if err != nil {
		t.Fatalf("inner Push() error = %v", err)
	}
	if n, _ := p.GetInt(); n != 2 {
		t.Errorf("inner field = %d, want 2", n)
	}
	if err := p.Pop(nf); err != nil {
		t.Fatalf("Pop(inner) error = %v", err)
	}
	if n, _ := p.GetInt(); n != 3 {
		t.Errorf("third field = %d, want 3", n)
	}
	if err := p.Pop(of); err != nil {
		t.Fatalf("Pop(outer) error = %v", err)
	}
}

func TestPopOrder(t *testing.T) {
	b := builder.NewDynamic(128)
	outer, _ := b.PushStruct()
	inner, _ := b.PushStruct()
	_ = b.Int(1)
	_ = b.Pop(inner)
	_ = b.Pop(outer)
	data, _ := b.Finish()

	p := New(data)
	of, _ := p.Push()
	nf, err := p.Push()
	if err != nil {
		t.Fatalf("inner Push() error = %v", err)
	}
	if err := p.Pop(of); !errors.IsKind(err, errors.KindMalformedContainer) {
		t.Errorf("Pop(outer) with inner entered error = %v, want malformed_container", err)
	}
	if err := p.Pop(nf); err != nil {
		t.Fatalf("Pop(inner) error = %v", err)
	}
	if err := p.Pop(nf); !errors.IsKind(err, errors.KindMalformedContainer) {
		t.Errorf("double Pop(inner) error = %v, want malformed_container", err)
	}
}

func TestPushRejectsScalarsAndPacked(t *testing.T) {
	tests := []struct {
		name  string
		write func(b *builder.Builder) error
	}{
		{"int", func(b *builder.Builder) error { return b.Int(1) }},
		{"string", func(b *builder.Builder) error { return b.String("x") }},
		{"array", func(b *builder.Builder) error {
			f, err := b.PushArray()
			if err != nil {
				return err
			}
			if err := b.Int(1); err != nil {
				return err
			}
			return b.Pop(f)
		}},
		{"choice", func(b *builder.Builder) error {
			f, err := b.PushChoice(pod.ChoiceEnum, 0)
			if err != nil {
				return err
			}
			if err := b.Int(1); err != nil {
				return err
			}
			return b.Pop(f)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := builder.NewDynamic(64)
			if err := tt.write(b); err != nil {
				t.Fatalf("write error = %v", err)
			}
			data, err := b.Finish()
			if err != nil {
				t.Fatalf("Finish() error = %v", err)
			}
			p := New(data)
			if _, err := p.Push(); !errors.IsKind(err, errors.KindTypeMismatch) {
				t.Errorf("Push() error = %v, want type_mismatch", err)
			}
		})
	}
}

func TestDerefBounds(t *testing.T) {
	data := buildStruct(t)

	tests := []struct {
		name    string
		data    []byte
		offset  uint32
		minSize uint32
		kind    errors.Kind
	}{
		{"offset past buffer", data, uint32(len(data)) + 8, pod.HeaderSize, errors.KindOutOfBounds},
		{"short header", data[:4], 0, pod.HeaderSize, errors.KindOutOfBounds},
		{"misaligned offset", data, 4, pod.HeaderSize, errors.KindInvalidData},
		{"min size past buffer", data, 0, uint32(len(data)) + 8, errors.KindOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.data)
			if _, err := p.Deref(tt.offset, tt.minSize); !errors.IsKind(err, tt.kind) {
				t.Errorf("Deref(%d, %d) error = %v, want %v", tt.offset, tt.minSize, err, tt.kind)
			}
		})
	}
}

func TestDerefTruncated(t *testing.T) {
	// header declares a 64-byte body, buffer holds 8
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data, 64)
	binary.LittleEndian.PutUint32(data[4:], uint32(pod.TypeBytes))

	p := New(data)
	if _, err := p.Deref(0, pod.HeaderSize); !errors.IsKind(err, errors.KindTruncated) {
		t.Errorf("Deref(0) error = %v, want truncated", err)
	}
}

func TestChildOverrunsContainer(t *testing.T) {
	// struct declaring a 16-byte body whose child declares 24 bytes
	data := make([]byte, 32)
	binary.LittleEndian.PutUint32(data, 16)
	binary.LittleEndian.PutUint32(data[4:], uint32(pod.TypeStruct))
	binary.LittleEndian.PutUint32(data[8:], 16)
	binary.LittleEndian.PutUint32(data[12:], uint32(pod.TypeBytes))

	p := New(data)
	if _, err := p.Push(); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if _, _, err := p.Current(); !errors.IsKind(err, errors.KindMalformedContainer) {
		t.Errorf("Current() error = %v, want malformed_container", err)
	}
}

func TestConcatenatedPods(t *testing.T) {
	b := builder.NewDynamic(64)
	_ = b.Int(1)
	_ = b.Long(2)
	_ = b.String("three")
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	p := New(data)
	var types []pod.Type
	for {
		v, ok, err := p.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !ok {
			break
		}
		types = append(types, v.Type())
	}
	want := []pod.Type{pod.TypeInt, pod.TypeLong, pod.TypeString}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("pod %d type = %v, want %v", i, types[i], want[i])
		}
	}
}
