package debug

import (
	"strings"
	"testing"

	"github.com/lumastream/podwire/builder"
	"github.com/lumastream/podwire/errors"
	"github.com/lumastream/podwire/pod"
)

func encode(t *testing.T, v *pod.Value) pod.Pod {
	t.Helper()
	b := builder.NewDynamic(256)
	if err := b.PutValue(v); err != nil {
		t.Fatalf("PutValue() error = %v", err)
	}
	data, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	p, err := pod.FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	return p
}

func TestDumpStruct(t *testing.T) {
	p := encode(t, pod.StructOf(
		pod.Int(42),
		pod.String("hi"),
		pod.FractionValue(30, 1),
	))

	got, err := Dump(DefaultTable(), p)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	want := "Struct: size 48\n" +
		"  Int 42\n" +
		"  String \"hi\"\n" +
		"  Fraction 30/1\n"
	if got != want {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, want)
	}
}

func TestDumpObjectWithTable(t *testing.T) {
	table := &TypeTable{
		Objects: map[uint32]ObjectInfo{
			262147: {
				Name: "Format",
				Keys: map[uint32]string{1: "mediaType"},
			},
		},
		Ids: map[uint32]string{1: "audio"},
	}

	p := encode(t, pod.ObjectOf(262147, 3,
		pod.Prop(1, 0, pod.Id(1)),
		pod.Prop(2, 0, pod.Int(48000)),
	))

	got, err := Dump(table, p)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	want := "Object: size 56, type Format (262147), id 3\n" +
		"  Prop: key mediaType (1), flags 0x000000\n" +
		"    Id audio (1)\n" +
		"  Prop: key 2, flags 0x000000\n" +
		"    Int 48000\n"
	if got != want {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, want)
	}
}

func TestDumpChoice(t *testing.T) {
	p := encode(t, pod.ChoiceOf(pod.ChoiceRange, 0, pod.TypeInt,
		pod.Int(44100), pod.Int(8000), pod.Int(96000)))

	got, err := Dump(DefaultTable(), p)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	want := "Choice: kind Range, flags 0x000000, child.size 4, child.type Int\n" +
		"  Int 44100\n" +
		"  Int 8000\n" +
		"  Int 96000\n"
	if got != want {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, want)
	}
}

func TestDumpUnknownTag(t *testing.T) {
	data := []byte{2, 0, 0, 0, 99, 0, 0, 0, 0xab, 0xcd, 0, 0, 0, 0, 0, 0}
	p, err := pod.FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	got, err := Dump(DefaultTable(), p)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	want := "Unknown type 99 size 2 [ab cd]\n"
	if got != want {
		t.Errorf("Dump() = %q, want %q", got, want)
	}
}

func TestRenderValueMatchesRender(t *testing.T) {
	v := pod.StructOf(pod.Bool(true), pod.Long(-5))
	p := encode(t, v)

	direct, err := Dump(DefaultTable(), p)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	var sb strings.Builder
	if err := RenderValue(&sb, 0, DefaultTable(), v); err != nil {
		t.Fatalf("RenderValue() error = %v", err)
	}
	if sb.String() != direct {
		t.Errorf("RenderValue() = %q, Render() = %q", sb.String(), direct)
	}
}

func TestLoadTable(t *testing.T) {
	yml := `
objects:
  262147:
    name: Format
    keys:
      1: mediaType
ids:
  1: audio
controls:
  2: Properties
`
	table, err := LoadTable(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if got := table.ObjectName(262147); got != "Format (262147)" {
		t.Errorf("ObjectName() = %q", got)
	}
	if got := table.KeyName(262147, 1); got != "mediaType (1)" {
		t.Errorf("KeyName() = %q", got)
	}
	if got := table.IdName(1); got != "audio (1)" {
		t.Errorf("IdName() = %q", got)
	}
	if got := table.IdName(99); got != "99" {
		t.Errorf("IdName(unknown) = %q", got)
	}
}

func TestLoadTableRejectsUnknownFields(t *testing.T) {
	if _, err := LoadTable(strings.NewReader("bogus: 1\n")); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("LoadTable() error = %v, want invalid_data", err)
	}
}
