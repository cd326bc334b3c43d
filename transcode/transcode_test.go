package transcode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/lumastream/podwire/pod"
)

func TestToPlainScalars(t *testing.T) {
	tests := []struct {
		name string
		in   *pod.Value
		want any
	}{
		{"none", pod.None(), nil},
		{"bool", pod.Bool(true), true},
		{"int", pod.Int(-7), int32(-7)},
		{"long", pod.Long(1 << 40), int64(1 << 40)},
		{"string", pod.String("hi"), "hi"},
		{"fd", pod.Fd(3), int64(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPlain(tt.in)
			if err != nil {
				t.Fatalf("ToPlain() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ToPlain() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestToPlainObject(t *testing.T) {
	v := pod.ObjectOf(262147, 3,
		pod.Prop(1, 0, pod.Id(1)),
		pod.Prop(2, 0, pod.FractionValue(30, 1)),
	)
	got, err := ToPlain(v)
	if err != nil {
		t.Fatalf("ToPlain() error = %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("ToPlain() = %T, want map", got)
	}
	if m["type"] != uint32(262147) || m["id"] != uint32(3) {
		t.Errorf("type/id = %v/%v, want 262147/3", m["type"], m["id"])
	}
	props, ok := m["properties"].([]any)
	if !ok || len(props) != 2 {
		t.Fatalf("properties = %v, want 2 entries", m["properties"])
	}
	first := props[0].(map[string]any)
	if first["key"] != uint32(1) {
		t.Errorf("first key = %v, want 1", first["key"])
	}
}

func TestMarshalDeterministic(t *testing.T) {
	v := pod.StructOf(
		pod.Int(1),
		pod.ObjectOf(9, 0, pod.Prop(5, 0, pod.String("x"))),
	)
	a, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	b, err := Marshal(v)
	if err != nil {
		t.Fatalf("second Marshal() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("Marshal() is not deterministic:\n% x\n% x", a, b)
	}

	// the output is standard CBOR
	var decoded any
	if err := cbor.Unmarshal(a, &decoded); err != nil {
		t.Errorf("output is not valid CBOR: %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	v := pod.StructOf(pod.Int(42), pod.String("hi"))
	got, err := Diagnose(v)
	if err != nil {
		t.Fatalf("Diagnose() error = %v", err)
	}
	if !strings.Contains(got, "42") || !strings.Contains(got, `"hi"`) {
		t.Errorf("Diagnose() = %q, want it to mention 42 and \"hi\"", got)
	}
}

func TestToPlainChoiceKind(t *testing.T) {
	v := pod.ChoiceOf(pod.ChoiceEnum, 0, pod.TypeId, pod.Id(1), pod.Id(2))
	got, err := ToPlain(v)
	if err != nil {
		t.Fatalf("ToPlain() error = %v", err)
	}
	m := got.(map[string]any)
	if m["kind"] != "Enum" {
		t.Errorf("kind = %v, want Enum", m["kind"])
	}
	if vals := m["values"].([]any); len(vals) != 2 {
		t.Errorf("values = %v, want 2 entries", vals)
	}
}
