package pod

import (
	"github.com/lumastream/podwire/errors"
)

// maxLiftDepth bounds tree lifting so adversarial nesting cannot
// exhaust the call stack.
const maxLiftDepth = 128

// Value is a decoded pod lifted out of its buffer: a self-contained tree
// that no longer aliases the wire bytes. It is the currency of the debug
// renderer and the CBOR transcoder.
//
// Pods with tags this library does not know lift into a raw node that
// re-encodes verbatim.
type Value struct {
	typ Type

	boolVal  bool
	uintVal  uint32 // Id
	intVal   int64  // Int, Long, Fd
	floatVal float64
	strVal   string
	bytesVal []byte // Bytes, Bitmap, raw unknown (full pod bytes)
	rectVal  Rectangle
	fracVal  Fraction
	ptrVal   Pointer

	arrayVal  *ArrayValue
	structVal []*Value
	objectVal *ObjectValue
	choiceVal *ChoiceValue
	seqVal    *SequenceValue
}

// ArrayValue is a decoded homogeneous array.
type ArrayValue struct {
	ChildType Type
	Values    []*Value
}

// ObjectValue is a decoded keyed object.
type ObjectValue struct {
	Type       uint32
	Id         uint32
	Properties []PropertyValue
}

// PropertyValue is one decoded object property.
type PropertyValue struct {
	Value *Value
	Key   uint32
	Flags uint32
}

// ChoiceValue is a decoded constraint over a child type.
type ChoiceValue struct {
	Kind      ChoiceKind
	Flags     uint32
	ChildType Type
	Values    []*Value
}

// SequenceValue is a decoded list of timed controls.
type SequenceValue struct {
	Unit     uint32
	Controls []ControlValue
}

// ControlValue is one decoded sequence control.
type ControlValue struct {
	Value  *Value
	Offset uint32
	Type   uint32
}

// Constructors

// None returns the empty value.
func None() *Value { return &Value{typ: TypeNone} }

// Bool returns a boolean value.
func Bool(v bool) *Value { return &Value{typ: TypeBool, boolVal: v} }

// Id returns an opaque enumerated value.
func Id(v uint32) *Value { return &Value{typ: TypeId, uintVal: v} }

// Int returns a 32-bit integer value.
func Int(v int32) *Value { return &Value{typ: TypeInt, intVal: int64(v)} }

// Long returns a 64-bit integer value.
func Long(v int64) *Value { return &Value{typ: TypeLong, intVal: v} }

// Float returns a 32-bit float value.
func Float(v float32) *Value { return &Value{typ: TypeFloat, floatVal: float64(v)} }

// Double returns a 64-bit float value.
func Double(v float64) *Value { return &Value{typ: TypeDouble, floatVal: v} }

// String returns a string value.
func String(v string) *Value { return &Value{typ: TypeString, strVal: v} }

// Bytes returns a raw byte value.
func Bytes(v []byte) *Value { return &Value{typ: TypeBytes, bytesVal: v} }

// Bitmap returns a bitmap value.
func Bitmap(v []byte) *Value { return &Value{typ: TypeBitmap, bytesVal: v} }

// RectangleValue returns a width/height value.
func RectangleValue(width, height uint32) *Value {
	return &Value{typ: TypeRectangle, rectVal: Rectangle{Width: width, Height: height}}
}

// FractionValue returns a num/denom value.
func FractionValue(num, denom uint32) *Value {
	return &Value{typ: TypeFraction, fracVal: Fraction{Num: num, Denom: denom}}
}

// PointerValue returns a type-tagged opaque address value.
func PointerValue(ptrType uint32, addr uint64) *Value {
	return &Value{typ: TypePointer, ptrVal: Pointer{Type: ptrType, Addr: addr}}
}

// Fd returns a file-descriptor handle value.
func Fd(v int64) *Value { return &Value{typ: TypeFd, intVal: v} }

// ArrayOf returns a homogeneous array value over the given child type.
func ArrayOf(childType Type, values ...*Value) *Value {
	return &Value{typ: TypeArray, arrayVal: &ArrayValue{ChildType: childType, Values: values}}
}

// StructOf returns an ordered heterogeneous struct value.
func StructOf(values ...*Value) *Value {
	return &Value{typ: TypeStruct, structVal: values}
}

// ObjectOf returns a keyed object value.
func ObjectOf(objType, objId uint32, props ...PropertyValue) *Value {
	return &Value{typ: TypeObject, objectVal: &ObjectValue{Type: objType, Id: objId, Properties: props}}
}

// Prop builds one object property.
func Prop(key uint32, flags uint32, value *Value) PropertyValue {
	return PropertyValue{Key: key, Flags: flags, Value: value}
}

// ChoiceOf returns a constraint value over the given child type.
func ChoiceOf(kind ChoiceKind, flags uint32, childType Type, values ...*Value) *Value {
	return &Value{typ: TypeChoice, choiceVal: &ChoiceValue{
		Kind: kind, Flags: flags, ChildType: childType, Values: values,
	}}
}

// SequenceOf returns a timed control sequence value.
func SequenceOf(unit uint32, controls ...ControlValue) *Value {
	return &Value{typ: TypeSequence, seqVal: &SequenceValue{Unit: unit, Controls: controls}}
}

// ControlOf builds one sequence control.
func ControlOf(offset, ctype uint32, value *Value) ControlValue {
	return ControlValue{Offset: offset, Type: ctype, Value: value}
}

// Raw returns a value wrapping a complete encoded pod of a type this
// library does not interpret. The bytes re-encode verbatim.
func Raw(data []byte) (*Value, error) {
	p, err := FromBytes(data)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	return &Value{typ: p.Type(), bytesVal: cp}, nil
}

// Accessors

// Kind returns the wire tag this value lifts to.
func (v *Value) Kind() Type {
	if v == nil {
		return TypeNone
	}
	return v.typ
}

func (v *Value) mismatch(want Type) error {
	return errors.TypeMismatch(errors.PhaseTooling, want.String(), v.Kind().String())
}

// IsNone reports whether the value is empty.
func (v *Value) IsNone() bool { return v == nil || v.typ == TypeNone }

// AsBool returns the boolean payload.
func (v *Value) AsBool() (bool, error) {
	if v == nil || v.typ != TypeBool {
		return false, v.mismatch(TypeBool)
	}
	return v.boolVal, nil
}

// AsId returns the enumerated payload.
func (v *Value) AsId() (uint32, error) {
	if v == nil || v.typ != TypeId {
		return 0, v.mismatch(TypeId)
	}
	return v.uintVal, nil
}

// AsInt returns the 32-bit integer payload.
func (v *Value) AsInt() (int32, error) {
	if v == nil || v.typ != TypeInt {
		return 0, v.mismatch(TypeInt)
	}
	return int32(v.intVal), nil
}

// AsLong returns the 64-bit integer payload.
func (v *Value) AsLong() (int64, error) {
	if v == nil || v.typ != TypeLong {
		return 0, v.mismatch(TypeLong)
	}
	return v.intVal, nil
}

// AsFloat returns the 32-bit float payload.
func (v *Value) AsFloat() (float32, error) {
	if v == nil || v.typ != TypeFloat {
		return 0, v.mismatch(TypeFloat)
	}
	return float32(v.floatVal), nil
}

// AsDouble returns the 64-bit float payload.
func (v *Value) AsDouble() (float64, error) {
	if v == nil || v.typ != TypeDouble {
		return 0, v.mismatch(TypeDouble)
	}
	return v.floatVal, nil
}

// AsString returns the string payload.
func (v *Value) AsString() (string, error) {
	if v == nil || v.typ != TypeString {
		return "", v.mismatch(TypeString)
	}
	return v.strVal, nil
}

// AsBytes returns the byte payload of a Bytes value.
func (v *Value) AsBytes() ([]byte, error) {
	if v == nil || v.typ != TypeBytes {
		return nil, v.mismatch(TypeBytes)
	}
	return v.bytesVal, nil
}

// AsBitmap returns the byte payload of a Bitmap value.
func (v *Value) AsBitmap() ([]byte, error) {
	if v == nil || v.typ != TypeBitmap {
		return nil, v.mismatch(TypeBitmap)
	}
	return v.bytesVal, nil
}

// AsRectangle returns the rectangle payload.
func (v *Value) AsRectangle() (Rectangle, error) {
	if v == nil || v.typ != TypeRectangle {
		return Rectangle{}, v.mismatch(TypeRectangle)
	}
	return v.rectVal, nil
}

// AsFraction returns the fraction payload.
func (v *Value) AsFraction() (Fraction, error) {
	if v == nil || v.typ != TypeFraction {
		return Fraction{}, v.mismatch(TypeFraction)
	}
	return v.fracVal, nil
}

// AsPointer returns the pointer payload.
func (v *Value) AsPointer() (Pointer, error) {
	if v == nil || v.typ != TypePointer {
		return Pointer{}, v.mismatch(TypePointer)
	}
	return v.ptrVal, nil
}

// AsFd returns the file-descriptor payload.
func (v *Value) AsFd() (int64, error) {
	if v == nil || v.typ != TypeFd {
		return 0, v.mismatch(TypeFd)
	}
	return v.intVal, nil
}

// AsArray returns the array payload.
func (v *Value) AsArray() (*ArrayValue, error) {
	if v == nil || v.typ != TypeArray {
		return nil, v.mismatch(TypeArray)
	}
	return v.arrayVal, nil
}

// AsStruct returns the ordered struct fields.
func (v *Value) AsStruct() ([]*Value, error) {
	if v == nil || v.typ != TypeStruct {
		return nil, v.mismatch(TypeStruct)
	}
	return v.structVal, nil
}

// AsObject returns the object payload.
func (v *Value) AsObject() (*ObjectValue, error) {
	if v == nil || v.typ != TypeObject {
		return nil, v.mismatch(TypeObject)
	}
	return v.objectVal, nil
}

// AsChoice returns the choice payload.
func (v *Value) AsChoice() (*ChoiceValue, error) {
	if v == nil || v.typ != TypeChoice {
		return nil, v.mismatch(TypeChoice)
	}
	return v.choiceVal, nil
}

// AsSequence returns the sequence payload.
func (v *Value) AsSequence() (*SequenceValue, error) {
	if v == nil || v.typ != TypeSequence {
		return nil, v.mismatch(TypeSequence)
	}
	return v.seqVal, nil
}

// AsRaw returns the verbatim pod bytes of an unknown-typed value.
func (v *Value) AsRaw() ([]byte, error) {
	if !v.IsRaw() {
		return nil, errors.TypeMismatch(errors.PhaseTooling, "unknown type", v.Kind().String())
	}
	return v.bytesVal, nil
}

// IsRaw reports whether the value wraps a pod this library does not
// interpret. Pod is a meta-tag with no layout of its own, so it is
// carried verbatim like an unknown tag.
func (v *Value) IsRaw() bool {
	if v == nil {
		return false
	}
	if v.typ == TypePod {
		return true
	}
	_, known := typeNames[v.typ]
	return !known
}

// FromPod lifts a raw pod into a Value tree. The tree copies everything
// it needs; the source buffer can be discarded afterwards.
func FromPod(p Pod) (*Value, error) {
	return liftPod(p, 0)
}

func liftPod(p Pod, depth int) (*Value, error) {
	if depth > maxLiftDepth {
		return nil, errors.MalformedContainer(errors.PhaseDecode, "nesting exceeds %d levels", maxLiftDepth)
	}

	switch p.Type() {
	case TypeNone:
		return None(), nil
	case TypeBool:
		b, err := p.GetBool()
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case TypeId:
		id, err := p.GetId()
		if err != nil {
			return nil, err
		}
		return Id(id), nil
	case TypeInt:
		i, err := p.GetInt()
		if err != nil {
			return nil, err
		}
		return Int(i), nil
	case TypeLong:
		l, err := p.GetLong()
		if err != nil {
			return nil, err
		}
		return Long(l), nil
	case TypeFloat:
		f, err := p.GetFloat()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case TypeDouble:
		d, err := p.GetDouble()
		if err != nil {
			return nil, err
		}
		return Double(d), nil
	case TypeString:
		s, err := p.GetString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case TypeBytes:
		b, err := p.GetBytes()
		if err != nil {
			return nil, err
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return Bytes(cp), nil
	case TypeBitmap:
		b, err := p.GetBitmap()
		if err != nil {
			return nil, err
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return Bitmap(cp), nil
	case TypeRectangle:
		r, err := p.GetRectangle()
		if err != nil {
			return nil, err
		}
		return RectangleValue(r.Width, r.Height), nil
	case TypeFraction:
		f, err := p.GetFraction()
		if err != nil {
			return nil, err
		}
		return FractionValue(f.Num, f.Denom), nil
	case TypePointer:
		ptr, err := p.GetPointer()
		if err != nil {
			return nil, err
		}
		return PointerValue(ptr.Type, ptr.Addr), nil
	case TypeFd:
		fd, err := p.GetFd()
		if err != nil {
			return nil, err
		}
		return Fd(fd), nil
	case TypeArray:
		ab, err := p.Array()
		if err != nil {
			return nil, err
		}
		vals, err := liftPacked(ab, depth)
		if err != nil {
			return nil, err
		}
		return ArrayOf(ab.ChildType, vals...), nil
	case TypeChoice:
		cb, err := p.Choice()
		if err != nil {
			return nil, err
		}
		vals, err := liftPacked(&cb.ArrayBody, depth)
		if err != nil {
			return nil, err
		}
		return ChoiceOf(cb.Kind, cb.Flags, cb.ChildType, vals...), nil
	case TypeStruct:
		fields, err := p.Fields()
		if err != nil {
			return nil, err
		}
		vals := make([]*Value, 0, len(fields))
		for _, f := range fields {
			v, err := liftPod(f, depth+1)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return StructOf(vals...), nil
	case TypeObject:
		objType, err := p.ObjectType()
		if err != nil {
			return nil, err
		}
		objId, _ := p.ObjectId()
		props, err := p.Properties()
		if err != nil {
			return nil, err
		}
		pvals := make([]PropertyValue, 0, len(props))
		for _, prop := range props {
			v, err := liftPod(prop.Value, depth+1)
			if err != nil {
				return nil, err
			}
			pvals = append(pvals, Prop(prop.Key, prop.Flags, v))
		}
		return ObjectOf(objType, objId, pvals...), nil
	case TypeSequence:
		unit, err := p.SequenceUnit()
		if err != nil {
			return nil, err
		}
		ctrls, err := p.Controls()
		if err != nil {
			return nil, err
		}
		cvals := make([]ControlValue, 0, len(ctrls))
		for _, c := range ctrls {
			v, err := liftPod(c.Value, depth+1)
			if err != nil {
				return nil, err
			}
			cvals = append(cvals, ControlOf(c.Offset, c.Type, v))
		}
		return SequenceOf(unit, cvals...), nil
	default:
		// Unknown tag: keep the bytes so the value round-trips.
		return Raw(p)
	}
}

// packedScalarSize returns the body size of a fixed-size scalar that can
// live in a packed container. Variable-size and container types cannot:
// their elements would need per-element headers.
func packedScalarSize(t Type) (uint32, bool) {
	switch t {
	case TypeBool, TypeId, TypeInt, TypeFloat:
		return 4, true
	case TypeLong, TypeDouble, TypeFd, TypeRectangle, TypeFraction:
		return 8, true
	case TypePointer:
		return 16, true
	}
	return 0, false
}

// liftPacked turns headerless array/choice elements into scalar values.
// A known scalar child type must use its natural stride, otherwise the
// lifted value could not re-encode to the same bytes.
func liftPacked(ab *ArrayBody, depth int) ([]*Value, error) {
	n := ab.Len()
	if _, known := typeNames[ab.ChildType]; n > 0 && known {
		size, scalar := packedScalarSize(ab.ChildType)
		if !scalar {
			return nil, errors.InvalidData(errors.PhaseDecode,
				"packed container with non-scalar child type %s", ab.ChildType)
		}
		if ab.ChildSize != size {
			return nil, errors.InvalidData(errors.PhaseDecode,
				"packed %s elements with stride %d, want %d", ab.ChildType, ab.ChildSize, size)
		}
	}
	vals := make([]*Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := liftPod(ab.ElemPod(i), depth+1)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}
