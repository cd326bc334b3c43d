package pod

import (
	"encoding/binary"

	"github.com/lumastream/podwire/errors"
)

// Property is one keyed entry of an Object pod.
type Property struct {
	Value Pod
	Key   uint32
	Flags uint32
}

// Control is one timed entry of a Sequence pod.
type Control struct {
	Value  Pod
	Offset uint32
	Type   uint32
}

// ArrayBody exposes the packed elements of an Array pod. Elements share
// one child descriptor and carry no per-element headers.
type ArrayBody struct {
	elems     []byte
	ChildType Type
	ChildSize uint32
}

// ChoiceBody exposes a Choice pod: a constraint kind and flags over
// packed values laid out exactly like an Array body.
type ChoiceBody struct {
	ArrayBody
	Kind  ChoiceKind
	Flags uint32
}

// walkChildren collects the full pods packed back to back in body,
// starting at skip. Each child is followed by alignment padding that is
// included in the enclosing container's size.
func walkChildren(body []byte, skip uint32) ([]Pod, error) {
	var children []Pod
	off := skip
	for uint64(off)+HeaderSize <= uint64(len(body)) {
		child, err := FromBytes(body[off:])
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		off += child.PaddedSpan()
	}
	if uint64(off) < uint64(len(body)) {
		return nil, errors.MalformedContainer(errors.PhaseDecode,
			"trailing %d bytes at offset %d cannot hold a child", uint32(len(body))-off, off)
	}
	return children, nil
}

// Fields returns the ordered child pods of a Struct.
func (p Pod) Fields() ([]Pod, error) {
	if !p.IsStruct() {
		return nil, p.mismatch(TypeStruct)
	}
	return walkChildren(p.Body(), 0)
}

// ObjectType returns the object-type tag of an Object pod.
func (p Pod) ObjectType() (uint32, error) {
	if !p.IsObject() {
		return 0, p.mismatch(TypeObject)
	}
	return binary.LittleEndian.Uint32(p.Body()), nil
}

// ObjectId returns the id distinguishing sub-variants of the object type.
func (p Pod) ObjectId() (uint32, error) {
	if !p.IsObject() {
		return 0, p.mismatch(TypeObject)
	}
	return binary.LittleEndian.Uint32(p.Body()[4:]), nil
}

// Properties returns the object's properties in wire order. Duplicate
// keys are legal on the wire and returned as-is; any last-one-wins
// policy is the caller's decision.
func (p Pod) Properties() ([]Property, error) {
	if !p.IsObject() {
		return nil, p.mismatch(TypeObject)
	}
	body := p.Body()
	var props []Property
	off := uint32(8)
	for uint64(off)+8+HeaderSize <= uint64(len(body)) {
		key := binary.LittleEndian.Uint32(body[off:])
		flags := binary.LittleEndian.Uint32(body[off+4:])
		value, err := FromBytes(body[off+8:])
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Key: key, Flags: flags, Value: value})
		off += 8 + value.PaddedSpan()
	}
	if uint64(off) < uint64(len(body)) {
		return nil, errors.MalformedContainer(errors.PhaseDecode,
			"trailing %d bytes at offset %d cannot hold a property", uint32(len(body))-off, off)
	}
	return props, nil
}

// FindProperty returns the first property with the given key, or false
// when the object has none.
func (p Pod) FindProperty(key uint32) (Property, bool, error) {
	props, err := p.Properties()
	if err != nil {
		return Property{}, false, err
	}
	for _, prop := range props {
		if prop.Key == key {
			return prop, true, nil
		}
	}
	return Property{}, false, nil
}

// SequenceUnit returns the time unit of a Sequence pod.
func (p Pod) SequenceUnit() (uint32, error) {
	if !p.IsSequence() {
		return 0, p.mismatch(TypeSequence)
	}
	return binary.LittleEndian.Uint32(p.Body()), nil
}

// Controls returns the sequence's timed controls in wire order.
func (p Pod) Controls() ([]Control, error) {
	if !p.IsSequence() {
		return nil, p.mismatch(TypeSequence)
	}
	body := p.Body()
	var controls []Control
	off := uint32(8)
	for uint64(off)+8+HeaderSize <= uint64(len(body)) {
		offset := binary.LittleEndian.Uint32(body[off:])
		ctype := binary.LittleEndian.Uint32(body[off+4:])
		value, err := FromBytes(body[off+8:])
		if err != nil {
			return nil, err
		}
		controls = append(controls, Control{Offset: offset, Type: ctype, Value: value})
		off += 8 + value.PaddedSpan()
	}
	if uint64(off) < uint64(len(body)) {
		return nil, errors.MalformedContainer(errors.PhaseDecode,
			"trailing %d bytes at offset %d cannot hold a control", uint32(len(body))-off, off)
	}
	return controls, nil
}

// Array returns the packed element view of an Array pod.
func (p Pod) Array() (*ArrayBody, error) {
	if !p.IsArray() {
		return nil, p.mismatch(TypeArray)
	}
	body := p.Body()
	ab := &ArrayBody{
		ChildSize: binary.LittleEndian.Uint32(body),
		ChildType: Type(binary.LittleEndian.Uint32(body[4:])),
		elems:     body[HeaderSize:],
	}
	if err := ab.validate(); err != nil {
		return nil, err
	}
	return ab, nil
}

// Choice returns the constraint view of a Choice pod.
func (p Pod) Choice() (*ChoiceBody, error) {
	if !p.IsChoice() {
		return nil, p.mismatch(TypeChoice)
	}
	body := p.Body()
	cb := &ChoiceBody{
		Kind:  ChoiceKind(binary.LittleEndian.Uint32(body)),
		Flags: binary.LittleEndian.Uint32(body[4:]),
		ArrayBody: ArrayBody{
			ChildSize: binary.LittleEndian.Uint32(body[8:]),
			ChildType: Type(binary.LittleEndian.Uint32(body[12:])),
			elems:     body[8+HeaderSize:],
		},
	}
	if err := cb.validate(); err != nil {
		return nil, err
	}
	return cb, nil
}

func (a *ArrayBody) validate() error {
	if a.ChildSize == 0 {
		if len(a.elems) != 0 {
			return errors.InvalidData(errors.PhaseDecode, "array has %d element bytes but zero child size", len(a.elems))
		}
		return nil
	}
	if uint32(len(a.elems))%a.ChildSize != 0 {
		return errors.InvalidData(errors.PhaseDecode,
			"array body of %d bytes is not a multiple of child size %d", len(a.elems), a.ChildSize)
	}
	return nil
}

// Len returns the number of packed elements.
func (a *ArrayBody) Len() int {
	if a.ChildSize == 0 {
		return 0
	}
	return len(a.elems) / int(a.ChildSize)
}

// Elem returns the raw bytes of element i.
func (a *ArrayBody) Elem(i int) []byte {
	start := uint32(i) * a.ChildSize
	return a.elems[start : start+a.ChildSize]
}

// ElemPod returns element i wrapped as a pod of the child type, so the
// scalar getters apply. The returned pod is synthesized (elements carry
// no headers on the wire).
func (a *ArrayBody) ElemPod(i int) Pod {
	buf := make([]byte, HeaderSize+a.ChildSize)
	binary.LittleEndian.PutUint32(buf, a.ChildSize)
	binary.LittleEndian.PutUint32(buf[4:], uint32(a.ChildType))
	copy(buf[HeaderSize:], a.Elem(i))
	return Pod(buf)
}
