package pod

import "fmt"

// Type is the wire tag of a pod. The tag space is open: tags unknown to
// this library are representable and skippable through the declared size,
// so buffers produced by newer peers still round-trip.
type Type uint32

const (
	TypeNone      Type = 1
	TypeBool      Type = 2
	TypeId        Type = 3
	TypeInt       Type = 4
	TypeLong      Type = 5
	TypeFloat     Type = 6
	TypeDouble    Type = 7
	TypeString    Type = 8
	TypeBytes     Type = 9
	TypeRectangle Type = 10
	TypeFraction  Type = 11
	TypeBitmap    Type = 12
	TypeArray     Type = 13
	TypeStruct    Type = 14
	TypeObject    Type = 15
	TypeSequence  Type = 16
	TypePointer   Type = 17
	TypeFd        Type = 18
	TypeChoice    Type = 19
	TypePod       Type = 20
)

var typeNames = map[Type]string{
	TypeNone:      "None",
	TypeBool:      "Bool",
	TypeId:        "Id",
	TypeInt:       "Int",
	TypeLong:      "Long",
	TypeFloat:     "Float",
	TypeDouble:    "Double",
	TypeString:    "String",
	TypeBytes:     "Bytes",
	TypeRectangle: "Rectangle",
	TypeFraction:  "Fraction",
	TypeBitmap:    "Bitmap",
	TypeArray:     "Array",
	TypeStruct:    "Struct",
	TypeObject:    "Object",
	TypeSequence:  "Sequence",
	TypePointer:   "Pointer",
	TypeFd:        "Fd",
	TypeChoice:    "Choice",
	TypePod:       "Pod",
}

// String returns the tag name, or the numeric tag for unknown types.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// IsContainer reports whether the tag names a container kind.
func (t Type) IsContainer() bool {
	switch t {
	case TypeArray, TypeStruct, TypeObject, TypeSequence, TypeChoice:
		return true
	}
	return false
}

// ChoiceKind describes the constraint a Choice places on its value space.
type ChoiceKind uint32

const (
	// ChoiceNone holds exactly one concrete value.
	ChoiceNone ChoiceKind = 0
	// ChoiceRange holds a default, a minimum and a maximum.
	ChoiceRange ChoiceKind = 1
	// ChoiceStep holds a default, a minimum, a maximum and a step.
	ChoiceStep ChoiceKind = 2
	// ChoiceEnum holds a default followed by the alternatives.
	ChoiceEnum ChoiceKind = 3
	// ChoiceFlags holds a default followed by the possible flag bits.
	ChoiceFlags ChoiceKind = 4
)

var choiceNames = map[ChoiceKind]string{
	ChoiceNone:  "None",
	ChoiceRange: "Range",
	ChoiceStep:  "Step",
	ChoiceEnum:  "Enum",
	ChoiceFlags: "Flags",
}

// String returns the choice kind name, or the numeric kind when unknown.
func (c ChoiceKind) String() string {
	if name, ok := choiceNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ChoiceKind(%d)", uint32(c))
}

const (
	// HeaderSize is the byte length of the {size, type} header that
	// starts every pod.
	HeaderSize = 8
	// Alignment is the boundary every sibling pod starts on. Padding
	// bytes between siblings are zero and excluded from the size field.
	Alignment = 8
)

// RoundUp rounds size up to the next Alignment boundary.
func RoundUp(size uint32) uint32 {
	return (size + Alignment - 1) &^ uint32(Alignment-1)
}

// Rectangle is the body of a Rectangle pod.
type Rectangle struct {
	Width  uint32
	Height uint32
}

// Fraction is the body of a Fraction pod.
type Fraction struct {
	Num   uint32
	Denom uint32
}

// Pointer is the body of a Pointer pod. The address is only meaningful
// inside the process that produced it.
type Pointer struct {
	Type uint32
	Addr uint64
}
