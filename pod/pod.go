package pod

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/lumastream/podwire/errors"
)

// Pod is a read-only view of one encoded value: an 8-byte {size, type}
// header followed by size body bytes. The view aliases the buffer it was
// derived from; callers must not mutate it while the view is live.
//
// All multi-byte fields are little-endian.
type Pod []byte

// FromBytes validates that data starts with a complete pod and returns a
// view covering exactly its header and body (trailing padding excluded).
func FromBytes(data []byte) (Pod, error) {
	if len(data) < HeaderSize {
		return nil, errors.OutOfBounds(errors.PhaseDecode, 0, HeaderSize, uint32(len(data)))
	}
	size := binary.LittleEndian.Uint32(data)
	if uint64(HeaderSize)+uint64(size) > uint64(len(data)) {
		return nil, errors.Truncated(errors.PhaseDecode, 0, size, uint32(len(data)))
	}
	return Pod(data[:HeaderSize+size]), nil
}

// Size returns the declared body size in bytes.
func (p Pod) Size() uint32 {
	if len(p) < HeaderSize {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

// Type returns the wire tag.
func (p Pod) Type() Type {
	if len(p) < HeaderSize {
		return 0
	}
	return Type(binary.LittleEndian.Uint32(p[4:]))
}

// Body returns the body bytes (without header or padding).
func (p Pod) Body() []byte {
	return p[HeaderSize : HeaderSize+p.Size()]
}

// Span returns header plus body length.
func (p Pod) Span() uint32 {
	return HeaderSize + p.Size()
}

// PaddedSpan returns the distance to the next sibling: Span rounded up
// to the alignment boundary.
func (p Pod) PaddedSpan() uint32 {
	return RoundUp(p.Span())
}

// Predicates. Each is an O(1) check of the header tag and the minimum
// body size for the kind; the body is never touched beyond the declared
// bounds.

func (p Pod) IsNone() bool      { return p.Type() == TypeNone }
func (p Pod) IsBool() bool      { return p.Type() == TypeBool && p.Size() >= 4 }
func (p Pod) IsId() bool        { return p.Type() == TypeId && p.Size() >= 4 }
func (p Pod) IsInt() bool       { return p.Type() == TypeInt && p.Size() >= 4 }
func (p Pod) IsLong() bool      { return p.Type() == TypeLong && p.Size() >= 8 }
func (p Pod) IsFloat() bool     { return p.Type() == TypeFloat && p.Size() >= 4 }
func (p Pod) IsDouble() bool    { return p.Type() == TypeDouble && p.Size() >= 8 }
func (p Pod) IsString() bool    { return p.Type() == TypeString && p.Size() >= 1 }
func (p Pod) IsBytes() bool     { return p.Type() == TypeBytes }
func (p Pod) IsRectangle() bool { return p.Type() == TypeRectangle && p.Size() >= 8 }
func (p Pod) IsFraction() bool  { return p.Type() == TypeFraction && p.Size() >= 8 }
func (p Pod) IsBitmap() bool    { return p.Type() == TypeBitmap }
func (p Pod) IsArray() bool     { return p.Type() == TypeArray && p.Size() >= HeaderSize }
func (p Pod) IsStruct() bool    { return p.Type() == TypeStruct }
func (p Pod) IsObject() bool    { return p.Type() == TypeObject && p.Size() >= 8 }
func (p Pod) IsSequence() bool  { return p.Type() == TypeSequence && p.Size() >= 8 }
func (p Pod) IsPointer() bool   { return p.Type() == TypePointer && p.Size() >= 16 }
func (p Pod) IsFd() bool        { return p.Type() == TypeFd && p.Size() >= 8 }
func (p Pod) IsChoice() bool    { return p.Type() == TypeChoice && p.Size() >= HeaderSize+8 }

// mismatch builds the TypeMismatch error for a getter.
func (p Pod) mismatch(want Type) error {
	return errors.TypeMismatch(errors.PhaseDecode, want.String(), p.Type().String())
}

// Typed getters. Each re-validates the tag before reinterpreting the
// body and performs no numeric conversion: asking for an Int out of a
// Long-tagged pod fails rather than truncating.

// GetBool returns the boolean body. Any non-zero word is true.
func (p Pod) GetBool() (bool, error) {
	if !p.IsBool() {
		return false, p.mismatch(TypeBool)
	}
	return binary.LittleEndian.Uint32(p.Body()) != 0, nil
}

// GetId returns the opaque enumerated value.
func (p Pod) GetId() (uint32, error) {
	if !p.IsId() {
		return 0, p.mismatch(TypeId)
	}
	return binary.LittleEndian.Uint32(p.Body()), nil
}

// GetInt returns the 32-bit integer body.
func (p Pod) GetInt() (int32, error) {
	if !p.IsInt() {
		return 0, p.mismatch(TypeInt)
	}
	return int32(binary.LittleEndian.Uint32(p.Body())), nil
}

// GetLong returns the 64-bit integer body.
func (p Pod) GetLong() (int64, error) {
	if !p.IsLong() {
		return 0, p.mismatch(TypeLong)
	}
	return int64(binary.LittleEndian.Uint64(p.Body())), nil
}

// GetFloat returns the 32-bit float body.
func (p Pod) GetFloat() (float32, error) {
	if !p.IsFloat() {
		return 0, p.mismatch(TypeFloat)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p.Body())), nil
}

// GetDouble returns the 64-bit float body.
func (p Pod) GetDouble() (float64, error) {
	if !p.IsDouble() {
		return 0, p.mismatch(TypeDouble)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p.Body())), nil
}

// GetString returns the string body without its NUL terminator. A body
// with no NUL inside the declared size is malformed data, not a panic.
func (p Pod) GetString() (string, error) {
	if !p.IsString() {
		return "", p.mismatch(TypeString)
	}
	body := p.Body()
	nul := bytes.IndexByte(body, 0)
	if nul < 0 {
		return "", errors.InvalidData(errors.PhaseDecode, "string body of %d bytes has no NUL terminator", len(body))
	}
	return string(body[:nul]), nil
}

// GetBytes returns the raw body. The slice aliases the underlying buffer.
func (p Pod) GetBytes() ([]byte, error) {
	if !p.IsBytes() {
		return nil, p.mismatch(TypeBytes)
	}
	return p.Body(), nil
}

// GetBitmap returns the bitmap body. The slice aliases the underlying buffer.
func (p Pod) GetBitmap() ([]byte, error) {
	if !p.IsBitmap() {
		return nil, p.mismatch(TypeBitmap)
	}
	return p.Body(), nil
}

// GetRectangle returns the rectangle body.
func (p Pod) GetRectangle() (Rectangle, error) {
	if !p.IsRectangle() {
		return Rectangle{}, p.mismatch(TypeRectangle)
	}
	body := p.Body()
	return Rectangle{
		Width:  binary.LittleEndian.Uint32(body),
		Height: binary.LittleEndian.Uint32(body[4:]),
	}, nil
}

// GetFraction returns the fraction body.
func (p Pod) GetFraction() (Fraction, error) {
	if !p.IsFraction() {
		return Fraction{}, p.mismatch(TypeFraction)
	}
	body := p.Body()
	return Fraction{
		Num:   binary.LittleEndian.Uint32(body),
		Denom: binary.LittleEndian.Uint32(body[4:]),
	}, nil
}

// GetPointer returns the type-tagged opaque address.
func (p Pod) GetPointer() (Pointer, error) {
	if !p.IsPointer() {
		return Pointer{}, p.mismatch(TypePointer)
	}
	body := p.Body()
	return Pointer{
		Type: binary.LittleEndian.Uint32(body),
		Addr: binary.LittleEndian.Uint64(body[8:]),
	}, nil
}

// GetFd returns the opaque file-descriptor handle.
func (p Pod) GetFd() (int64, error) {
	if !p.IsFd() {
		return 0, p.mismatch(TypeFd)
	}
	return int64(binary.LittleEndian.Uint64(p.Body())), nil
}
