package builder

import (
	"bytes"
	"encoding/binary"
	"math"

	"go.uber.org/zap"

	"github.com/lumastream/podwire/errors"
	"github.com/lumastream/podwire/pod"
)

// Grow supplies more capacity to a builder. It is called with the total
// number of bytes the buffer must now hold and returns a (possibly
// relocated) buffer that contains every previously written byte
// unchanged. Returning an error fails the write that needed the space;
// everything written before it stays valid.
//
// The callback runs synchronously on the writing goroutine and must not
// call back into the same builder.
type Grow func(needed uint32) ([]byte, error)

type frameFlags uint8

const (
	// flagFirst marks a packed container (Array/Choice) that has not
	// seen its first child yet. The first child writes the shared
	// child descriptor; later children write bodies only.
	flagFirst frameFlags = 1 << iota
	flagBody
)

// frame records one open container. Only offsets are stored, so buffer
// relocation by a Grow callback is transparent.
type frame struct {
	typ       pod.Type
	offset    uint32 // where the container's header starts
	flags     frameFlags
	childSize uint32
	childType pod.Type
}

// Frame is the caller's handle to one open container. Pop validates the
// handle against the top of the stack, so closing containers out of
// order or reusing a popped handle fails instead of corrupting sizes.
type Frame struct {
	typ    pod.Type
	offset uint32
	index  int
}

// State is a snapshot of the write cursor and open frames. Resetting to
// a snapshot discards everything written after it was taken, which is
// how speculative encodes are rolled back.
type State struct {
	offset uint32
	frames []frame
}

// Builder appends encoded pods to a byte buffer. Containers are opened
// with placeholder sizes and back-patched on Pop, so nothing needs to
// know its total size up front.
//
// A Builder is a single-goroutine value: frame mutation is
// unsynchronized by design.
type Builder struct {
	data   []byte
	grow   Grow
	frames []frame
	offset uint32
}

// New returns a fixed-capacity builder writing into the caller's buffer.
// Writes beyond len(buf) fail with an out-of-bounds error.
func New(buf []byte) *Builder {
	return &Builder{data: buf}
}

// NewWithGrow returns a builder over buf that asks grow for more
// capacity when a write would not fit.
func NewWithGrow(buf []byte, grow Grow) *Builder {
	return &Builder{data: buf, grow: grow}
}

// NewDynamic returns a self-growing builder with the given initial
// capacity. Growth doubles the buffer until the needed size fits.
func NewDynamic(initial int) *Builder {
	if initial < 64 {
		initial = 64
	}
	b := &Builder{data: make([]byte, initial)}
	b.grow = func(needed uint32) ([]byte, error) {
		ncap := uint64(len(b.data))
		if ncap == 0 {
			ncap = 64
		}
		for ncap < uint64(needed) {
			ncap *= 2
		}
		if ncap > math.MaxUint32 {
			ncap = uint64(needed)
		}
		nd := make([]byte, ncap)
		copy(nd, b.data)
		return nd, nil
	}
	return b
}

// Offset returns the current write offset.
func (b *Builder) Offset() uint32 {
	return b.offset
}

// Depth returns the number of currently open containers.
func (b *Builder) Depth() int {
	return len(b.frames)
}

// GetState snapshots the write cursor and open frames.
func (b *Builder) GetState() State {
	frames := make([]frame, len(b.frames))
	copy(frames, b.frames)
	return State{offset: b.offset, frames: frames}
}

// Reset restores a snapshot taken with GetState, discarding everything
// written after it. The snapshot is only valid for the builder it came
// from.
func (b *Builder) Reset(s State) {
	b.offset = s.offset
	b.frames = b.frames[:0]
	b.frames = append(b.frames, s.frames...)
	Logger().Debug("builder reset",
		zap.Uint32("offset", s.offset),
		zap.Int("depth", len(s.frames)))
}

// Deref returns a view of the pod whose header starts at offset,
// bounded by what has been written so far.
func (b *Builder) Deref(offset uint32) (pod.Pod, error) {
	if offset%pod.Alignment != 0 || uint64(offset)+pod.HeaderSize > uint64(b.offset) {
		return nil, errors.OutOfBounds(errors.PhaseEncode, offset, pod.HeaderSize, b.offset)
	}
	p, err := pod.FromBytes(b.data[offset:b.offset])
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Builder) top() *frame {
	if len(b.frames) == 0 {
		return nil
	}
	return &b.frames[len(b.frames)-1]
}

// reserve ensures n more bytes of capacity and returns the span they
// occupy, without advancing the cursor. Growth happens here; a failed
// reserve leaves the builder untouched, which gives every operation its
// rollback guarantee.
func (b *Builder) reserve(n uint32) ([]byte, error) {
	end := uint64(b.offset) + uint64(n)
	if end > math.MaxUint32 {
		return nil, errors.OutOfBounds(errors.PhaseEncode, b.offset, n, uint32(len(b.data)))
	}
	if end > uint64(len(b.data)) {
		if b.grow == nil {
			return nil, errors.OutOfBounds(errors.PhaseEncode, b.offset, n, uint32(len(b.data)))
		}
		nd, err := b.grow(uint32(end))
		if err != nil {
			return nil, errors.GrowthFailure(uint32(end), err)
		}
		if uint64(len(nd)) < end {
			return nil, errors.GrowthFailure(uint32(end), nil)
		}
		if !bytes.Equal(nd[:b.offset], b.data[:b.offset]) {
			return nil, errors.GrowthFailure(uint32(end),
				errors.InvalidData(errors.PhaseEncode, "grown buffer does not preserve previously written bytes"))
		}
		Logger().Debug("buffer grown",
			zap.Uint32("needed", uint32(end)),
			zap.Int("capacity", len(nd)))
		b.data = nd
	}
	return b.data[b.offset:end], nil
}

func (b *Builder) commit(n uint32) {
	b.offset += n
}

func putHeader(dst []byte, size uint32, t pod.Type) {
	binary.LittleEndian.PutUint32(dst, size)
	binary.LittleEndian.PutUint32(dst[4:], uint32(t))
}

func zero(dst []byte) {
	for i := range dst {
		dst[i] = 0
	}
}

// Raw appends bytes verbatim, with no header, padding, or frame logic.
func (b *Builder) Raw(data []byte) error {
	span, err := b.reserve(uint32(len(data)))
	if err != nil {
		return err
	}
	copy(span, data)
	b.commit(uint32(len(data)))
	return nil
}

// Pad rounds the write cursor up to the next alignment boundary by
// writing zero bytes.
func (b *Builder) Pad() error {
	n := pod.RoundUp(b.offset) - b.offset
	if n == 0 {
		return nil
	}
	span, err := b.reserve(n)
	if err != nil {
		return err
	}
	zero(span)
	b.commit(n)
	return nil
}

// RawPadded appends bytes verbatim followed by alignment padding.
func (b *Builder) RawPadded(data []byte) error {
	n := uint32(len(data))
	total := pod.RoundUp(n)
	span, err := b.reserve(total)
	if err != nil {
		return err
	}
	copy(span, data)
	zero(span[n:])
	b.commit(total)
	return nil
}

// writeValue appends one complete value. Inside an Array or Choice
// frame the shared child descriptor is written once with the first
// element; later elements append bodies only, unpadded. Everywhere else
// the value gets its own header and trailing padding.
func (b *Builder) writeValue(t pod.Type, bodySize uint32, fill func(body []byte)) error {
	if f := b.top(); f != nil && f.flags&(flagFirst|flagBody) != 0 {
		if f.flags&flagFirst != 0 {
			span, err := b.reserve(pod.HeaderSize + bodySize)
			if err != nil {
				return err
			}
			putHeader(span, bodySize, t)
			fill(span[pod.HeaderSize:])
			f.childSize = bodySize
			f.childType = t
			f.flags = flagBody
			b.commit(pod.HeaderSize + bodySize)
			return nil
		}
		if t != f.childType || bodySize != f.childSize {
			return errors.TypeMismatch(errors.PhaseEncode, f.childType.String(), t.String())
		}
		span, err := b.reserve(bodySize)
		if err != nil {
			return err
		}
		fill(span)
		b.commit(bodySize)
		return nil
	}

	total := pod.RoundUp(pod.HeaderSize + bodySize)
	span, err := b.reserve(total)
	if err != nil {
		return err
	}
	putHeader(span, bodySize, t)
	fill(span[pod.HeaderSize:])
	zero(span[pod.HeaderSize+bodySize:])
	b.commit(total)
	return nil
}

// Primitive appends a pre-built pod (header and body).
func (b *Builder) Primitive(p pod.Pod) error {
	if len(p) < pod.HeaderSize {
		return errors.InvalidData(errors.PhaseEncode, "primitive shorter than a pod header")
	}
	body := p.Body()
	return b.writeValue(p.Type(), uint32(len(body)), func(dst []byte) {
		copy(dst, body)
	})
}

// Scalar writers. Each produces a correctly tagged header and an
// appropriately padded body.

// None appends an empty value.
func (b *Builder) None() error {
	return b.writeValue(pod.TypeNone, 0, func([]byte) {})
}

// Bool appends a boolean.
func (b *Builder) Bool(v bool) error {
	return b.writeValue(pod.TypeBool, 4, func(dst []byte) {
		var w uint32
		if v {
			w = 1
		}
		binary.LittleEndian.PutUint32(dst, w)
	})
}

// Id appends an opaque enumerated value.
func (b *Builder) Id(v uint32) error {
	return b.writeValue(pod.TypeId, 4, func(dst []byte) {
		binary.LittleEndian.PutUint32(dst, v)
	})
}

// Int appends a 32-bit integer.
func (b *Builder) Int(v int32) error {
	return b.writeValue(pod.TypeInt, 4, func(dst []byte) {
		binary.LittleEndian.PutUint32(dst, uint32(v))
	})
}

// Long appends a 64-bit integer.
func (b *Builder) Long(v int64) error {
	return b.writeValue(pod.TypeLong, 8, func(dst []byte) {
		binary.LittleEndian.PutUint64(dst, uint64(v))
	})
}

// Float appends a 32-bit float.
func (b *Builder) Float(v float32) error {
	return b.writeValue(pod.TypeFloat, 4, func(dst []byte) {
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	})
}

// Double appends a 64-bit float.
func (b *Builder) Double(v float64) error {
	return b.writeValue(pod.TypeDouble, 8, func(dst []byte) {
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	})
}

// String appends a string; the declared size includes the NUL terminator.
func (b *Builder) String(s string) error {
	return b.writeValue(pod.TypeString, uint32(len(s))+1, func(dst []byte) {
		copy(dst, s)
		dst[len(s)] = 0
	})
}

// StringLen appends the first n bytes of s as a string body plus NUL.
func (b *Builder) StringLen(s string, n int) error {
	if n > len(s) {
		n = len(s)
	}
	return b.writeValue(pod.TypeString, uint32(n)+1, func(dst []byte) {
		copy(dst, s[:n])
		dst[n] = 0
	})
}

// Bytes appends a raw byte value.
func (b *Builder) Bytes(data []byte) error {
	return b.writeValue(pod.TypeBytes, uint32(len(data)), func(dst []byte) {
		copy(dst, data)
	})
}

// Bitmap appends a bitmap value.
func (b *Builder) Bitmap(data []byte) error {
	return b.writeValue(pod.TypeBitmap, uint32(len(data)), func(dst []byte) {
		copy(dst, data)
	})
}

// Pointer appends a type-tagged opaque address. The address is only
// meaningful inside the producing process.
func (b *Builder) Pointer(ptrType uint32, addr uint64) error {
	return b.writeValue(pod.TypePointer, 16, func(dst []byte) {
		binary.LittleEndian.PutUint32(dst, ptrType)
		binary.LittleEndian.PutUint32(dst[4:], 0)
		binary.LittleEndian.PutUint64(dst[8:], addr)
	})
}

// Fd appends an opaque file-descriptor handle.
func (b *Builder) Fd(v int64) error {
	return b.writeValue(pod.TypeFd, 8, func(dst []byte) {
		binary.LittleEndian.PutUint64(dst, uint64(v))
	})
}

// Rectangle appends a width/height pair.
func (b *Builder) Rectangle(width, height uint32) error {
	return b.writeValue(pod.TypeRectangle, 8, func(dst []byte) {
		binary.LittleEndian.PutUint32(dst, width)
		binary.LittleEndian.PutUint32(dst[4:], height)
	})
}

// Fraction appends a num/denom pair.
func (b *Builder) Fraction(num, denom uint32) error {
	return b.writeValue(pod.TypeFraction, 8, func(dst []byte) {
		binary.LittleEndian.PutUint32(dst, num)
		binary.LittleEndian.PutUint32(dst[4:], denom)
	})
}

// Child writes a bare {size, type} header with no body. Inside a packed
// container that has not seen a child yet, this sets the shared child
// descriptor without adding an element (how a typed empty array is
// encoded); elsewhere it is the provisional header primitive container
// writers build on.
func (b *Builder) Child(size uint32, t pod.Type) error {
	span, err := b.reserve(pod.HeaderSize)
	if err != nil {
		return err
	}
	putHeader(span, size, t)
	if f := b.top(); f != nil && f.flags&flagFirst != 0 {
		f.childSize = size
		f.childType = t
		f.flags = flagBody
	}
	b.commit(pod.HeaderSize)
	return nil
}

// push opens a frame whose header starts at offset.
func (b *Builder) push(t pod.Type, offset uint32, flags frameFlags) Frame {
	b.frames = append(b.frames, frame{typ: t, offset: offset, flags: flags})
	return Frame{typ: t, offset: offset, index: len(b.frames) - 1}
}

// checkNesting rejects opening a container inside a packed frame, whose
// children carry no headers.
func (b *Builder) checkNesting() error {
	if f := b.top(); f != nil && f.flags&(flagFirst|flagBody) != 0 {
		return errors.MalformedContainer(errors.PhaseEncode,
			"cannot open a container inside a packed %s", f.typ)
	}
	return nil
}

// PushStruct opens a struct container.
func (b *Builder) PushStruct() (Frame, error) {
	if err := b.checkNesting(); err != nil {
		return Frame{}, err
	}
	off := b.offset
	span, err := b.reserve(pod.HeaderSize)
	if err != nil {
		return Frame{}, err
	}
	putHeader(span, 0, pod.TypeStruct)
	b.commit(pod.HeaderSize)
	return b.push(pod.TypeStruct, off, 0), nil
}

// PushObject opens an object container with its type tag and id.
func (b *Builder) PushObject(objType, objId uint32) (Frame, error) {
	if err := b.checkNesting(); err != nil {
		return Frame{}, err
	}
	off := b.offset
	span, err := b.reserve(pod.HeaderSize + 8)
	if err != nil {
		return Frame{}, err
	}
	putHeader(span, 0, pod.TypeObject)
	binary.LittleEndian.PutUint32(span[8:], objType)
	binary.LittleEndian.PutUint32(span[12:], objId)
	b.commit(pod.HeaderSize + 8)
	return b.push(pod.TypeObject, off, 0), nil
}

// PushSequence opens a sequence container with its time unit.
func (b *Builder) PushSequence(unit uint32) (Frame, error) {
	if err := b.checkNesting(); err != nil {
		return Frame{}, err
	}
	off := b.offset
	span, err := b.reserve(pod.HeaderSize + 8)
	if err != nil {
		return Frame{}, err
	}
	putHeader(span, 0, pod.TypeSequence)
	binary.LittleEndian.PutUint32(span[8:], unit)
	binary.LittleEndian.PutUint32(span[12:], 0)
	b.commit(pod.HeaderSize + 8)
	return b.push(pod.TypeSequence, off, 0), nil
}

// PushArray opens a packed homogeneous array. The first value written
// inside fixes the child descriptor.
func (b *Builder) PushArray() (Frame, error) {
	if err := b.checkNesting(); err != nil {
		return Frame{}, err
	}
	off := b.offset
	span, err := b.reserve(pod.HeaderSize)
	if err != nil {
		return Frame{}, err
	}
	putHeader(span, 0, pod.TypeArray)
	b.commit(pod.HeaderSize)
	return b.push(pod.TypeArray, off, flagFirst), nil
}

// PushChoice opens a packed choice container describing a constrained
// value space of the given kind.
func (b *Builder) PushChoice(kind pod.ChoiceKind, flags uint32) (Frame, error) {
	if err := b.checkNesting(); err != nil {
		return Frame{}, err
	}
	off := b.offset
	span, err := b.reserve(pod.HeaderSize + 8)
	if err != nil {
		return Frame{}, err
	}
	putHeader(span, 0, pod.TypeChoice)
	binary.LittleEndian.PutUint32(span[8:], uint32(kind))
	binary.LittleEndian.PutUint32(span[12:], flags)
	b.commit(pod.HeaderSize + 8)
	return b.push(pod.TypeChoice, off, flagFirst), nil
}

// Prop writes an object-property header. The next value written is the
// property's value. Wire order is preserved and duplicate keys are not
// rejected; last-one-wins is a decoder policy, not a builder concern.
func (b *Builder) Prop(key, flags uint32) error {
	f := b.top()
	if f == nil || f.typ != pod.TypeObject {
		return errors.MalformedContainer(errors.PhaseEncode, "property outside an object container")
	}
	span, err := b.reserve(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(span, key)
	binary.LittleEndian.PutUint32(span[4:], flags)
	b.commit(8)
	return nil
}

// Control writes a sequence-control header and returns the offset at
// which the caller must write the control's value pod.
func (b *Builder) Control(offset, ctype uint32) (uint32, error) {
	f := b.top()
	if f == nil || f.typ != pod.TypeSequence {
		return 0, errors.MalformedContainer(errors.PhaseEncode, "control outside a sequence container")
	}
	span, err := b.reserve(8)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(span, offset)
	binary.LittleEndian.PutUint32(span[4:], ctype)
	b.commit(8)
	return b.offset, nil
}

// Pop closes the innermost open container: the placeholder size in its
// header is overwritten with the actual body length, computed from the
// current cursor. The frame must be the current top of stack.
func (b *Builder) Pop(f Frame) error {
	n := len(b.frames)
	if n == 0 {
		return errors.MalformedContainer(errors.PhaseEncode, "pop on empty frame stack")
	}
	top := &b.frames[n-1]
	if f.index != n-1 || top.offset != f.offset || top.typ != f.typ {
		return errors.MalformedContainer(errors.PhaseEncode,
			"pop frame (%s at %d) is not the innermost open container (%s at %d)",
			f.typ, f.offset, top.typ, top.offset)
	}

	// A packed container closed with no children still gets a child
	// descriptor so decoders can read it.
	var extra uint32
	if top.flags&flagFirst != 0 {
		extra = pod.HeaderSize
	}
	unpadded := b.offset + extra
	padding := pod.RoundUp(unpadded) - unpadded

	span, err := b.reserve(extra + padding)
	if err != nil {
		return err
	}
	zero(span)
	if extra != 0 {
		putHeader(span, 0, pod.TypeNone)
	}

	bodySize := unpadded - top.offset - pod.HeaderSize
	binary.LittleEndian.PutUint32(b.data[top.offset:], bodySize)

	b.frames = b.frames[:n-1]
	b.commit(extra + padding)
	return nil
}

// Array writes a complete array pod from pre-packed element bytes.
func (b *Builder) Array(childSize uint32, childType pod.Type, nElems uint32, elems []byte) error {
	if err := b.checkNesting(); err != nil {
		return err
	}
	if uint64(len(elems)) != uint64(childSize)*uint64(nElems) {
		return errors.InvalidData(errors.PhaseEncode,
			"array payload of %d bytes does not match %d elements of size %d", len(elems), nElems, childSize)
	}
	bodySize := pod.HeaderSize + uint32(len(elems))
	return b.writeValue(pod.TypeArray, bodySize, func(dst []byte) {
		putHeader(dst, childSize, childType)
		copy(dst[pod.HeaderSize:], elems)
	})
}

// Finish seals the builder and returns the encoded bytes. Open frames
// are a caller error and fail loudly rather than being closed silently.
func (b *Builder) Finish() ([]byte, error) {
	if n := len(b.frames); n > 0 {
		top := b.frames[n-1]
		Logger().Debug("finish with open frames",
			zap.Int("depth", n),
			zap.Stringer("innermost", top.typ))
		return nil, errors.MalformedContainer(errors.PhaseEncode,
			"%d container(s) still open, innermost %s at offset %d", n, top.typ, top.offset)
	}
	return b.data[:b.offset], nil
}
