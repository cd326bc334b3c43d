package parser

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/lumastream/podwire/errors"
	"github.com/lumastream/podwire/pod"
)

// frame records one entered container: where its header starts and the
// first offset past its body.
type frame struct {
	typ    pod.Type
	offset uint32
	end    uint32
}

// Frame is the caller's handle to one entered container. Pop validates
// it against the top of the stack.
type Frame struct {
	typ    pod.Type
	offset uint32
	end    uint32
	index  int
}

// State is a snapshot of the cursor and entered frames, for rewinding a
// partially consumed buffer.
type State struct {
	offset uint32
	frames []frame
}

// Parser walks encoded pods in a byte buffer. It never copies: every
// returned pod aliases the input. All reads funnel through Deref, which
// is the only place bounds are checked, so no malformed input can cause
// a read outside the buffer.
//
// A Parser is a single-goroutine value.
type Parser struct {
	data   []byte
	frames []frame
	offset uint32
}

// New returns a parser over the buffer. The buffer may hold one pod or
// a concatenation of padded pods.
func New(data []byte) *Parser {
	return &Parser{data: data}
}

// NewFromPod returns a parser scoped to a single pod's bytes.
func NewFromPod(p pod.Pod) *Parser {
	return &Parser{data: p}
}

// Offset returns the current cursor position.
func (p *Parser) Offset() uint32 {
	return p.offset
}

// Depth returns the number of currently entered containers.
func (p *Parser) Depth() int {
	return len(p.frames)
}

// GetState snapshots the cursor and entered frames.
func (p *Parser) GetState() State {
	frames := make([]frame, len(p.frames))
	copy(frames, p.frames)
	return State{offset: p.offset, frames: frames}
}

// Reset restores a snapshot taken with GetState on the same parser.
func (p *Parser) Reset(s State) {
	p.offset = s.offset
	p.frames = p.frames[:0]
	p.frames = append(p.frames, s.frames...)
	Logger().Debug("parser reset",
		zap.Uint32("offset", s.offset),
		zap.Int("depth", len(s.frames)))
}

// Deref returns the pod whose header starts at offset, requiring at
// least minSize readable bytes there. It distinguishes a span outside
// the buffer (out_of_bounds) from a header that fits but declares a
// body that does not (truncated). Every other read path goes through
// here.
func (p *Parser) Deref(offset, minSize uint32) (pod.Pod, error) {
	bound := uint32(len(p.data))
	if minSize < pod.HeaderSize {
		minSize = pod.HeaderSize
	}
	if offset%pod.Alignment != 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, "pod offset %d is not %d-byte aligned", offset, pod.Alignment)
	}
	if uint64(offset)+uint64(minSize) > uint64(bound) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, offset, minSize, bound)
	}
	v, err := pod.FromBytes(p.data[offset:])
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.At(offset)
		}
		return nil, err
	}
	return v, nil
}

// end returns the exclusive bound the cursor may reach: the innermost
// frame's body end, or the buffer end at top level.
func (p *Parser) end() uint32 {
	if n := len(p.frames); n > 0 {
		return p.frames[n-1].end
	}
	return uint32(len(p.data))
}

// skip returns the size of the per-child prefix in the innermost
// container: object properties and sequence controls carry an 8-byte
// header before each value pod, struct fields and top-level pods do not.
func (p *Parser) skip() uint32 {
	if n := len(p.frames); n > 0 {
		switch p.frames[n-1].typ {
		case pod.TypeObject, pod.TypeSequence:
			return 8
		}
	}
	return 0
}

// Current returns the value pod at the cursor, stepping over the
// property or control prefix when inside an object or sequence. ok is
// false at the end of the buffer or of the entered container; that is
// iteration exhaustion, not an error.
func (p *Parser) Current() (pod.Pod, bool, error) {
	end := p.end()
	if p.offset >= end {
		return nil, false, nil
	}
	skip := p.skip()
	if uint64(p.offset)+uint64(skip)+pod.HeaderSize > uint64(end) {
		return nil, false, errors.MalformedContainer(errors.PhaseDecode,
			"trailing %d bytes at offset %d cannot hold a child", end-p.offset, p.offset)
	}
	v, err := p.Deref(p.offset+skip, pod.HeaderSize)
	if err != nil {
		return nil, false, err
	}
	if uint64(p.offset)+uint64(skip)+uint64(v.Span()) > uint64(end) {
		return nil, false, errors.MalformedContainer(errors.PhaseDecode,
			"pod at offset %d overruns its container (ends at %d, container at %d)",
			p.offset+skip, p.offset+skip+v.Span(), end)
	}
	return v, true, nil
}

// Advance moves the cursor past the current child and its padding.
func (p *Parser) Advance() error {
	v, ok, err := p.Current()
	if err != nil {
		return err
	}
	if !ok {
		return errors.MalformedContainer(errors.PhaseDecode, "advance past end of container")
	}
	p.advancePast(v)
	return nil
}

func (p *Parser) advancePast(v pod.Pod) {
	next := p.offset + p.skip() + v.PaddedSpan()
	// the final child's padding may not be materialized
	if end := p.end(); next > end {
		next = end
	}
	p.offset = next
}

// Next returns the value pod at the cursor and advances past it.
func (p *Parser) Next() (pod.Pod, bool, error) {
	v, ok, err := p.Current()
	if err != nil || !ok {
		return nil, ok, err
	}
	p.advancePast(v)
	return v, true, nil
}

// CurrentProperty returns the object property at the cursor with its
// key and flags. The innermost entered container must be an object.
func (p *Parser) CurrentProperty() (pod.Property, bool, error) {
	n := len(p.frames)
	if n == 0 || p.frames[n-1].typ != pod.TypeObject {
		return pod.Property{}, false, errors.TypeMismatch(errors.PhaseDecode, "Object", p.frameTypeName())
	}
	v, ok, err := p.Current()
	if err != nil || !ok {
		return pod.Property{}, ok, err
	}
	return pod.Property{
		Key:   binary.LittleEndian.Uint32(p.data[p.offset:]),
		Flags: binary.LittleEndian.Uint32(p.data[p.offset+4:]),
		Value: v,
	}, true, nil
}

// CurrentControl returns the sequence control at the cursor with its
// offset and type. The innermost entered container must be a sequence.
func (p *Parser) CurrentControl() (pod.Control, bool, error) {
	n := len(p.frames)
	if n == 0 || p.frames[n-1].typ != pod.TypeSequence {
		return pod.Control{}, false, errors.TypeMismatch(errors.PhaseDecode, "Sequence", p.frameTypeName())
	}
	v, ok, err := p.Current()
	if err != nil || !ok {
		return pod.Control{}, ok, err
	}
	return pod.Control{
		Offset: binary.LittleEndian.Uint32(p.data[p.offset:]),
		Type:   binary.LittleEndian.Uint32(p.data[p.offset+4:]),
		Value:  v,
	}, true, nil
}

func (p *Parser) frameTypeName() string {
	if n := len(p.frames); n > 0 {
		return p.frames[n-1].typ.String()
	}
	return "no container"
}

// Push enters the container at the cursor, stepping over the property
// or control prefix inside an object or sequence, and positions the
// cursor on its first child. Only Struct, Object and Sequence can be
// entered; Array and Choice pack headerless elements and are read
// through the pod accessors instead.
func (p *Parser) Push() (Frame, error) {
	return p.PushAt(p.offset + p.skip())
}

// PushAt enters the container whose header starts at offset.
func (p *Parser) PushAt(offset uint32) (Frame, error) {
	v, err := p.Deref(offset, pod.HeaderSize)
	if err != nil {
		return Frame{}, err
	}

	var first uint32
	switch v.Type() {
	case pod.TypeStruct:
		first = pod.HeaderSize
	case pod.TypeObject, pod.TypeSequence:
		if v.Size() < 8 {
			return Frame{}, errors.Truncated(errors.PhaseDecode, offset, pod.HeaderSize+8, offset+v.Span())
		}
		first = pod.HeaderSize + 8
	default:
		return Frame{}, errors.TypeMismatch(errors.PhaseDecode, "Struct, Object or Sequence", v.Type().String())
	}

	end := offset + pod.HeaderSize + v.Size()
	f := frame{typ: v.Type(), offset: offset, end: end}
	p.frames = append(p.frames, f)
	p.offset = offset + first
	return Frame{typ: f.typ, offset: f.offset, end: f.end, index: len(p.frames) - 1}, nil
}

// Pop leaves the innermost entered container and positions the cursor
// past it. The frame must be the current top of stack.
func (p *Parser) Pop(f Frame) error {
	n := len(p.frames)
	if n == 0 {
		return errors.MalformedContainer(errors.PhaseDecode, "pop on empty frame stack")
	}
	top := p.frames[n-1]
	if f.index != n-1 || top.offset != f.offset || top.typ != f.typ {
		return errors.MalformedContainer(errors.PhaseDecode,
			"pop frame (%s at %d) is not the innermost entered container (%s at %d)",
			f.typ, f.offset, top.typ, top.offset)
	}
	p.frames = p.frames[:n-1]
	next := pod.RoundUp(top.end)
	if bound := p.end(); next > bound {
		next = bound
	}
	p.offset = next
	return nil
}

// Typed getters. Each succeeds only when the current pod has exactly
// the requested type, and advances the cursor only on success, so a
// mismatch can be retried with a different getter.

func getScalar[T any](p *Parser, get func(pod.Pod) (T, error)) (T, error) {
	var zero T
	v, ok, err := p.Current()
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, errors.OutOfBounds(errors.PhaseDecode, p.offset, pod.HeaderSize, p.end())
	}
	out, err := get(v)
	if err != nil {
		return zero, err
	}
	if aerr := p.Advance(); aerr != nil {
		return zero, aerr
	}
	return out, nil
}

// GetBool reads a boolean at the cursor.
func (p *Parser) GetBool() (bool, error) {
	return getScalar(p, pod.Pod.GetBool)
}

// GetId reads an id at the cursor.
func (p *Parser) GetId() (uint32, error) {
	return getScalar(p, pod.Pod.GetId)
}

// GetInt reads a 32-bit integer at the cursor.
func (p *Parser) GetInt() (int32, error) {
	return getScalar(p, pod.Pod.GetInt)
}

// GetLong reads a 64-bit integer at the cursor.
func (p *Parser) GetLong() (int64, error) {
	return getScalar(p, pod.Pod.GetLong)
}

// GetFloat reads a 32-bit float at the cursor.
func (p *Parser) GetFloat() (float32, error) {
	return getScalar(p, pod.Pod.GetFloat)
}

// GetDouble reads a 64-bit float at the cursor.
func (p *Parser) GetDouble() (float64, error) {
	return getScalar(p, pod.Pod.GetDouble)
}

// GetString reads a string at the cursor, without its terminator.
func (p *Parser) GetString() (string, error) {
	return getScalar(p, pod.Pod.GetString)
}

// GetBytes reads a bytes value at the cursor. The slice aliases the buffer.
func (p *Parser) GetBytes() ([]byte, error) {
	return getScalar(p, pod.Pod.GetBytes)
}

// GetRectangle reads a rectangle at the cursor.
func (p *Parser) GetRectangle() (pod.Rectangle, error) {
	return getScalar(p, pod.Pod.GetRectangle)
}

// GetFraction reads a fraction at the cursor.
func (p *Parser) GetFraction() (pod.Fraction, error) {
	return getScalar(p, pod.Pod.GetFraction)
}

// GetPointer reads a pointer at the cursor.
func (p *Parser) GetPointer() (pod.Pointer, error) {
	return getScalar(p, pod.Pod.GetPointer)
}

// GetFd reads a file-descriptor handle at the cursor.
func (p *Parser) GetFd() (int64, error) {
	return getScalar(p, pod.Pod.GetFd)
}

// GetPod returns the pod at the cursor regardless of type and advances
// past it.
func (p *Parser) GetPod() (pod.Pod, bool, error) {
	return p.Next()
}
