package ringbuffer

import (
	"sync/atomic"

	"github.com/lumastream/podwire/errors"
)

// RingBuffer coordinates a single-producer single-consumer byte stream
// over a caller-owned power-of-two buffer. It holds only the two
// free-running indices; the data area is passed to ReadData and
// WriteData, so one coordinator can serve memory it does not own
// (shared mappings included).
//
// Indices increase without bound and wrap naturally at 2^32; the
// fill level is the unsigned difference write-read interpreted as a
// signed value, so underruns and overruns stay detectable.
type RingBuffer struct {
	read  atomic.Uint32
	write atomic.Uint32
}

// Init resets both indices. Not safe concurrently with readers or writers.
func (r *RingBuffer) Init() {
	r.read.Store(0)
	r.write.Store(0)
}

// SetAvail marks size bytes as readable, for pre-filled buffers.
func (r *RingBuffer) SetAvail(size uint32) {
	r.read.Store(0)
	r.write.Store(size)
}

// GetReadIndex returns the reader's index and the number of readable
// bytes. A negative fill means an underrun; a fill beyond the buffer
// size means the writer overran the reader.
func (r *RingBuffer) GetReadIndex() (uint32, int32) {
	idx := r.read.Load()
	return idx, int32(r.write.Load() - idx)
}

// GetWriteIndex returns the writer's index and the current fill level.
func (r *RingBuffer) GetWriteIndex() (uint32, int32) {
	idx := r.write.Load()
	return idx, int32(idx - r.read.Load())
}

func checkBuffer(buffer []byte) error {
	n := len(buffer)
	if n == 0 || n&(n-1) != 0 {
		return errors.InvalidData(errors.PhaseTransport, "ring buffer size %d is not a power of two", n)
	}
	return nil
}

// ReadData copies len(data) bytes out of buffer starting at the
// (wrapped) offset. It does not move the read index; call ReadUpdate
// once the bytes are consumed.
func (r *RingBuffer) ReadData(buffer []byte, offset uint32, data []byte) error {
	if err := checkBuffer(buffer); err != nil {
		return err
	}
	if len(data) > len(buffer) {
		return errors.OutOfBounds(errors.PhaseTransport, offset, uint32(len(data)), uint32(len(buffer)))
	}
	mask := uint32(len(buffer) - 1)
	start := offset & mask
	n := copy(data, buffer[start:])
	if n < len(data) {
		copy(data[n:], buffer)
	}
	return nil
}

// ReadUpdate publishes a new read index, releasing the consumed bytes
// to the writer.
func (r *RingBuffer) ReadUpdate(index uint32) {
	r.read.Store(index)
}

// WriteData copies data into buffer starting at the (wrapped) offset.
// It does not move the write index; call WriteUpdate to publish the
// bytes to the reader.
func (r *RingBuffer) WriteData(buffer []byte, offset uint32, data []byte) error {
	if err := checkBuffer(buffer); err != nil {
		return err
	}
	if len(data) > len(buffer) {
		return errors.OutOfBounds(errors.PhaseTransport, offset, uint32(len(data)), uint32(len(buffer)))
	}
	mask := uint32(len(buffer) - 1)
	start := offset & mask
	n := copy(buffer[start:], data)
	if n < len(data) {
		copy(buffer, data[n:])
	}
	return nil
}

// WriteUpdate publishes a new write index, making the bytes visible to
// the reader.
func (r *RingBuffer) WriteUpdate(index uint32) {
	r.write.Store(index)
}
