package ringbuffer

import (
	"bytes"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/lumastream/podwire/errors"
)

func TestEmptyRing(t *testing.T) {
	var rb RingBuffer
	rb.Init()
	if _, avail := rb.GetReadIndex(); avail != 0 {
		t.Errorf("avail = %d, want 0", avail)
	}
	if _, filled := rb.GetWriteIndex(); filled != 0 {
		t.Errorf("filled = %d, want 0", filled)
	}
}

func TestWriteThenRead(t *testing.T) {
	var rb RingBuffer
	buf := make([]byte, 16)
	msg := []byte("hello")

	idx, filled := rb.GetWriteIndex()
	if filled != 0 {
		t.Fatalf("filled = %d, want 0", filled)
	}
	if err := rb.WriteData(buf, idx, msg); err != nil {
		t.Fatalf("WriteData() error = %v", err)
	}
	rb.WriteUpdate(idx + uint32(len(msg)))

	ridx, avail := rb.GetReadIndex()
	if avail != int32(len(msg)) {
		t.Fatalf("avail = %d, want %d", avail, len(msg))
	}
	got := make([]byte, avail)
	if err := rb.ReadData(buf, ridx, got); err != nil {
		t.Fatalf("ReadData() error = %v", err)
	}
	rb.ReadUpdate(ridx + uint32(avail))

	if !bytes.Equal(got, msg) {
		t.Errorf("read % x, want % x", got, msg)
	}
	if _, avail := rb.GetReadIndex(); avail != 0 {
		t.Errorf("avail after read = %d, want 0", avail)
	}
}

func TestWrapAround(t *testing.T) {
	var rb RingBuffer
	buf := make([]byte, 8)

	// advance the indices near the wrap point of the data area
	rb.ReadUpdate(6)
	rb.WriteUpdate(6)

	msg := []byte{1, 2, 3, 4}
	idx, _ := rb.GetWriteIndex()
	if err := rb.WriteData(buf, idx, msg); err != nil {
		t.Fatalf("WriteData() error = %v", err)
	}
	rb.WriteUpdate(idx + 4)

	got := make([]byte, 4)
	ridx, avail := rb.GetReadIndex()
	if avail != 4 {
		t.Fatalf("avail = %d, want 4", avail)
	}
	if err := rb.ReadData(buf, ridx, got); err != nil {
		t.Fatalf("ReadData() error = %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("read % x, want % x", got, msg)
	}
	// bytes 6,7 then 0,1 of the data area were used
	if buf[6] != 1 || buf[7] != 2 || buf[0] != 3 || buf[1] != 4 {
		t.Errorf("data area = % x, wrap copy misplaced", buf)
	}
}

func TestIndexWrapAt32Bits(t *testing.T) {
	var rb RingBuffer
	rb.ReadUpdate(0xfffffffe)
	rb.WriteUpdate(0xfffffffe)

	w := uint32(0xfffffffe)
	rb.WriteUpdate(w + 8) // wraps through zero
	if _, avail := rb.GetReadIndex(); avail != 8 {
		t.Errorf("avail across index wrap = %d, want 8", avail)
	}
}

func TestSetAvail(t *testing.T) {
	var rb RingBuffer
	rb.SetAvail(12)
	if _, avail := rb.GetReadIndex(); avail != 12 {
		t.Errorf("avail = %d, want 12", avail)
	}
}

func TestNonPowerOfTwoRejected(t *testing.T) {
	var rb RingBuffer
	if err := rb.WriteData(make([]byte, 12), 0, []byte{1}); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("WriteData() error = %v, want invalid_data", err)
	}
	if err := rb.ReadData(make([]byte, 0), 0, nil); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("ReadData() error = %v, want invalid_data", err)
	}
}

func TestConcurrentStream(t *testing.T) {
	const total = 1 << 16
	var rb RingBuffer
	buf := make([]byte, 256)

	src := make([]byte, total)
	for i := range src {
		src[i] = byte(i * 31)
	}
	dst := make([]byte, 0, total)

	var g errgroup.Group
	g.Go(func() error {
		sent := 0
		for sent < total {
			idx, filled := rb.GetWriteIndex()
			space := len(buf) - int(filled)
			if space <= 0 {
				continue
			}
			n := space
			if n > total-sent {
				n = total - sent
			}
			if err := rb.WriteData(buf, idx, src[sent:sent+n]); err != nil {
				return err
			}
			rb.WriteUpdate(idx + uint32(n))
			sent += n
		}
		return nil
	})
	g.Go(func() error {
		chunk := make([]byte, len(buf))
		for len(dst) < total {
			idx, avail := rb.GetReadIndex()
			if avail <= 0 {
				continue
			}
			if err := rb.ReadData(buf, idx, chunk[:avail]); err != nil {
				return err
			}
			rb.ReadUpdate(idx + uint32(avail))
			dst = append(dst, chunk[:avail]...)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if !bytes.Equal(dst, src) {
		t.Fatal("streamed bytes differ from source")
	}
}
