package podwire

import (
	"go.uber.org/zap"

	"github.com/lumastream/podwire/builder"
	"github.com/lumastream/podwire/debug"
	"github.com/lumastream/podwire/parser"
	"github.com/lumastream/podwire/pod"
)

// Build runs fn against a pooled builder and returns a copy of the
// encoded bytes. The copy is safe to keep; the builder goes back to the
// pool.
func Build(fn func(b *builder.Builder) error) ([]byte, error) {
	b := builder.Acquire()
	defer builder.Release(b)
	if err := fn(b); err != nil {
		return nil, err
	}
	data, err := b.Finish()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Encode serializes a value tree to wire form.
func Encode(v *pod.Value) ([]byte, error) {
	return Build(func(b *builder.Builder) error {
		return b.PutValue(v)
	})
}

// Decode lifts the first pod in data into a self-contained value tree.
func Decode(data []byte) (*pod.Value, error) {
	p, err := pod.FromBytes(data)
	if err != nil {
		return nil, err
	}
	return pod.FromPod(p)
}

// Dump renders the first pod in data as indented text with numeric tags.
func Dump(data []byte) (string, error) {
	p, err := pod.FromBytes(data)
	if err != nil {
		return "", err
	}
	return debug.Dump(debug.DefaultTable(), p)
}

// SetLogger configures logging across the encode and decode packages.
// The default is a no-op logger.
func SetLogger(l *zap.Logger) {
	builder.SetLogger(l)
	parser.SetLogger(l)
}
