package podwire

import (
	"testing"

	"github.com/lumastream/podwire/builder"
	"github.com/lumastream/podwire/parser"
)

func buildSample(b *builder.Builder) error {
	f, err := b.PushStruct()
	if err != nil {
		return err
	}
	if err := b.Int(42); err != nil {
		return err
	}
	if err := b.String("benchmark"); err != nil {
		return err
	}
	af, err := b.PushArray()
	if err != nil {
		return err
	}
	for i := 0; i < 16; i++ {
		if err := b.Float(float32(i)); err != nil {
			return err
		}
	}
	if err := b.Pop(af); err != nil {
		return err
	}
	return b.Pop(f)
}

func BenchmarkEncode(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bb := builder.Acquire()
		if err := buildSample(bb); err != nil {
			b.Fatal(err)
		}
		if _, err := bb.Finish(); err != nil {
			b.Fatal(err)
		}
		builder.Release(bb)
	}
}

func BenchmarkDecode(b *testing.B) {
	data, err := Build(buildSample)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := parser.New(data)
		if _, err := p.Push(); err != nil {
			b.Fatal(err)
		}
		if _, err := p.GetInt(); err != nil {
			b.Fatal(err)
		}
		if _, err := p.GetString(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeTree(b *testing.B) {
	data, err := Build(buildSample)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}
