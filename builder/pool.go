package builder

import (
	"sync"
)

// builderPool pools dynamic builders to reduce allocations on hot
// encode paths.
var builderPool = sync.Pool{
	New: func() interface{} {
		return NewDynamic(1024)
	},
}

// Acquire gets a pooled dynamic builder, reset to empty.
func Acquire() *Builder {
	b := builderPool.Get().(*Builder)
	b.offset = 0
	b.frames = b.frames[:0]
	return b
}

// Release returns a builder to the pool. The caller must copy out any
// bytes obtained from Finish before releasing; the buffer is reused.
func Release(b *Builder) {
	builderPool.Put(b)
}
