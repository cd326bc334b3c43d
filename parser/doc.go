// Package parser provides cursor-based, zero-copy traversal of encoded
// pods.
//
// A parser owns a cursor into an immutable buffer and a stack of
// entered containers. Deref is the single bounds chokepoint: it rejects
// offsets outside the buffer and headers whose declared size overruns
// it, so the rest of the package (and its callers) can slice freely.
// Structs, objects and sequences are entered with Push and left with
// Pop; arrays and choices pack their elements without headers and are
// read through the pod package's body accessors.
//
// GetState and Reset snapshot and rewind the cursor, which is how
// speculative decodes (try one shape, fall back to another) are
// written.
package parser
