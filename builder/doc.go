// Package builder encodes pod values into a byte buffer.
//
// The builder is an append-only writer with a stack of open container
// frames. Containers are written with a placeholder size and
// back-patched when popped, so callers never compute sizes up front.
// Arrays and choices pack their elements without per-element headers;
// the builder writes the shared child descriptor with the first element
// and enforces that every later element matches it.
//
// Capacity is pluggable: New writes into a fixed caller buffer,
// NewWithGrow delegates to a growth callback, and NewDynamic doubles an
// internal buffer. Every failed write leaves the builder exactly as it
// was, so an encode can be retried or abandoned mid-way with GetState
// and Reset.
package builder
