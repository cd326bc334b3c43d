// Package podwire implements a self-describing binary value format:
// size-prefixed, type-tagged, 8-byte aligned pods that carry scalars,
// strings, arrays, keyed objects and timed sequences between processes
// without a schema.
//
// The module is organized as:
//
//	podwire/            convenience façade (Build, Decode, Encode, Dump)
//	├── pod/            wire model: type tags, zero-copy views, value trees
//	├── builder/        encoder with back-patched container frames
//	├── parser/         cursor-based zero-copy decoder
//	├── debug/          human-readable rendering with YAML type tables
//	├── transcode/      deterministic CBOR export
//	├── ringbuffer/     SPSC byte ring for streaming encoded pods
//	├── errors/         structured phase/kind error model
//	└── cmd/podview/    inspector CLI
//
// The pod, builder and parser packages are the core; everything else is
// tooling layered on them.
package podwire
