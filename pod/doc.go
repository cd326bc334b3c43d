// Package pod defines the wire-level data model of the codec: the open
// tag space, the Pod view over one encoded value, typed predicates and
// getters, container child access, and the lifted Value tree.
//
// A pod on the wire is a tagged byte span:
//
//	{ size u32, type u32, body [size]byte }
//
// padded to an 8-byte boundary before the next sibling (padding bytes
// are zero and excluded from size). All fields are little-endian. The
// tag space is open: a decoder that does not recognize a tag can still
// skip the value using size alone, so unknown values round-trip.
//
// Container layouts:
//
//	Array     body = {child_size u32, child_type u32} + packed elements
//	Struct    body = concatenated full pods
//	Object    body = {type u32, id u32} + {key u32, flags u32, pod}...
//	Sequence  body = {unit u32, pad u32} + {offset u32, type u32, pod}...
//	Choice    body = {kind u32, flags u32} + Array-style child + values
//
// Array and Choice elements share a single child descriptor and carry no
// per-element headers, so they are read through ArrayBody/ChoiceBody
// rather than by cursor iteration.
package pod
