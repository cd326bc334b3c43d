// Package transcode exports decoded pod values as deterministic CBOR
// or CBOR diagnostic notation, for logging, hashing and cross-tool
// exchange. The mapping is one-way: it preserves structure and
// container metadata but flattens scalar wire-type distinctions.
package transcode
