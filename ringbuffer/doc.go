// Package ringbuffer provides the index arithmetic for a lock-free
// single-producer single-consumer byte ring over a power-of-two buffer.
// It is the transport-side companion of the pod codec: encoded pods are
// written on one side and parsed off the other without locks.
package ringbuffer
