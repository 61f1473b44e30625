package cache

import "github.com/cockroachdb/errors"

// The cache never returns these to callers. They form the closed set of
// internal failure kinds surfaced through the error counter, the metrics
// sink and the logger; every public operation degrades to a miss or a
// silent no-op write instead of propagating them.
var (
	// ErrSerialization marks a value that could not be msgpack-encoded for
	// sizing or compression. The write proceeds with a degraded size estimate.
	ErrSerialization = errors.New("cachekit: serialization failed")
	// ErrDecompression marks a stored payload that could not be decompressed
	// or decoded. The read behaves as a miss.
	ErrDecompression = errors.New("cachekit: decompression failed")
	// ErrCapacityExhausted marks a write that still did not fit after one
	// namespace eviction pass. The write is dropped.
	ErrCapacityExhausted = errors.New("cachekit: capacity exhausted")
)

// ErrorKind labels a counted failure for the metrics sink.
type ErrorKind string

const (
	ErrorKindSerialization ErrorKind = "serialization"
	ErrorKindDecompression ErrorKind = "decompression"
	ErrorKindCapacity      ErrorKind = "capacity"
)
