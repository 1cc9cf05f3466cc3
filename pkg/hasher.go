package shardmap

// hasher.go defines the BuildHasher contract (spec.md §6): the map facade
// hashes keys via a consumer-supplied or default policy before dispatching
// to the table; the table itself never sees a key, only the hash and an
// equality predicate.
//
// © 2025 shardmap authors. MIT License.

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"

	"github.com/Voskan/shardmap/internal/unsafehelpers"
)

// Hasher is the BuildHasher contract: produce a 64-bit hash for a key. The
// top 7 bits of the returned value are reserved for the sub-table's tag
// region and are not used for shard dispatch (see internal/shard's
// DetermineShard); implementations need not — and should not — try to
// avoid setting those bits.
type Hasher[K comparable] interface {
	Hash(key K) uint64
}

// defaultHasher hashes any comparable key with xxhash, the default
// BuildHasher promoted from an indirect teacher dependency to a direct one
// expressly for this role. string and []byte-shaped keys are hashed
// zero-copy; other scalar and fixed-layout keys are reinterpreted as raw
// bytes via internal/unsafehelpers, mirroring the teacher's own
// pkg/cache.go key-hashing approach.
type defaultHasher[K comparable] struct{}

func (defaultHasher[K]) Hash(key K) uint64 {
	switch v := any(key).(type) {
	case string:
		return xxhash.Sum64(unsafehelpers.StringToBytes(v))
	case []byte:
		return xxhash.Sum64(v)
	default:
		return xxhash.Sum64(scalarBytes(&key))
	}
}

// scalarBytes reinterprets the memory backing a comparable, non-pointer-
// shaped value as a byte slice for hashing. It is unsound for key types
// containing pointers, slices, or interfaces whose identity is not their
// bit pattern — such keys should be hashed via a custom Hasher supplied
// through WithHasher instead.
func scalarBytes[K comparable](key *K) []byte {
	return unsafehelpers.ByteSliceFrom(unsafe.Pointer(key), unsafe.Sizeof(*key))
}
