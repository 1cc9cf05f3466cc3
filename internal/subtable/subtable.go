// Package subtable implements the sub-table contract that each shard
// wraps: a store of elements T keyed by an externally supplied 64-bit hash
// plus an equality predicate. It is deliberately the simplest structure
// that satisfies that contract — find/insert/remove/iterate/retain keyed
// by (hash, eq) — because the hard engineering this module family exists
// to demonstrate is the shard dispatch and locking above it, not the
// storage structure itself. No open-addressing, SIMD tag scanning, or
// probing scheme lives here; a Go builtin map keyed by the raw hash, with
// a short collision chain per bucket, gives the same contract with none of
// that complexity.
//
// Every method here assumes external synchronisation: the shard's RWLock
// guards all access, so nothing in this package takes a lock of its own.
//
// © 2025 shardmap authors. MIT License.
package subtable

// Table stores elements of type T, keyed by a caller-supplied hash and
// disambiguated on collision by a caller-supplied equality predicate.
type Table[T any] struct {
	buckets map[uint64][]T
	size    int
	approxCap int
}

// New returns an empty Table with room for roughly capacityHint elements
// before its internal map must grow.
func New[T any](capacityHint int) *Table[T] {
	return &Table[T]{
		buckets:   make(map[uint64][]T, capacityHint),
		approxCap: capacityHint,
	}
}

// Len returns the number of elements stored.
func (t *Table[T]) Len() int { return t.size }

// Capacity returns an approximation of how many elements can be stored
// before the next internal growth. Go's builtin map exposes no true
// capacity query, so this value is tracked explicitly at construction and
// on Reserve/ShrinkToFit, and may be stale relative to organic growth via
// Insert — callers must treat it as advisory, exactly as the table-level
// capacity() is documented to be "value may be stale relative to
// concurrent writes".
func (t *Table[T]) Capacity() int {
	if t.approxCap < t.size {
		return t.size
	}
	return t.approxCap
}

// Find returns a pointer to the element with the given hash satisfying eq,
// if one exists. The pointer is valid only until the next mutating call on
// this Table.
func (t *Table[T]) Find(hash uint64, eq func(*T) bool) (*T, bool) {
	bucket := t.buckets[hash]
	for i := range bucket {
		if eq(&bucket[i]) {
			return &bucket[i], true
		}
	}
	return nil, false
}

// Insert adds value under hash unconditionally, even if an element with
// the same hash and an eq match already exists (callers wanting upsert
// semantics use Find first, or the Entry API built on top of this Table),
// and returns a pointer to the stored copy, valid until the next mutating
// call on this Table.
func (t *Table[T]) Insert(hash uint64, value T) *T {
	bucket := append(t.buckets[hash], value)
	t.buckets[hash] = bucket
	t.size++
	return &bucket[len(bucket)-1]
}

// Remove deletes the element with the given hash satisfying eq, returning
// it and true if one was found.
func (t *Table[T]) Remove(hash uint64, eq func(*T) bool) (T, bool) {
	var zero T
	bucket := t.buckets[hash]
	for i := range bucket {
		if eq(&bucket[i]) {
			removed := bucket[i]
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			bucket = bucket[:last]
			if len(bucket) == 0 {
				delete(t.buckets, hash)
			} else {
				t.buckets[hash] = bucket
			}
			t.size--
			return removed, true
		}
	}
	return zero, false
}

// ForEach calls f with a pointer to every stored element, in unspecified
// (bucket, then slice) order. The sub-table never guarantees iteration
// order, matching the table-level contract.
func (t *Table[T]) ForEach(f func(*T)) {
	for hash := range t.buckets {
		bucket := t.buckets[hash]
		for i := range bucket {
			f(&bucket[i])
		}
	}
}

// Retain keeps only the elements for which keep returns true, discarding
// the rest.
func (t *Table[T]) Retain(keep func(*T) bool) {
	for hash, bucket := range t.buckets {
		write := 0
		for read := range bucket {
			if keep(&bucket[read]) {
				bucket[write] = bucket[read]
				write++
			}
		}
		t.size -= len(bucket) - write
		if write == 0 {
			delete(t.buckets, hash)
		} else {
			t.buckets[hash] = bucket[:write]
		}
	}
}

// Reserve grows the table's approximate capacity by additional elements.
// Go's builtin map cannot be reserved in place, so this rebuilds the
// backing map with a larger initial size hint and re-inserts every
// element — an O(n) operation, unlike the O(1)-amortised reserve of a true
// open-addressing table, and an explicitly accepted approximation (see
// the Open Question resolution in SPEC_FULL.md §9).
func (t *Table[T]) Reserve(additional int) {
	target := t.size + additional
	if target <= t.approxCap {
		return
	}
	fresh := make(map[uint64][]T, target)
	for hash, bucket := range t.buckets {
		fresh[hash] = bucket
	}
	t.buckets = fresh
	t.approxCap = target
}

// ShrinkToFit rebuilds the backing map sized to exactly the current
// element count, for the same reason Reserve must rebuild rather than
// resize in place.
func (t *Table[T]) ShrinkToFit() {
	fresh := make(map[uint64][]T, t.size)
	for hash, bucket := range t.buckets {
		fresh[hash] = bucket
	}
	t.buckets = fresh
	t.approxCap = t.size
}
