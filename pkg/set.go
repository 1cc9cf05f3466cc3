package shardmap

// set.go implements Set[K] (spec.md §4.H) as a thin wrapper over
// Map[K, struct{}], the same relationship the original source's DashSet
// bears to DashMap.
//
// © 2025 shardmap authors. MIT License.

// Set is a concurrent, sharded hash set keyed by K.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet constructs a Set with the given options applied over the defaults.
// Options that take a value type (WithEviction's weightFn, WithEjectCallback)
// are accepted and operate on the zero-sized struct{} value, which is
// rarely useful; Set itself only exposes key-only operations.
func NewSet[K comparable](opts ...Option[K, struct{}]) (*Set[K], error) {
	m, err := New[K, struct{}](opts...)
	if err != nil {
		return nil, err
	}
	return &Set[K]{m: m}, nil
}

// Insert adds key to the set, returning true if it was not already present.
func (s *Set[K]) Insert(key K) bool {
	_, had := s.m.Insert(key, struct{}{})
	return !had
}

// Contains reports whether key is in the set.
func (s *Set[K]) Contains(key K) bool { return s.m.ContainsKey(key) }

// Remove deletes key from the set, reporting whether it was present.
func (s *Set[K]) Remove(key K) bool {
	_, had := s.m.Remove(key)
	return had
}

// Len returns the number of elements in the set.
func (s *Set[K]) Len() int { return s.m.Len() }

// IsEmpty reports whether Len() == 0.
func (s *Set[K]) IsEmpty() bool { return s.m.IsEmpty() }

// Clear removes every element from the set.
func (s *Set[K]) Clear() { s.m.Clear() }

// ShardAmount returns the number of shards backing this set.
func (s *Set[K]) ShardAmount() int { return s.m.ShardAmount() }

// SetIter iterates a Set's elements.
type SetIter[K comparable] struct {
	inner *MapIter[K, struct{}]
}

// Iter returns an iterator over the set's elements.
func (s *Set[K]) Iter() *SetIter[K] { return &SetIter[K]{inner: s.m.Iter()} }

// Next returns the next element and true, or false once exhausted.
func (it *SetIter[K]) Next() (K, bool) {
	k, _, ok := it.inner.Next()
	return k, ok
}

// Close releases the iterator's hold on its current shard.
func (it *SetIter[K]) Close() { it.inner.Close() }
