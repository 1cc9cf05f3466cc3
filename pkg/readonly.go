package shardmap

// readonly.go implements ReadOnlyView (spec.md §4.H): a read-only
// projection of a Map that exposes only the non-mutating operations,
// useful for handing a component a handle it cannot use to corrupt shared
// state. It shares the underlying Map's storage — it is a restricted view,
// not a copy or a snapshot.
//
// © 2025 shardmap authors. MIT License.

// ReadOnlyView restricts a Map to its read-only operations.
type ReadOnlyView[K comparable, V any] struct {
	m *Map[K, V]
}

// Get returns a copy of the value stored under key, and whether it exists.
func (v ReadOnlyView[K, V]) Get(key K) (V, bool) { return v.m.Get(key) }

// ContainsKey reports whether key exists in the underlying map.
func (v ReadOnlyView[K, V]) ContainsKey(key K) bool { return v.m.ContainsKey(key) }

// Len returns the total number of entries across all shards.
func (v ReadOnlyView[K, V]) Len() int { return v.m.Len() }

// IsEmpty reports whether Len() == 0.
func (v ReadOnlyView[K, V]) IsEmpty() bool { return v.m.IsEmpty() }

// ShardAmount returns the number of shards backing the underlying map.
func (v ReadOnlyView[K, V]) ShardAmount() int { return v.m.ShardAmount() }

// Iter returns a shared-mode iterator over the underlying map's entries.
func (v ReadOnlyView[K, V]) Iter() *MapIter[K, V] { return v.m.Iter() }
