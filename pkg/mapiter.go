package shardmap

// mapiter.go wraps Table's shard-by-shard iterators with Map's key/value
// shape, so callers see (K, V) pairs instead of *pair[K,V].
//
// © 2025 shardmap authors. MIT License.

// MapIter is a shared-mode iterator over a Map's entries.
type MapIter[K comparable, V any] struct {
	inner *Iter[pair[K, V]]
}

// Next returns the next key/value pair and true, or false once exhausted.
func (it *MapIter[K, V]) Next() (K, V, bool) {
	ref, ok := it.inner.Next()
	if !ok {
		var zk K
		var zv V
		return zk, zv, false
	}
	p := ref.Value()
	key, val := p.Key, p.Val
	ref.Release()
	return key, val, true
}

// Clone returns a second iterator positioned identically to it.
func (it *MapIter[K, V]) Clone() *MapIter[K, V] {
	return &MapIter[K, V]{inner: it.inner.Clone()}
}

// Close releases the iterator's hold on its current shard.
func (it *MapIter[K, V]) Close() { it.inner.Close() }

// MapIterMut is the exclusive-mode counterpart to MapIter.
type MapIterMut[K comparable, V any] struct {
	inner *IterMut[pair[K, V]]
}

// Next returns the next key and a mutable pointer to its value, or false
// once exhausted.
func (it *MapIterMut[K, V]) Next() (K, *V, bool) {
	ref, ok := it.inner.Next()
	if !ok {
		var zk K
		return zk, nil, false
	}
	p := ref.Value()
	key, val := p.Key, &p.Val
	ref.Release()
	return key, val, true
}

// Close releases the iterator's hold on its current shard.
func (it *MapIterMut[K, V]) Close() { it.inner.Close() }
