package shardmap

// mapentry.go implements Map's key-retaining Entry wrapper (spec.md §4.F,
// as realized for Map rather than Table), mirroring the way the original
// source's mapref::entry wraps a tableref::entry together with the key it
// was constructed from — Table never sees keys, only hashes, so Map has to
// carry the key alongside the inner Entry for InsertEntry/OrInsert to be
// able to rebuild a pair[K,V].
//
// © 2025 shardmap authors. MIT License.

// MapEntry is the upsert-style handle returned by Map.Entry. It holds the
// target shard's exclusive lock until a terminal operation (OrInsert,
// Insert, Remove, or an explicit Unlock) releases it.
type MapEntry[K comparable, V any] struct {
	inner    Entry[pair[K, V]]
	key      K
	m        *Map[K, V]
	shardIdx int
}

// Key returns the key this entry was constructed for.
func (e MapEntry[K, V]) Key() K { return e.key }

// IsOccupied reports whether a value already exists for this key.
func (e MapEntry[K, V]) IsOccupied() bool { return e.inner.IsOccupied() }

// IsVacant reports whether no value exists yet for this key.
func (e MapEntry[K, V]) IsVacant() bool { return e.inner.IsVacant() }

// Unlock releases the shard's exclusive lock without modifying the map.
func (e MapEntry[K, V]) Unlock() { e.inner.Unlock() }

// AndModify mutates the existing value in place if occupied, and returns
// the entry unchanged for chaining.
func (e MapEntry[K, V]) AndModify(f func(*V)) MapEntry[K, V] {
	e.inner = e.inner.AndModify(func(p *pair[K, V]) { f(&p.Val) })
	return e
}

// OrInsert returns the existing value if occupied, otherwise inserts v.
// Either way the shard's exclusive lock is released once the returned
// handle's Unlock is called.
func (e MapEntry[K, V]) OrInsert(v V) MappedRefMut[V] {
	rm := e.inner.OrInsert(pair[K, V]{Key: e.key, Val: v})
	if e.IsVacant() && e.m.evictOn {
		e.m.admitEviction(e.shardIdx, e.key, v)
	}
	return MapRefMut(rm, func(p *pair[K, V]) *V { return &p.Val })
}

// OrInsertWith is OrInsert with a lazily computed value.
func (e MapEntry[K, V]) OrInsertWith(f func() V) MappedRefMut[V] {
	wasVacant := e.IsVacant()
	rm := e.inner.OrInsertWith(func() pair[K, V] { return pair[K, V]{Key: e.key, Val: f()} })
	if wasVacant && e.m.evictOn {
		e.m.admitEviction(e.shardIdx, e.key, rm.Value().Val)
	}
	return MapRefMut(rm, func(p *pair[K, V]) *V { return &p.Val })
}

// OrDefault is OrInsert with V's zero value.
func (e MapEntry[K, V]) OrDefault() MappedRefMut[V] {
	var zero V
	return e.OrInsert(zero)
}

// Insert forces the entry to v regardless of its prior state.
func (e MapEntry[K, V]) Insert(v V) MappedRefMut[V] {
	wasOccupied := e.IsOccupied()
	rm := e.inner.Insert(pair[K, V]{Key: e.key, Val: v})
	if e.m.evictOn {
		if wasOccupied {
			key := e.key
			e.m.clocks[e.shardIdx].ForgetMatching(func(p pair[K, V]) bool { return p.Key == key })
		}
		e.m.admitEviction(e.shardIdx, e.key, v)
	}
	return MapRefMut(rm, func(p *pair[K, V]) *V { return &p.Val })
}

// Remove deletes the entry if occupied, returning its value and true; if
// vacant, it releases the lock and returns false.
func (e MapEntry[K, V]) Remove() (V, bool) {
	occ, ok := e.inner.Occupied()
	if !ok {
		e.inner.Unlock()
		var zero V
		return zero, false
	}
	if e.m.evictOn {
		key := e.key
		e.m.clocks[e.shardIdx].ForgetMatching(func(p pair[K, V]) bool { return p.Key == key })
	}
	removed := occ.Remove()
	return removed.Val, true
}

// InsertEntry forces the entry to v regardless of its prior state (empty or
// already occupied), returning a MapOccupiedEntry so the caller can keep
// interacting with the occupied view instead of dropping straight to a
// value — mirrors Entry[T].InsertEntry at the table level.
func (e MapEntry[K, V]) InsertEntry(v V) MapOccupiedEntry[K, V] {
	wasOccupied := e.IsOccupied()
	occ := e.inner.InsertEntry(pair[K, V]{Key: e.key, Val: v})
	if e.m.evictOn {
		if wasOccupied {
			key := e.key
			e.m.clocks[e.shardIdx].ForgetMatching(func(p pair[K, V]) bool { return p.Key == key })
		}
		e.m.admitEviction(e.shardIdx, e.key, v)
	}
	return MapOccupiedEntry[K, V]{inner: occ, key: e.key, m: e.m, shardIdx: e.shardIdx}
}

// MapOccupiedEntry is the already-occupied handle returned by
// MapEntry.InsertEntry, retaining the key alongside the table-level
// OccupiedEntry the same way MapEntry retains it alongside Entry.
type MapOccupiedEntry[K comparable, V any] struct {
	inner    OccupiedEntry[pair[K, V]]
	key      K
	m        *Map[K, V]
	shardIdx int
}

// Key returns the key this entry was constructed for.
func (o MapOccupiedEntry[K, V]) Key() K { return o.key }

// Get returns the entry's current value.
func (o MapOccupiedEntry[K, V]) Get() V { return o.inner.Get().Val }

// GetMut returns a mutable pointer to the entry's value.
func (o MapOccupiedEntry[K, V]) GetMut() *V { return &o.inner.GetMut().Val }

// Unlock releases the shard's exclusive lock without further modifying
// the entry.
func (o MapOccupiedEntry[K, V]) Unlock() { o.inner.Unlock() }

// IntoMut consumes the entry, returning a MappedRefMut over its value.
func (o MapOccupiedEntry[K, V]) IntoMut() MappedRefMut[V] {
	return MapRefMut(o.inner.IntoMut(), func(p *pair[K, V]) *V { return &p.Val })
}

// Remove deletes the entry from the map, returning its value.
func (o MapOccupiedEntry[K, V]) Remove() V {
	if o.m.evictOn {
		key := o.key
		o.m.clocks[o.shardIdx].ForgetMatching(func(p pair[K, V]) bool { return p.Key == key })
	}
	removed := o.inner.Remove()
	return removed.Val
}
