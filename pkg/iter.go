package shardmap

// iter.go implements shard-by-shard iteration (spec.md §4.G). Each shard
// is locked once, its guard wrapped in a reference-counted owner, and
// pointers to the sub-table's elements are collected into a local slice
// (the sub-table itself is left unchanged) and emitted one at a time, each
// paired with an acquired reference to that owner. The shard
// unlocks once every emitted handle has been released and the iterator
// has advanced past it; the iterator itself holds one reference for as
// long as it is positioned on that shard.
//
// Snapshotting each shard's elements into a slice up front (rather than
// exposing subtable.Table's internal map iteration live) keeps Next()
// safe to call even if the caller mutates unrelated shards concurrently,
// and sidesteps Go's "no concurrent map iteration + write" restriction
// entirely, since nothing iterates the map after its lock is released.
//
// © 2025 shardmap authors. MIT License.

import (
	"github.com/Voskan/shardmap/internal/rwlock"
	"github.com/Voskan/shardmap/internal/subtable"
)

// Iter is a shared-mode, shard-by-shard iterator over a Table's elements.
type Iter[T any] struct {
	t          *Table[T]
	shardIdx   int
	owner      *rwlock.SharedReadGuard
	pending    []*T
	pendingIdx int
}

// Iter returns an iterator over t's elements under shared per-shard locks.
func (t *Table[T]) Iter() *Iter[T] {
	it := &Iter[T]{t: t, shardIdx: -1}
	it.advanceShard()
	return it
}

func (it *Iter[T]) advanceShard() {
	if it.owner != nil {
		it.owner.Release()
		it.owner = nil
	}
	for {
		it.shardIdx++
		if it.shardIdx >= it.t.shards.Len() {
			it.pending = nil
			it.pendingIdx = 0
			return
		}
		slot := it.t.shards.Slots()[it.shardIdx]
		guard := slot.Lock.LockSharedGuard()
		pending := snapshotPointers(&slot.Data)
		if len(pending) == 0 {
			guard.Unlock()
			continue
		}
		it.owner = rwlock.NewSharedReadGuard(guard)
		it.pending = pending
		it.pendingIdx = 0
		return
	}
}

func snapshotPointers[T any](sub *subtable.Table[T]) []*T {
	var out []*T
	sub.ForEach(func(t *T) { out = append(out, t) })
	return out
}

// Next returns the next element and true, or a zero RefMulti and false
// once every shard has been exhausted.
func (it *Iter[T]) Next() (RefMulti[T], bool) {
	for {
		if it.pendingIdx < len(it.pending) {
			v := it.pending[it.pendingIdx]
			it.pendingIdx++
			return newRefMulti(it.owner.Acquire(), v), true
		}
		if it.shardIdx >= it.t.shards.Len() {
			return RefMulti[T]{}, false
		}
		it.advanceShard()
		if it.shardIdx >= it.t.shards.Len() {
			return RefMulti[T]{}, false
		}
	}
}

// Clone returns a new iterator positioned identically to it: same shard,
// same remaining elements, with its own reference to the current shard's
// shared guard. Exercises the scenario from spec.md §8 where cloning
// mid-iteration must preserve exact iterator state.
func (it *Iter[T]) Clone() *Iter[T] {
	clone := &Iter[T]{
		t:          it.t,
		shardIdx:   it.shardIdx,
		pending:    it.pending,
		pendingIdx: it.pendingIdx,
	}
	if it.owner != nil {
		clone.owner = it.owner.Acquire()
	}
	return clone
}

// Close releases the iterator's hold on its current shard without
// visiting the rest of the table. Safe to call on an exhausted iterator.
func (it *Iter[T]) Close() {
	if it.owner != nil {
		it.owner.Release()
		it.owner = nil
	}
}

// IterMut is the exclusive-mode counterpart to Iter.
type IterMut[T any] struct {
	t          *Table[T]
	shardIdx   int
	owner      *rwlock.SharedWriteGuard
	pending    []*T
	pendingIdx int
}

// IterMut returns a mutable iterator over t's elements under exclusive
// per-shard locks.
func (t *Table[T]) IterMut() *IterMut[T] {
	it := &IterMut[T]{t: t, shardIdx: -1}
	it.advanceShard()
	return it
}

func (it *IterMut[T]) advanceShard() {
	if it.owner != nil {
		it.owner.Release()
		it.owner = nil
	}
	for {
		it.shardIdx++
		if it.shardIdx >= it.t.shards.Len() {
			it.pending = nil
			it.pendingIdx = 0
			return
		}
		slot := it.t.shards.Slots()[it.shardIdx]
		guard := slot.Lock.LockExclusiveGuard()
		pending := snapshotPointers(&slot.Data)
		if len(pending) == 0 {
			guard.Unlock()
			continue
		}
		it.owner = rwlock.NewSharedWriteGuard(guard)
		it.pending = pending
		it.pendingIdx = 0
		return
	}
}

// Next returns the next mutable element and true, or false once every
// shard has been exhausted.
func (it *IterMut[T]) Next() (RefMutMulti[T], bool) {
	for {
		if it.pendingIdx < len(it.pending) {
			v := it.pending[it.pendingIdx]
			it.pendingIdx++
			return newRefMutMulti(it.owner.Acquire(), v), true
		}
		if it.shardIdx >= it.t.shards.Len() {
			return RefMutMulti[T]{}, false
		}
		it.advanceShard()
		if it.shardIdx >= it.t.shards.Len() {
			return RefMutMulti[T]{}, false
		}
	}
}

// Close releases the iterator's hold on its current shard.
func (it *IterMut[T]) Close() {
	if it.owner != nil {
		it.owner.Release()
		it.owner = nil
	}
}

// OwningIter drains a Table shard by shard. It is the terminal operation
// on a Table: Go has no move semantics to enforce this statically, so
// callers must not use the Table concurrently with, or after, draining it
// via OwningIter.
type OwningIter[T any] struct {
	t        *Table[T]
	shardIdx int
	pending  []T
}

// IntoIter consumes t, draining every shard in turn.
func (t *Table[T]) IntoIter() *OwningIter[T] {
	return &OwningIter[T]{t: t, shardIdx: -1}
}

// Next returns the next drained element and true, or false once every
// shard has been drained.
func (it *OwningIter[T]) Next() (T, bool) {
	var zero T
	for len(it.pending) == 0 {
		it.shardIdx++
		if it.shardIdx >= it.t.shards.Len() {
			return zero, false
		}
		slot := it.t.shards.Slots()[it.shardIdx]
		slot.Lock.LockExclusive()
		var drained []T
		slot.Data.ForEach(func(v *T) { drained = append(drained, *v) })
		slot.Data.Retain(func(*T) bool { return false })
		slot.Lock.UnlockExclusive()
		it.pending = drained
	}
	v := it.pending[0]
	it.pending = it.pending[1:]
	return v, true
}

// Collect drains every remaining element into a slice.
func (it *OwningIter[T]) Collect() []T {
	var out []T
	for {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
