package shardmap

// entry.go implements the table-level entry API (spec.md §4.F): an
// Entry returned by Table.Entry carries the shard's exclusive guard and
// is either Occupied (an element already lives at this hash) or Vacant
// (it does not, and the caller supplies one). Map[K,V] layers its own
// key-retaining Entry on top of this (see mapentry.go), mirroring the way the
// original source's mapref::entry wraps its tableref::entry.
//
// © 2025 shardmap authors. MIT License.

import (
	"github.com/Voskan/shardmap/internal/rwlock"
	"github.com/Voskan/shardmap/internal/subtable"
)

type entryState int

const (
	entryOccupied entryState = iota
	entryVacant
)

// Entry is the upsert-style handle returned by Table.Entry/TryEntry. It
// holds the shard's exclusive lock until the caller releases it: Unlock
// releases it directly; OrInsert, OrInsertWith, OrDefault, OrTryInsertWith,
// Insert and InsertEntry hand it to the returned RefMut or OccupiedEntry,
// whose Unlock (or Remove) releases it. AndModify keeps holding it, and
// nothing releases it when an Entry is simply dropped.
type Entry[T any] struct {
	state    entryState
	occupied OccupiedEntry[T]
	vacant   VacantEntry[T]
}

func newOccupiedEntry[T any](guard rwlock.WriteGuard, table *subtable.Table[T], hash uint64, eq func(*T) bool, slot *T) Entry[T] {
	return Entry[T]{
		state: entryOccupied,
		occupied: OccupiedEntry[T]{
			guard: guard, table: table, hash: hash, eq: eq, slot: slot,
		},
	}
}

func newVacantEntry[T any](guard rwlock.WriteGuard, table *subtable.Table[T], hash uint64, eq func(*T) bool) Entry[T] {
	return Entry[T]{
		state: entryVacant,
		vacant: VacantEntry[T]{
			guard: guard, table: table, hash: hash, eq: eq,
		},
	}
}

// Unlock releases the shard's exclusive lock without inserting, modifying,
// or removing anything. Use this when the entry was only inspected (via
// Occupied/Get, or an IsVacant check that led nowhere) and none of the
// terminal operations (OrInsert, Insert, InsertEntry, Remove) applies.
func (e Entry[T]) Unlock() {
	if e.state == entryOccupied {
		e.occupied.guard.Unlock()
		return
	}
	e.vacant.guard.Unlock()
}

// IsOccupied reports whether the entry already holds an element.
func (e Entry[T]) IsOccupied() bool { return e.state == entryOccupied }

// IsVacant reports whether the entry holds no element yet.
func (e Entry[T]) IsVacant() bool { return e.state == entryVacant }

// Occupied returns the occupied view and true if the entry is occupied.
func (e Entry[T]) Occupied() (OccupiedEntry[T], bool) {
	return e.occupied, e.state == entryOccupied
}

// Vacant returns the vacant view and true if the entry is vacant.
func (e Entry[T]) Vacant() (VacantEntry[T], bool) {
	return e.vacant, e.state == entryVacant
}

// AndModify mutates the element in place if the entry is occupied, and
// returns the entry unchanged for chaining.
func (e Entry[T]) AndModify(f func(*T)) Entry[T] {
	if e.state == entryOccupied {
		f(e.occupied.slot)
	}
	return e
}

// OrInsert returns a RefMut to the existing element if occupied,
// otherwise inserts v and returns a RefMut to it.
func (e Entry[T]) OrInsert(v T) RefMut[T] {
	if e.state == entryOccupied {
		return e.occupied.IntoMut()
	}
	return e.vacant.Insert(v)
}

// OrInsertWith is OrInsert with a lazily computed value.
func (e Entry[T]) OrInsertWith(f func() T) RefMut[T] {
	if e.state == entryOccupied {
		return e.occupied.IntoMut()
	}
	return e.vacant.Insert(f())
}

// OrDefault is OrInsert with T's zero value.
func (e Entry[T]) OrDefault() RefMut[T] {
	var zero T
	return e.OrInsert(zero)
}

// OrTryInsertWith is OrInsertWith for a fallible constructor.
func (e Entry[T]) OrTryInsertWith(f func() (T, error)) (RefMut[T], error) {
	if e.state == entryOccupied {
		return e.occupied.IntoMut(), nil
	}
	v, err := f()
	if err != nil {
		return RefMut[T]{}, err
	}
	return e.vacant.Insert(v), nil
}

// Insert forces the entry to v regardless of its prior state, returning a
// RefMut to the new value.
func (e Entry[T]) Insert(v T) RefMut[T] {
	if e.state == entryOccupied {
		e.occupied.Insert(v)
		return e.occupied.IntoMut()
	}
	return e.vacant.Insert(v)
}

// InsertEntry forces the entry to v regardless of its prior state,
// returning an OccupiedEntry (useful when the caller wants to keep
// interacting with the occupied view rather than drop straight to a
// RefMut).
func (e Entry[T]) InsertEntry(v T) OccupiedEntry[T] {
	if e.state == entryOccupied {
		e.occupied.Insert(v)
		return e.occupied
	}
	return e.vacant.InsertEntry(v)
}

// OccupiedEntry is the "an element already exists at this hash" state.
type OccupiedEntry[T any] struct {
	guard rwlock.WriteGuard
	table *subtable.Table[T]
	hash  uint64
	eq    func(*T) bool
	slot  *T
}

// Unlock releases the shard's exclusive lock without removing or
// replacing the element.
func (o OccupiedEntry[T]) Unlock() { o.guard.Unlock() }

// Get returns the existing element.
func (o OccupiedEntry[T]) Get() *T { return o.slot }

// GetMut returns a mutable pointer to the existing element.
func (o OccupiedEntry[T]) GetMut() *T { return o.slot }

// Insert replaces the element's value, returning the old one.
func (o OccupiedEntry[T]) Insert(v T) T {
	old := *o.slot
	*o.slot = v
	return old
}

// IntoMut consumes the entry, returning a RefMut over the element and
// transferring the exclusive guard to it.
func (o OccupiedEntry[T]) IntoMut() RefMut[T] {
	return RefMut[T]{guard: o.guard, t: o.slot}
}

// Remove deletes the element from the table, returning it. It is a
// terminal operation: the shard's exclusive lock is released before
// Remove returns.
func (o OccupiedEntry[T]) Remove() T {
	removed, _ := o.table.Remove(o.hash, o.eq)
	o.guard.Unlock()
	return removed
}

// VacantEntry is the "no element at this hash" state.
type VacantEntry[T any] struct {
	guard rwlock.WriteGuard
	table *subtable.Table[T]
	hash  uint64
	eq    func(*T) bool
}

// Unlock releases the shard's exclusive lock without inserting anything.
func (v VacantEntry[T]) Unlock() { v.guard.Unlock() }

// Insert stores v at this entry's hash, returning a RefMut to it.
func (v VacantEntry[T]) Insert(value T) RefMut[T] {
	ptr := v.table.Insert(v.hash, value)
	return RefMut[T]{guard: v.guard, t: ptr}
}

// InsertEntry stores value at this entry's hash, returning an
// OccupiedEntry so the caller can keep interacting with the occupied
// view rather than unwrap straight to a RefMut.
func (v VacantEntry[T]) InsertEntry(value T) OccupiedEntry[T] {
	ptr := v.table.Insert(v.hash, value)
	return OccupiedEntry[T]{guard: v.guard, table: v.table, hash: v.hash, eq: v.eq, slot: ptr}
}
