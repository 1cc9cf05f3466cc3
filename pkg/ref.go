package shardmap

// ref.go implements the reference handle family from spec.md §4.E: Ref,
// RefMut for single-element access, RefMulti/RefMutMulti for iteration
// (sharing a guard via reference-counted ownership, internal/rwlock's
// SharedReadGuard/SharedWriteGuard), and their Mapped variants.
//
// Go has no destructors, so every handle here carries an explicit Unlock
// (or Release, for the Multi variants) method in place of the original's
// Drop-based guard release. Combinators that change a handle's type
// parameter (Map, TryMap) are free functions rather than methods, because
// Go methods cannot introduce additional type parameters.
//
// © 2025 shardmap authors. MIT License.

import "github.com/Voskan/shardmap/internal/rwlock"

// Ref is a shared-mode, single-element reference handle.
type Ref[T any] struct {
	guard rwlock.ReadGuard
	t     *T
}

func newRef[T any](g rwlock.ReadGuard, t *T) Ref[T] { return Ref[T]{guard: g, t: t} }

// Value returns the borrowed pointer. It is valid only until Unlock is
// called.
func (r Ref[T]) Value() *T { return r.t }

// Unlock releases the shard lock this reference held.
func (r Ref[T]) Unlock() { r.guard.Unlock() }

// MapRef projects r through f, transferring the guard to the returned
// handle. f is infallible; for a fallible projection use TryMapRef.
func MapRef[T, U any](r Ref[T], f func(*T) *U) MappedRef[U] {
	return MappedRef[U]{guard: r.guard, u: f(r.t)}
}

// TryMapRef projects r through f. On success it returns the projected
// handle, the guard transferred across. On failure it returns the
// original Ref unchanged — the guard is never lost — so the caller may
// retry or fall back to using r.
func TryMapRef[T, U any](r Ref[T], f func(*T) (*U, bool)) (MappedRef[U], Ref[T], bool) {
	if u, ok := f(r.t); ok {
		return MappedRef[U]{guard: r.guard, u: u}, Ref[T]{}, true
	}
	return MappedRef[U]{}, r, false
}

// MappedRef is the result of projecting a Ref through Map/TryMap. Its
// guard is opaque: MappedRef only ever drops it via Unlock.
type MappedRef[U any] struct {
	guard rwlock.ReadGuard
	u     *U
}

// Value returns the projected pointer.
func (r MappedRef[U]) Value() *U { return r.u }

// Unlock releases the underlying shard lock.
func (r MappedRef[U]) Unlock() { r.guard.Unlock() }

// MapMappedRef further projects an already-mapped reference.
func MapMappedRef[U, W any](r MappedRef[U], f func(*U) *W) MappedRef[W] {
	return MappedRef[W]{guard: r.guard, u: f(r.u)}
}

// RefMut is an exclusive-mode, single-element reference handle.
type RefMut[T any] struct {
	guard rwlock.WriteGuard
	t     *T
}

func newRefMut[T any](g rwlock.WriteGuard, t *T) RefMut[T] { return RefMut[T]{guard: g, t: t} }

// Value returns the borrowed mutable pointer.
func (r RefMut[T]) Value() *T { return r.t }

// Unlock releases the shard's exclusive lock.
func (r RefMut[T]) Unlock() { r.guard.Unlock() }

// Downgrade atomically converts this handle's exclusive lock into a
// shared one, returning the equivalent Ref. No writer can acquire the
// lock between the two states. The receiver must not be used again.
func (r RefMut[T]) Downgrade() Ref[T] {
	return Ref[T]{guard: r.guard.Downgrade(), t: r.t}
}

// MapRefMut projects r through f, transferring the guard.
func MapRefMut[T, U any](r RefMut[T], f func(*T) *U) MappedRefMut[U] {
	return MappedRefMut[U]{guard: r.guard, u: f(r.t)}
}

// TryMapRefMut projects r through f. On failure it returns the original
// RefMut, guard intact, so the caller may retry the projection or keep
// using the original value — this is the core guarantee exercised by the
// `*b"test"` -> try_map(utf8_mut) scenario: a failed projection must never
// strand the exclusive lock.
func TryMapRefMut[T, U any](r RefMut[T], f func(*T) (*U, bool)) (MappedRefMut[U], RefMut[T], bool) {
	if u, ok := f(r.t); ok {
		return MappedRefMut[U]{guard: r.guard, u: u}, RefMut[T]{}, true
	}
	return MappedRefMut[U]{}, r, false
}

// MappedRefMut is the result of projecting a RefMut through Map/TryMap.
type MappedRefMut[U any] struct {
	guard rwlock.WriteGuard
	u     *U
}

// Value returns the projected mutable pointer.
func (r MappedRefMut[U]) Value() *U { return r.u }

// Unlock releases the underlying shard's exclusive lock.
func (r MappedRefMut[U]) Unlock() { r.guard.Unlock() }

// Downgrade converts the projected handle's exclusive lock into shared.
func (r MappedRefMut[U]) Downgrade() MappedRef[U] {
	return MappedRef[U]{guard: r.guard.Downgrade(), u: r.u}
}

// RefMulti is one element emitted by a shared-mode iterator. Its guard is
// held by a reference-counted owner shared across every element produced
// while the iterator visits a given shard (internal/rwlock.SharedReadGuard),
// so RefMulti can be cheaply cloned: the clone keeps the shard locked
// until both the original and the clone release it.
type RefMulti[T any] struct {
	owner *rwlock.SharedReadGuard
	t     *T
}

func newRefMulti[T any](owner *rwlock.SharedReadGuard, t *T) RefMulti[T] {
	return RefMulti[T]{owner: owner, t: t}
}

// Value returns the borrowed pointer.
func (r RefMulti[T]) Value() *T { return r.t }

// Clone returns a second handle to the same element, adding a reference
// to the shared shard guard.
func (r RefMulti[T]) Clone() RefMulti[T] {
	return RefMulti[T]{owner: r.owner.Acquire(), t: r.t}
}

// Release drops this handle's reference to the shared guard, unlocking
// the shard once every handle (and the iterator itself) has released.
func (r RefMulti[T]) Release() { r.owner.Release() }

// RefMutMulti is the exclusive-mode counterpart to RefMulti, produced by
// IterMut.
type RefMutMulti[T any] struct {
	owner *rwlock.SharedWriteGuard
	t     *T
}

func newRefMutMulti[T any](owner *rwlock.SharedWriteGuard, t *T) RefMutMulti[T] {
	return RefMutMulti[T]{owner: owner, t: t}
}

// Value returns the borrowed mutable pointer.
func (r RefMutMulti[T]) Value() *T { return r.t }

// Release drops this handle's reference to the shared guard.
func (r RefMutMulti[T]) Release() { r.owner.Release() }
