package rwlock

import "sync/atomic"

// ReadGuard is a detached guard: it owns the release of a shared lock but
// holds no reference to the data the lock protects. The borrowed data
// pointer travels alongside the guard, returned separately by whatever
// acquired the lock (see internal/shard), so its lifetime can be managed
// independently of the guard's. Go's garbage collector makes this
// separation trivial — unlike the lock's origin in a language without one,
// there is no need to reinterpret raw pointers to split a combined
// guard-plus-borrow type apart.
//
// Go has no destructors, so callers must call Unlock explicitly (typically
// via defer) once every borrow obtained under the guard has gone out of
// use. This is the one unavoidable departure from RAII release and is the
// idiomatic Go substitute, mirroring sync.RWMutex.RUnlock.
type ReadGuard struct {
	lock *RWLock
}

// Unlock releases the shared lock. Calling it more than once, or on the
// zero ReadGuard, is a programming error.
func (g ReadGuard) Unlock() { g.lock.UnlockShared() }

// WriteGuard is the exclusive-mode counterpart to ReadGuard.
type WriteGuard struct {
	lock *RWLock
}

// Unlock releases the exclusive lock.
func (g WriteGuard) Unlock() { g.lock.UnlockExclusive() }

// Downgrade converts the exclusive guard into a shared one, inheriting the
// lock's atomic downgrade: no writer can acquire between the two states.
// The receiver must not be used again after calling Downgrade.
func (g WriteGuard) Downgrade() ReadGuard {
	g.lock.Downgrade()
	return ReadGuard{lock: g.lock}
}

// LockSharedGuard blocks until the shared lock is held and returns a
// detached guard for it.
func (l *RWLock) LockSharedGuard() ReadGuard {
	l.LockShared()
	return ReadGuard{lock: l}
}

// TryLockSharedGuard attempts to acquire the shared lock without blocking.
func (l *RWLock) TryLockSharedGuard() (ReadGuard, bool) {
	if l.TryLockShared() {
		return ReadGuard{lock: l}, true
	}
	return ReadGuard{}, false
}

// LockExclusiveGuard blocks until the exclusive lock is held and returns a
// detached guard for it.
func (l *RWLock) LockExclusiveGuard() WriteGuard {
	l.LockExclusive()
	return WriteGuard{lock: l}
}

// TryLockExclusiveGuard attempts to acquire the exclusive lock without
// blocking.
func (l *RWLock) TryLockExclusiveGuard() (WriteGuard, bool) {
	if l.TryLockExclusive() {
		return WriteGuard{lock: l}, true
	}
	return WriteGuard{}, false
}

// SharedReadGuard is a ReadGuard wrapped for ownership sharing across many
// emitted iteration elements: every RefMulti produced while walking a
// shard's contents holds one reference, and the underlying shared lock is
// released only once the last reference is dropped — whether that is the
// iterator itself advancing past the shard, or the last outstanding
// RefMulti's Release. This is the Go realization of an atomically
// refcounted detached guard.
type SharedReadGuard struct {
	guard ReadGuard
	refs  atomic.Int64
}

// NewSharedReadGuard wraps g for shared ownership, starting at one
// reference (held by the caller).
func NewSharedReadGuard(g ReadGuard) *SharedReadGuard {
	s := &SharedReadGuard{guard: g}
	s.refs.Store(1)
	return s
}

// Acquire adds one reference and returns the same owner, for convenient
// chaining at the call site that clones a RefMulti.
func (s *SharedReadGuard) Acquire() *SharedReadGuard {
	s.refs.Add(1)
	return s
}

// Release drops one reference, unlocking the underlying shard lock once
// the count reaches zero.
func (s *SharedReadGuard) Release() {
	if s.refs.Add(-1) == 0 {
		s.guard.Unlock()
	}
}

// SharedWriteGuard is the exclusive-mode counterpart to SharedReadGuard,
// used by mutable iteration (RefMutMulti).
type SharedWriteGuard struct {
	guard WriteGuard
	refs  atomic.Int64
}

// NewSharedWriteGuard wraps g for shared ownership, starting at one
// reference.
func NewSharedWriteGuard(g WriteGuard) *SharedWriteGuard {
	s := &SharedWriteGuard{guard: g}
	s.refs.Store(1)
	return s
}

// Acquire adds one reference and returns the same owner.
func (s *SharedWriteGuard) Acquire() *SharedWriteGuard {
	s.refs.Add(1)
	return s
}

// Release drops one reference, unlocking the underlying shard lock once
// the count reaches zero.
func (s *SharedWriteGuard) Release() {
	if s.refs.Add(-1) == 0 {
		s.guard.Unlock()
	}
}
