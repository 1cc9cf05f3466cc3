// Package rwlock implements the raw reader-writer lock that every shard in
// shardmap is built on top of. It is a from-scratch, single-word atomic lock
// with a spin-then-park slow path, deliberately unfair to writers: a reader
// that arrives while a writer is parked may still acquire the lock ahead of
// it. This mirrors the throughput-over-fairness tradeoff of the upstream
// sharded map this package's shard layer descends from, and is load-bearing
// behaviour — not an oversight — so it is tested explicitly (see
// rwlock_test.go's fairness cases).
//
// State encoding (single atomic word, low bits as flags, high bits as a
// reader count in multiples of oneReader):
//
//	bit 0       readersParked — at least one reader is parked
//	bit 1       writersParked — at least one writer is parked
//	bits 2..N   reader count, in units of oneReader (4); all bits set
//	            (oneWriter) denotes "locked for exclusive access"
//
// Go has no parking_lot_core equivalent, so the park/unpark slow path is
// built on a sync.Mutex plus two sync.Cond — one for the writer class,
// parked conceptually at "address self", and one for the reader class,
// parked at "address self+1" — so each class can be woken independently
// without waking the other.
//
// © 2025 shardmap authors. MIT License.
package rwlock

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const (
	readersParked uint64 = 1 << 0
	writersParked uint64 = 1 << 1
	oneReader     uint64 = 1 << 2
	oneWriter     uint64 = ^(readersParked | writersParked)
)

const maxSpinAttempts = 6

// negate returns the unsigned two's-complement representation of -x, so
// that an atomic Add can perform what would otherwise be fetch_sub.
func negate(x uint64) uint64 { return ^x + 1 }

// spinWait implements a bounded exponential backoff: a handful of calls to
// runtime.Gosched before the caller is expected to fall back to parking.
type spinWait struct{ attempts int }

func (s *spinWait) spin() bool {
	if s.attempts >= maxSpinAttempts {
		return false
	}
	s.attempts++
	for i := 0; i < 1<<uint(s.attempts); i++ {
		runtime.Gosched()
	}
	return true
}

// parkQueue is the condition-variable substitute for the two parking-lot
// addresses (self for writers, self+1 for readers) the original lock uses.
type parkQueue struct {
	mu         sync.Mutex
	writerWake sync.Cond
	readerWake sync.Cond
	once       sync.Once
}

func (q *parkQueue) init() {
	q.once.Do(func() {
		q.writerWake.L = &q.mu
		q.readerWake.L = &q.mu
	})
}

func (q *parkQueue) parkWriter(stillBlocked func() bool) {
	q.init()
	q.mu.Lock()
	for stillBlocked() {
		q.writerWake.Wait()
	}
	q.mu.Unlock()
}

func (q *parkQueue) parkReader(stillBlocked func() bool) {
	q.init()
	q.mu.Lock()
	for stillBlocked() {
		q.readerWake.Wait()
	}
	q.mu.Unlock()
}

func (q *parkQueue) wakeWriter() {
	q.init()
	q.mu.Lock()
	q.writerWake.Signal()
	q.mu.Unlock()
}

func (q *parkQueue) wakeAllReaders() {
	q.init()
	q.mu.Lock()
	q.readerWake.Broadcast()
	q.mu.Unlock()
}

// RWLock is a single-word-state reader-writer lock. The zero value is a
// valid, unlocked lock.
type RWLock struct {
	atomicState atomic.Uint64
	q           parkQueue
}

// New returns a ready-to-use, unlocked RWLock.
func New() *RWLock {
	l := &RWLock{}
	l.q.init()
	return l
}

func (l *RWLock) load() uint64 { return l.atomicState.Load() }

// TryLockExclusive attempts to acquire the lock for exclusive access
// without blocking. It returns false if any reader or writer currently
// holds, or is parked on, the lock.
func (l *RWLock) TryLockExclusive() bool {
	return l.atomicState.CompareAndSwap(0, oneWriter)
}

// LockExclusive blocks until the lock is held for exclusive access.
func (l *RWLock) LockExclusive() {
	if !l.TryLockExclusive() {
		l.lockExclusiveSlow()
	}
}

func (l *RWLock) lockExclusiveSlow() {
	acquireWith := uint64(0)
	for {
		var spin spinWait
		state := l.load()
		for {
			for state&oneWriter == 0 {
				if l.atomicState.CompareAndSwap(state, state|oneWriter|acquireWith) {
					return
				}
				state = l.load()
			}
			if state&writersParked == 0 {
				if spin.spin() {
					state = l.load()
					continue
				}
				if !l.atomicState.CompareAndSwap(state, state|writersParked) {
					state = l.load()
					continue
				}
			}
			l.q.parkWriter(func() bool {
				s := l.load()
				return s&oneWriter != 0 && s&writersParked != 0
			})
			acquireWith = writersParked
			break
		}
	}
}

// UnlockExclusive releases a lock held for exclusive access. It is a
// programming error to call it without holding the lock exclusively.
func (l *RWLock) UnlockExclusive() {
	if !l.atomicState.CompareAndSwap(oneWriter, 0) {
		l.unlockExclusiveSlow()
	}
}

func (l *RWLock) unlockExclusiveSlow() {
	state := l.load()
	if state&oneWriter != oneWriter {
		panic("rwlock: UnlockExclusive called without holding the exclusive lock")
	}
	parked := state & (readersParked | writersParked)
	if parked == 0 {
		panic("rwlock: inconsistent state on exclusive unlock slow path")
	}
	if parked != (readersParked | writersParked) {
		if !l.atomicState.CompareAndSwap(state, 0) {
			newState := l.load()
			if newState != oneWriter|readersParked|writersParked {
				panic("rwlock: unexpected state racing exclusive unlock")
			}
			parked = readersParked | writersParked
		}
	}
	if parked == (readersParked | writersParked) {
		// Both classes are waiting: readers win. This is the documented
		// unfair-to-writers policy.
		l.atomicState.Store(writersParked)
		parked = readersParked
	}
	if parked == readersParked {
		l.q.wakeAllReaders()
		return
	}
	l.q.wakeWriter()
}

// TryLockShared attempts to acquire a shared (read) lock without blocking.
func (l *RWLock) TryLockShared() bool {
	state := l.load()
	for {
		newState := state + oneReader
		if newState < state || newState&oneWriter == oneWriter {
			return false
		}
		if l.atomicState.CompareAndSwap(state, newState) {
			return true
		}
		state = l.load()
	}
}

// LockShared blocks until a shared (read) lock is held.
func (l *RWLock) LockShared() {
	if !l.TryLockShared() {
		l.lockSharedSlow()
	}
}

func (l *RWLock) lockSharedSlow() {
	for {
		var spin spinWait
		state := l.load()
		for {
			newState := state
			for newState&oneWriter != oneWriter {
				candidate := newState + oneReader
				if candidate < newState || candidate&oneWriter == oneWriter {
					panic("rwlock: reader count overflowed")
				}
				if l.atomicState.CompareAndSwap(newState, candidate) {
					return
				}
				newState = l.load()
			}
			if newState&writersParked == 0 && spin.spin() {
				newState = l.load()
				continue
			}
			if newState&readersParked == 0 {
				if !l.atomicState.CompareAndSwap(newState, newState|readersParked) {
					newState = l.load()
					continue
				}
			}
			l.q.parkReader(func() bool {
				s := l.load()
				return s&oneWriter == oneWriter && s&readersParked != 0
			})
			break
		}
	}
}

// UnlockShared releases one shared (read) lock.
func (l *RWLock) UnlockShared() {
	newState := l.atomicState.Add(negate(oneReader))
	if newState == writersParked {
		l.unlockSharedSlow()
	}
}

func (l *RWLock) unlockSharedSlow() {
	if l.atomicState.CompareAndSwap(writersParked, 0) {
		l.q.wakeWriter()
	}
}

// Downgrade atomically converts a held exclusive lock into a shared lock.
// No intervening writer can observe the lock as free between the two
// states: the transition happens in a single atomic store.
func (l *RWLock) Downgrade() {
	for {
		state := l.load()
		newState := (state & writersParked) | oneReader
		if l.atomicState.CompareAndSwap(state, newState) {
			if state&readersParked != 0 {
				l.q.wakeAllReaders()
			}
			return
		}
	}
}
