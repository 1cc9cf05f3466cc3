// Package shard implements the shard collection: a fixed-length, power-of-
// two array of independently-locked slots, each guarding one caller-defined
// sub-table. It owns hash-to-shard dispatch and nothing else — the sub-
// table's contents and the data they hold are opaque to this package.
//
// Dispatch contract (fixed, do not change without updating every caller):
// idx = (hash << 7) >> shift. The left shift discards the top 7 bits of the
// hash, which are reserved for the sub-table's own per-entry tag byte, so
// the shard index and that tag are derived from disjoint regions of the
// hash. shift is word_bits - log2(shardCount), precomputed at construction.
//
// © 2025 shardmap authors. MIT License.
package shard

import (
	"math/bits"

	"github.com/Voskan/shardmap/internal/rwlock"
)

// padBytes is a heuristic nod to false-sharing avoidance: it pads each slot
// out to roughly a cache line regardless of the size of T. It is not an
// exact computation against sizeof(T) — Go generics give no portable way to
// query that at compile time — so for very large T this padding is
// ineffective; that tradeoff is accepted because the slots are addressed
// through a pointer slice (see Collection.slots) and pointer-level
// indirection already keeps most hot slot headers on separate allocations.
const padBytes = 64

// Slot is one cache-padded shard: a lock plus the sub-table it guards.
type Slot[T any] struct {
	Lock rwlock.RWLock
	Data T
	_    [padBytes]byte
}

// Collection is a fixed-size array of shards dispatched by hash.
type Collection[T any] struct {
	shift uint
	slots []*Slot[T]
}

// New builds a Collection with shardAmount shards, each initialised by
// calling newData(). shardAmount must be a power of two greater than 1.
func New[T any](shardAmount int, newData func() T) *Collection[T] {
	if shardAmount <= 1 || shardAmount&(shardAmount-1) != 0 {
		panic("shard: shard amount must be a power of two greater than 1")
	}
	slots := make([]*Slot[T], shardAmount)
	for i := range slots {
		slots[i] = &Slot[T]{Data: newData()}
	}
	return &Collection[T]{
		shift: uint(bits.UintSize) - uint(bits.TrailingZeros(uint(shardAmount))),
		slots: slots,
	}
}

// Len returns the number of shards in the collection.
func (c *Collection[T]) Len() int { return len(c.slots) }

// DetermineShard returns the shard index a hash dispatches to. The result
// is always < c.Len().
func (c *Collection[T]) DetermineShard(hash uint64) int {
	idx := int((hash << 7) >> c.shift)
	if idx < 0 || idx >= len(c.slots) {
		panic("shard: computed shard index out of range")
	}
	return idx
}

// Slots exposes the underlying slots in index order, for callers (Table's
// iteration, retain, shrink_to_fit, capacity/len aggregation) that must
// walk every shard directly.
func (c *Collection[T]) Slots() []*Slot[T] { return c.slots }

// GetReadShard acquires the shard hash dispatches to in shared mode and
// returns its guard and sub-table.
func (c *Collection[T]) GetReadShard(hash uint64) (rwlock.ReadGuard, *T) {
	s := c.slots[c.DetermineShard(hash)]
	return s.Lock.LockSharedGuard(), &s.Data
}

// GetWriteShard acquires the shard hash dispatches to in exclusive mode.
func (c *Collection[T]) GetWriteShard(hash uint64) (rwlock.WriteGuard, *T) {
	s := c.slots[c.DetermineShard(hash)]
	return s.Lock.LockExclusiveGuard(), &s.Data
}

// TryReadShard is the non-blocking variant of GetReadShard.
func (c *Collection[T]) TryReadShard(hash uint64) (rwlock.ReadGuard, *T, bool) {
	s := c.slots[c.DetermineShard(hash)]
	g, ok := s.Lock.TryLockSharedGuard()
	if !ok {
		return rwlock.ReadGuard{}, nil, false
	}
	return g, &s.Data, true
}

// TryWriteShard is the non-blocking variant of GetWriteShard.
func (c *Collection[T]) TryWriteShard(hash uint64) (rwlock.WriteGuard, *T, bool) {
	s := c.slots[c.DetermineShard(hash)]
	g, ok := s.Lock.TryLockExclusiveGuard()
	if !ok {
		return rwlock.WriteGuard{}, nil, false
	}
	return g, &s.Data, true
}

// GetMut returns a unique-access pointer into the shard hash dispatches to,
// skipping locking entirely. The caller must hold exclusive ownership of
// the whole Collection (e.g. via a *Collection received by value during
// construction, or external synchronisation) for this to be sound.
func (c *Collection[T]) GetMut(hash uint64) *T {
	return &c.slots[c.DetermineShard(hash)].Data
}

// TryFold folds f over every shard's sub-table in index order. Each
// shard's lock is acquired in shared mode, f is invoked, and the lock is
// released before the next shard is locked — no global freeze, and a
// bounded hold time per shard.
func TryFold[T, R any](c *Collection[T], init R, f func(R, *T) (R, error)) (R, error) {
	acc := init
	for _, s := range c.slots {
		g := s.Lock.LockSharedGuard()
		next, err := f(acc, &s.Data)
		g.Unlock()
		if err != nil {
			return acc, err
		}
		acc = next
	}
	return acc, nil
}
