package shardmap

// table.go implements the concurrent table (spec.md §4.D): the public
// surface over the shard collection for hash-keyed elements. All
// operations take a hash plus an equality predicate, imposing no hashing
// policy of their own; none takes a rehash function, because the sub-table
// keeps each element under the hash it was inserted with — Map[K,V]
// (map.go) is the layer that actually knows about keys.
//
// © 2025 shardmap authors. MIT License.

import (
	"go.uber.org/zap"

	"github.com/Voskan/shardmap/internal/rwlock"
	"github.com/Voskan/shardmap/internal/shard"
	"github.com/Voskan/shardmap/internal/subtable"
)

// Table is the low-level, hash-and-equality-keyed concurrent collection
// THE CORE is built around. T is the element type stored at each slot;
// Map[K,V] instantiates Table[pair[K,V]].
type Table[T any] struct {
	shards *shard.Collection[subtable.Table[T]]
	logger *zap.Logger
}

// logAndRepanic logs a recovered panic at Error level, with the operation
// name that was in flight, then re-raises it unchanged. Used around the two
// invariant violations internal/shard and internal/rwlock can panic with
// (a hash dispatching outside the shard array, and the shared-lock reader
// count overflowing): both are bugs in THE CORE's own bookkeeping rather
// than anything a caller did, so the only useful action is to leave a
// record before the panic propagates, matching the teacher's pattern of
// logging immediately before returning a terminal error.
func (t *Table[T]) logAndRepanic(op string, r any) {
	if t.logger != nil {
		t.logger.Error("shardmap: panic in core operation", zap.String("op", op), zap.Any("panic", r))
	}
	panic(r)
}

func (t *Table[T]) getReadShard(hash uint64) (g rwlock.ReadGuard, sub *subtable.Table[T]) {
	defer func() {
		if r := recover(); r != nil {
			t.logAndRepanic("getReadShard", r)
		}
	}()
	return t.shards.GetReadShard(hash)
}

func (t *Table[T]) getWriteShard(hash uint64) (g rwlock.WriteGuard, sub *subtable.Table[T]) {
	defer func() {
		if r := recover(); r != nil {
			t.logAndRepanic("getWriteShard", r)
		}
	}()
	return t.shards.GetWriteShard(hash)
}

func (t *Table[T]) tryReadShard(hash uint64) (g rwlock.ReadGuard, sub *subtable.Table[T], ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logAndRepanic("tryReadShard", r)
		}
	}()
	return t.shards.TryReadShard(hash)
}

func (t *Table[T]) tryWriteShard(hash uint64) (g rwlock.WriteGuard, sub *subtable.Table[T], ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logAndRepanic("tryWriteShard", r)
		}
	}()
	return t.shards.TryWriteShard(hash)
}

func (t *Table[T]) determineShard(hash uint64) (idx int) {
	defer func() {
		if r := recover(); r != nil {
			t.logAndRepanic("determineShard", r)
		}
	}()
	return t.shards.DetermineShard(hash)
}

// NewTable constructs a Table with the default shard amount and no
// capacity pre-sizing.
func NewTable[T any]() *Table[T] {
	return NewTableWithCapacityAndShardAmount[T](0, defaultShardAmount())
}

// NewTableWithCapacity constructs a Table pre-sized to hold roughly n
// elements across the default number of shards.
func NewTableWithCapacity[T any](n int) *Table[T] {
	return NewTableWithCapacityAndShardAmount[T](n, defaultShardAmount())
}

// NewTableWithShardAmount constructs a Table with shardAmount shards,
// which must be a power of two greater than 1.
func NewTableWithShardAmount[T any](shardAmount int) *Table[T] {
	return NewTableWithCapacityAndShardAmount[T](0, shardAmount)
}

// NewTableWithCapacityAndShardAmount is the most general constructor.
// Capacity is rounded up to a multiple of shardAmount and divided evenly
// across shards.
func NewTableWithCapacityAndShardAmount[T any](n, shardAmount int) *Table[T] {
	if shardAmount <= 1 || shardAmount&(shardAmount-1) != 0 {
		panic("shardmap: shard amount must be a power of two greater than 1")
	}
	perShard := 0
	if n > 0 {
		perShard = (n + shardAmount - 1) / shardAmount
	}
	return &Table[T]{
		shards: shard.New[subtable.Table[T]](shardAmount, func() subtable.Table[T] {
			return *subtable.New[T](perShard)
		}),
	}
}

// ShardAmount returns the number of shards backing this table.
func (t *Table[T]) ShardAmount() int { return t.shards.Len() }

// Find acquires the shard hash dispatches to in shared mode and returns a
// Ref to the matching element, if one exists.
func (t *Table[T]) Find(hash uint64, eq func(*T) bool) (Ref[T], bool) {
	guard, sub := t.getReadShard(hash)
	if v, ok := sub.Find(hash, eq); ok {
		return newRef(guard, v), true
	}
	guard.Unlock()
	return Ref[T]{}, false
}

// FindMut is Find's exclusive-mode counterpart.
func (t *Table[T]) FindMut(hash uint64, eq func(*T) bool) (RefMut[T], bool) {
	guard, sub := t.getWriteShard(hash)
	if v, ok := sub.Find(hash, eq); ok {
		return newRefMut(guard, v), true
	}
	guard.Unlock()
	return RefMut[T]{}, false
}

// TryFind is the non-blocking variant of Find.
func (t *Table[T]) TryFind(hash uint64, eq func(*T) bool) TryResult[Ref[T]] {
	guard, sub, ok := t.tryReadShard(hash)
	if !ok {
		return LockedResult[Ref[T]]()
	}
	if v, found := sub.Find(hash, eq); found {
		return PresentResult(newRef(guard, v))
	}
	guard.Unlock()
	return AbsentResult[Ref[T]]()
}

// TryFindMut is the non-blocking variant of FindMut.
func (t *Table[T]) TryFindMut(hash uint64, eq func(*T) bool) TryResult[RefMut[T]] {
	guard, sub, ok := t.tryWriteShard(hash)
	if !ok {
		return LockedResult[RefMut[T]]()
	}
	if v, found := sub.Find(hash, eq); found {
		return PresentResult(newRefMut(guard, v))
	}
	guard.Unlock()
	return AbsentResult[RefMut[T]]()
}

// Entry acquires the shard hash dispatches to in exclusive mode and
// returns an upsert-style Entry positioned at (hash, eq): Occupied if a
// matching element already lives there, Vacant otherwise, ready for the
// caller to insert. Table never rehashes — the hash passed in is used as
// given for both lookup and any resulting insert — so, unlike the
// original's table-level entry, no separate rehash function is taken.
func (t *Table[T]) Entry(hash uint64, eq func(*T) bool) Entry[T] {
	guard, sub := t.getWriteShard(hash)
	if v, ok := sub.Find(hash, eq); ok {
		return newOccupiedEntry(guard, sub, hash, eq, v)
	}
	return newVacantEntry(guard, sub, hash, eq)
}

// TryEntry is the non-blocking variant of Entry.
func (t *Table[T]) TryEntry(hash uint64, eq func(*T) bool) (Entry[T], bool) {
	guard, sub, ok := t.tryWriteShard(hash)
	if !ok {
		return Entry[T]{}, false
	}
	if v, found := sub.Find(hash, eq); found {
		return newOccupiedEntry(guard, sub, hash, eq, v), true
	}
	return newVacantEntry(guard, sub, hash, eq), true
}

// FindEntry acquires the shard exclusively and returns an OccupiedEntry
// if a match exists; unlike Entry, it cannot insert, and reports absence
// via the second return value rather than producing a Vacant entry.
func (t *Table[T]) FindEntry(hash uint64, eq func(*T) bool) (OccupiedEntry[T], bool) {
	guard, sub := t.getWriteShard(hash)
	if v, ok := sub.Find(hash, eq); ok {
		e := newOccupiedEntry(guard, sub, hash, eq, v)
		occ, _ := e.Occupied()
		return occ, true
	}
	guard.Unlock()
	return OccupiedEntry[T]{}, false
}

// Retain keeps only the elements for which keep returns true, visiting
// each shard under its own exclusive lock, in sequence.
func (t *Table[T]) Retain(keep func(*T) bool) {
	for _, s := range t.shards.Slots() {
		s.Lock.LockExclusive()
		s.Data.Retain(keep)
		s.Lock.UnlockExclusive()
	}
}

// Clear removes every element. It is implemented as Retain(false).
func (t *Table[T]) Clear() {
	t.Retain(func(*T) bool { return false })
}

// ShrinkToFit compacts every shard's sub-table to its current size.
func (t *Table[T]) ShrinkToFit() {
	for _, s := range t.shards.Slots() {
		s.Lock.LockExclusive()
		s.Data.ShrinkToFit()
		s.Lock.UnlockExclusive()
	}
}

// TryReserve requests capacity for at least additional more elements per
// shard. The Go builtin map underlying each shard cannot be reserved
// in-place past its initial sizing, so this rebuilds each shard's backing
// map — an explicitly accepted approximation (SPEC_FULL.md §9).
func (t *Table[T]) TryReserve(additional int) error {
	if additional < 0 {
		return &TryReserveError{reason: "negative additional capacity"}
	}
	for _, s := range t.shards.Slots() {
		s.Lock.LockExclusive()
		s.Data.Reserve(additional)
		s.Lock.UnlockExclusive()
	}
	return nil
}

// Len returns the total number of elements across all shards. The value
// may be stale relative to concurrent writes on other shards.
func (t *Table[T]) Len() int {
	total, _ := shard.TryFold(t.shards, 0, func(acc int, sub *subtable.Table[T]) (int, error) {
		return acc + sub.Len(), nil
	})
	return total
}

// IsEmpty reports whether Len() == 0. Like Len, it is racy.
func (t *Table[T]) IsEmpty() bool { return t.Len() == 0 }

// Capacity returns the sum of each shard's approximate capacity.
func (t *Table[T]) Capacity() int {
	total, _ := shard.TryFold(t.shards, 0, func(acc int, sub *subtable.Table[T]) (int, error) {
		return acc + sub.Capacity(), nil
	})
	return total
}

// ShardIndex returns the shard a hash dispatches to. The bounded-eviction
// extension (internal/evict, wired in map.go) uses this to keep one
// CLOCK-Pro clock per shard, indexed identically to Table's own shards, so
// that updating eviction state never requires a lock beyond the one an
// insert already holds.
func (t *Table[T]) ShardIndex(hash uint64) int {
	return t.determineShard(hash)
}
