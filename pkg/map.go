package shardmap

// map.go implements Map[K,V] (spec.md §4.H): the key-and-value-typed facade
// over Table[pair[K,V]]. Map hashes keys via config.hasher, builds the
// equality predicate the table needs, and retains the original key (the
// table only ever sees hashes) the same way the original source's
// mapref::entry wraps a tableref::entry with the key it was constructed
// from. Bounded eviction (spec_full.md §10) is layered in here, one
// evict.Clock per shard, touched only while that shard's lock is already
// held by the table-level handle in hand.
//
// © 2025 shardmap authors. MIT License.

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Voskan/shardmap/internal/evict"
)

type pair[K comparable, V any] struct {
	Key K
	Val V
}

// Map is a concurrent, sharded hash map keyed by K with values V.
type Map[K comparable, V any] struct {
	table   *Table[pair[K, V]]
	cfg     *config[K, V]
	metrics metricsSink
	group   *loaderGroup[K, V]

	evictOn bool
	clocks  []*evict.Clock[pair[K, V]]
}

// New constructs a Map with the given options applied over the defaults
// (default shard amount, xxhash-based hasher, no metrics, no eviction).
func New[K comparable, V any](opts ...Option[K, V]) (*Map[K, V], error) {
	cfg := defaultConfig[K, V]()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}
	var table *Table[pair[K, V]]
	if cfg.capacityHint > 0 {
		table = NewTableWithCapacityAndShardAmount[pair[K, V]](cfg.capacityHint, cfg.shardAmount)
	} else {
		table = NewTableWithShardAmount[pair[K, V]](cfg.shardAmount)
	}
	table.logger = cfg.logger
	m := &Map[K, V]{
		table:   table,
		cfg:     cfg,
		metrics: newMetricsSink(cfg.shardAmount, cfg.registry),
		group:   newLoaderGroup[K, V](),
	}
	if cfg.evictionCapacity > 0 {
		m.evictOn = true
		perShard := cfg.evictionCapacity / cfg.shardAmount
		if perShard < 1 {
			perShard = 1
		}
		m.clocks = make([]*evict.Clock[pair[K, V]], cfg.shardAmount)
		for i := range m.clocks {
			idx := i
			m.clocks[i] = evict.New(perShard, func(p pair[K, V]) int {
				if w := cfg.weightFn(p.Val); w > 0 {
					return w
				}
				return 1
			}, func(p pair[K, V], reason evict.Reason) {
				// Admit only runs while this shard's exclusive lock is
				// held, so the evicted entry is removed from the shard's
				// sub-table directly.
				m.table.shards.Slots()[idx].Data.Remove(m.hash(p.Key), m.eq(p.Key))
				m.metrics.incEviction(idx)
				if cfg.ejectCb != nil {
					cfg.ejectCb(p.Key, p.Val, reason)
				}
			})
		}
	}
	return m, nil
}

func (m *Map[K, V]) hash(key K) uint64 { return m.cfg.hasher.Hash(key) }

func (m *Map[K, V]) eq(key K) func(*pair[K, V]) bool {
	return func(p *pair[K, V]) bool { return p.Key == key }
}

// ShardAmount returns the number of shards backing this map.
func (m *Map[K, V]) ShardAmount() int { return m.table.ShardAmount() }

// Len returns the total number of entries across all shards.
func (m *Map[K, V]) Len() int { return m.table.Len() }

// IsEmpty reports whether Len() == 0.
func (m *Map[K, V]) IsEmpty() bool { return m.table.IsEmpty() }

// Get returns a copy of the value stored under key, and whether it exists.
func (m *Map[K, V]) Get(key K) (V, bool) {
	hash := m.hash(key)
	shardIdx := m.table.ShardIndex(hash)
	ref, ok := m.table.Find(hash, m.eq(key))
	if !ok {
		m.metrics.incMiss(shardIdx)
		var zero V
		return zero, false
	}
	val := ref.Value().Val
	if m.evictOn {
		// Marking referenced while the shared lock is still held keeps
		// the touch from overlapping Admit/ForgetMatching, which change
		// the clock's ring under the exclusive lock. Concurrent readers
		// may set the same reference bit at once.
		m.clocks[shardIdx].TouchMatching(func(p pair[K, V]) bool { return p.Key == key })
	}
	ref.Unlock()
	m.metrics.incHit(shardIdx)
	return val, true
}

// TryGet is Get's non-blocking counterpart: it returns (zero, false)
// immediately, without waiting, if key's shard is currently held by
// another operation, recording that outcome as contention (see
// WithMetrics) rather than blocking like Get does.
func (m *Map[K, V]) TryGet(key K) (V, bool) {
	hash := m.hash(key)
	shardIdx := m.table.ShardIndex(hash)
	result := m.table.TryFind(hash, m.eq(key))
	var zero V
	switch {
	case result.IsLocked():
		m.metrics.incContention(shardIdx)
		return zero, false
	case result.IsPresent():
		ref, _ := result.Value()
		val := ref.Value().Val
		if m.evictOn {
			m.clocks[shardIdx].TouchMatching(func(p pair[K, V]) bool { return p.Key == key })
		}
		ref.Unlock()
		m.metrics.incHit(shardIdx)
		return val, true
	default:
		m.metrics.incMiss(shardIdx)
		return zero, false
	}
}

// TryEntry is Entry's non-blocking counterpart: it returns a MapEntry and
// true if key's shard was acquired without blocking, or a zero MapEntry and
// false — recorded as contention — if another operation currently holds it.
func (m *Map[K, V]) TryEntry(key K) (MapEntry[K, V], bool) {
	hash := m.hash(key)
	shardIdx := m.table.ShardIndex(hash)
	inner, ok := m.table.TryEntry(hash, m.eq(key))
	if !ok {
		m.metrics.incContention(shardIdx)
		return MapEntry[K, V]{}, false
	}
	return MapEntry[K, V]{inner: inner, key: key, m: m, shardIdx: shardIdx}, true
}

// ContainsKey reports whether key exists in the map.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Insert stores value under key, returning the previous value if one
// existed.
func (m *Map[K, V]) Insert(key K, value V) (V, bool) {
	hash := m.hash(key)
	shardIdx := m.table.ShardIndex(hash)
	entry := m.table.Entry(hash, m.eq(key))
	var old V
	var had bool
	var rm RefMut[pair[K, V]]
	if occ, ok := entry.Occupied(); ok {
		old = occ.Insert(pair[K, V]{Key: key, Val: value}).Val
		had = true
		rm = occ.IntoMut()
	} else {
		vac, _ := entry.Vacant()
		rm = vac.Insert(pair[K, V]{Key: key, Val: value})
	}
	if m.evictOn {
		if had {
			// Overwriting an existing key leaves its old node in the
			// ring; forget it first so the fresh Admit below is the
			// only tracked node for this key.
			m.clocks[shardIdx].ForgetMatching(func(p pair[K, V]) bool { return p.Key == key })
		}
		m.admitEviction(shardIdx, key, value)
	}
	rm.Unlock()
	m.metrics.setOccupancy(shardIdx, int64(m.table.shards.Slots()[shardIdx].Data.Len()))
	return old, had
}

func (m *Map[K, V]) admitEviction(shardIdx int, key K, value V) {
	m.clocks[shardIdx].Admit(pair[K, V]{Key: key, Val: value})
}

// Remove deletes key from the map, returning its value if one existed.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	hash := m.hash(key)
	shardIdx := m.table.ShardIndex(hash)
	occ, ok := m.table.FindEntry(hash, m.eq(key))
	if !ok {
		var zero V
		return zero, false
	}
	if m.evictOn {
		m.clocks[shardIdx].ForgetMatching(func(p pair[K, V]) bool { return p.Key == key })
	}
	removed := occ.Remove()
	return removed.Val, true
}

// Clear removes every entry from the map.
func (m *Map[K, V]) Clear() { m.table.Clear() }

// Entry returns an upsert-style Entry positioned at key, holding that
// shard's exclusive lock until a terminal operation releases it.
func (m *Map[K, V]) Entry(key K) MapEntry[K, V] {
	hash := m.hash(key)
	inner := m.table.Entry(hash, m.eq(key))
	return MapEntry[K, V]{inner: inner, key: key, m: m, shardIdx: m.table.ShardIndex(hash)}
}

// AndModify mutates value in place if key exists, otherwise does nothing.
func (m *Map[K, V]) AndModify(key K, f func(*V)) {
	hash := m.hash(key)
	ref, ok := m.table.FindMut(hash, m.eq(key))
	if !ok {
		return
	}
	f(&ref.Value().Val)
	ref.Unlock()
}

// Iter returns a shared-mode iterator over the map's entries.
func (m *Map[K, V]) Iter() *MapIter[K, V] {
	return &MapIter[K, V]{inner: m.table.Iter()}
}

// IterMut returns an exclusive-mode iterator over the map's entries.
func (m *Map[K, V]) IterMut() *MapIterMut[K, V] {
	return &MapIterMut[K, V]{inner: m.table.IterMut()}
}

// GetOrCompute returns the value stored under key, computing and inserting
// it via fn if absent. Concurrent callers racing on the same missing key
// share a single execution of fn (golang.org/x/sync/singleflight), the same
// thundering-herd guard the teacher's GetOrLoad provides.
func (m *Map[K, V]) GetOrCompute(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	if v, ok := m.Get(key); ok {
		return v, nil
	}
	hash := m.hash(key)
	val, err, _ := m.group.load(ctx, hash, fn)
	if err != nil {
		var zero V
		return zero, err
	}
	m.Insert(key, val)
	return val, nil
}

// View returns a read-only projection of the map. It shares
// the map's underlying storage; it does not copy.
func (m *Map[K, V]) View() ReadOnlyView[K, V] { return ReadOnlyView[K, V]{m: m} }

// String implements fmt.Stringer for debugging, never logged on the hot
// path.
func (m *Map[K, V]) String() string {
	return fmt.Sprintf("Map[%d shards, %d entries]", m.ShardAmount(), m.Len())
}

func (m *Map[K, V]) logger() *zap.Logger { return m.cfg.logger }
