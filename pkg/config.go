package shardmap

// config.go defines the internal configuration object and the set of
// functional options that can be passed to New/NewSet. A generic Option is
// used so that callbacks retain full type-safety with respect to the
// concrete key type K and value type V chosen by the caller.
//
// Design notes
// ------------
// • All fields are initialised with sensible defaults in defaultConfig().
// • Options never allocate unless strictly necessary — they just capture
//   pointers to external objects (registry, logger, hasher...).
// • The struct itself is unexported: callers can only influence behaviour
//   via Option[K,V], which keeps the door open to add fields later without
//   breaking anyone.
//
// © 2025 shardmap authors. MIT License.

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Voskan/shardmap/internal/evict"
)

// WeightFn computes an integer weight for a stored value, used only when
// WithEviction bounds the map's capacity. The number is abstract — the
// eviction algorithm treats it as relative cost (bytes, points, whatever
// fits the application) — and must always be positive; non-positive
// results are treated as weight 1. The function must be pure and cheap:
// it runs on every insert once eviction is enabled.
type WeightFn[V any] func(V) int

// EvictReason re-exports internal/evict's reason enum so callers configuring
// an EjectCallback do not need to import the internal package directly.
type EvictReason = evict.Reason

// EjectCallback is invoked, synchronously and on the calling goroutine,
// whenever an entry is evicted by the optional bounded-eviction extension
// (see WithEviction). It must not block: heavy work should be handed off
// to another goroutine. EjectCallback is never invoked for an ordinary
// Remove — only for capacity-driven eviction.
type EjectCallback[K comparable, V any] func(key K, val V, reason EvictReason)

// Option configures a Map or Set at construction time.
type Option[K comparable, V any] func(*config[K, V])

type config[K comparable, V any] struct {
	shardAmount  int
	capacityHint int

	hasher   Hasher[K]
	registry *prometheus.Registry
	logger   *zap.Logger

	evictionCapacity int
	weightFn         WeightFn[V]
	ejectCb          EjectCallback[K, V]
}

func defaultWeightFn[V any](V) int { return 1 }

func defaultConfig[K comparable, V any]() *config[K, V] {
	return &config[K, V]{
		shardAmount: defaultShardAmount(),
		hasher:      defaultHasher[K]{},
		logger:      zap.NewNop(),
		weightFn:    defaultWeightFn[V],
	}
}

// WithShardAmount overrides the default shard count. n must be a power of
// two greater than 1.
func WithShardAmount[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) { c.shardAmount = n }
}

// WithCapacity pre-sizes every shard's sub-table to hold roughly n/shards
// elements without reallocating.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) { c.capacityHint = n }
}

// WithHasher overrides the default xxhash-based key hasher.
func WithHasher[K comparable, V any](h Hasher[K]) Option[K, V] {
	return func(c *config[K, V]) {
		if h != nil {
			c.hasher = h
		}
	}
}

// WithLogger plugs an external zap.Logger. The map never logs on its hot
// path; the only events logged are the invariant-violation panics (reader-
// count overflow, shard index out of range) raised while the table
// dispatches to or locks a shard, at Error level just before they
// propagate. Evictions are not logged.
func WithLogger[K comparable, V any](l *zap.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (the default).
func WithMetrics[K comparable, V any](reg *prometheus.Registry) Option[K, V] {
	return func(c *config[K, V]) { c.registry = reg }
}

// WithEviction turns on the optional bounded-capacity CLOCK-Pro eviction
// extension (SPEC_FULL.md §10). capacity is split evenly across shards
// (capacity / shard amount, at least 1 per shard); once a shard's tracked
// weight exceeds its share, inserting into that shard evicts entries from
// it, possibly the one just inserted. Weight defaults to 1
// per entry (a pure element-count bound); pass a custom weightFn to bound
// on something else (approximate byte size, for instance).
func WithEviction[K comparable, V any](capacity int, weightFn WeightFn[V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.evictionCapacity = capacity
		if weightFn != nil {
			c.weightFn = weightFn
		}
	}
}

// WithEjectCallback registers a function invoked whenever WithEviction's
// policy evicts an entry for capacity reasons.
func WithEjectCallback[K comparable, V any](cb EjectCallback[K, V]) Option[K, V] {
	return func(c *config[K, V]) { c.ejectCb = cb }
}

func applyOptions[K comparable, V any](cfg *config[K, V], opts []Option[K, V]) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.shardAmount <= 1 || cfg.shardAmount&(cfg.shardAmount-1) != 0 {
		return ErrInvalidShardAmount
	}
	if cfg.capacityHint < 0 {
		return ErrInvalidCapacity
	}
	if cfg.evictionCapacity < 0 {
		return ErrInvalidEvictionCapacity
	}
	return nil
}

var (
	// ErrInvalidShardAmount is returned when a shard amount is not a power
	// of two greater than 1.
	ErrInvalidShardAmount = errors.New("shardmap: shard amount must be a power of two greater than 1")
	// ErrInvalidCapacity is returned when a negative capacity hint is supplied.
	ErrInvalidCapacity = errors.New("shardmap: capacity must be >= 0")
	// ErrInvalidEvictionCapacity is returned when a negative eviction capacity is supplied.
	ErrInvalidEvictionCapacity = errors.New("shardmap: eviction capacity must be >= 0")
)
