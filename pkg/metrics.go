package shardmap

// metrics.go is a thin Prometheus abstraction so a Map can be used with or
// without metrics collection. Passing a *prometheus.Registry via WithMetrics
// enables per-shard counters and gauges; otherwise a no-op sink is used and
// the hot path never pays for a metric update. Adapted from the teacher's
// metrics.go, renamed for this package's concerns (hits/misses/contention/
// evictions/occupancy rather than arena byte accounting).
//
// © 2025 shardmap authors. MIT License.

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink abstracts the concrete backend (Prometheus vs noop) away from
// Map, which only ever calls these methods.
type metricsSink interface {
	incHit(shard int)
	incMiss(shard int)
	incContention(shard int)
	incEviction(shard int)
	setOccupancy(shard int, value int64)
}

type noopMetrics struct{}

func (noopMetrics) incHit(int)              {}
func (noopMetrics) incMiss(int)             {}
func (noopMetrics) incContention(int)       {}
func (noopMetrics) incEviction(int)         {}
func (noopMetrics) setOccupancy(int, int64) {}

type promMetrics struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	contention  *prometheus.CounterVec
	evictions   *prometheus.CounterVec
	occupancy   *prometheus.GaugeVec
	occupancyMu []atomic.Int64
}

func newPromMetrics(shardCount int, reg *prometheus.Registry) *promMetrics {
	label := []string{"shard"}
	pm := &promMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardmap",
			Name:      "hits_total",
			Help:      "Number of successful lookups.",
		}, label),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardmap",
			Name:      "misses_total",
			Help:      "Number of lookups that found no matching entry.",
		}, label),
		contention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardmap",
			Name:      "try_lock_contended_total",
			Help:      "Number of TryX operations that found the shard already locked.",
		}, label),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardmap",
			Name:      "evictions_total",
			Help:      "Number of entries evicted by the bounded-eviction extension.",
		}, label),
		occupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "shardmap",
			Name:      "shard_occupancy",
			Help:      "Number of entries currently stored in a shard.",
		}, label),
		occupancyMu: make([]atomic.Int64, shardCount),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.contention, pm.evictions, pm.occupancy)
	return pm
}

func (m *promMetrics) incHit(shard int)  { m.hits.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incMiss(shard int) { m.misses.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incContention(shard int) {
	m.contention.WithLabelValues(strconv.Itoa(shard)).Inc()
}
func (m *promMetrics) incEviction(shard int) {
	m.evictions.WithLabelValues(strconv.Itoa(shard)).Inc()
}
func (m *promMetrics) setOccupancy(shard int, value int64) {
	m.occupancyMu[shard].Store(value)
	m.occupancy.WithLabelValues(strconv.Itoa(shard)).Set(float64(value))
}

// newMetricsSink picks the Prometheus-backed sink if reg is non-nil, else a
// no-op sink.
func newMetricsSink(shardCount int, reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(shardCount, reg)
}
