// Package bench provides reproducible micro-benchmarks for shardmap.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// The benchmarks intentionally use a single key/value shape so results are
// comparable across versions:
//   - Key   - uint64 (cheap hashing, fits in register)
//   - Value - 64-byte struct (large enough to matter, small enough for cache)
//
// We measure:
//  1. Insert       - write-only workload
//  2. Get          - read-only workload (after warm-up)
//  3. GetParallel  - highly concurrent reads (b.RunParallel)
//  4. GetOrCompute - 90% hits, 10% misses with compute cost
//
// NOTE: Unit tests live elsewhere; this file is only for performance.
//
// © 2025 shardmap authors. MIT License.

package bench

import (
	"context"
	"math/rand"
	"runtime"
	"sync/atomic"
	"testing"

	shardmap "github.com/Voskan/shardmap/pkg"
)

type value64 struct {
	_ [64]byte
}

const (
	shards = 16
	keys   = 1 << 20 // 1M keys for dataset
)

func newTestMap() *shardmap.Map[uint64, value64] {
	m, err := shardmap.New[uint64, value64](shardmap.WithShardAmount[uint64, value64](shards))
	if err != nil {
		panic(err)
	}
	return m
}

// global dataset reused across benches to avoid reallocating large slices.
var ds = func() []uint64 {
	arr := make([]uint64, keys)
	for i := range arr {
		arr[i] = rand.Uint64()
	}
	return arr
}()

func BenchmarkInsert(b *testing.B) {
	m := newTestMap()
	val := value64{}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := ds[i&(keys-1)]
		m.Insert(key, val)
	}
}

func BenchmarkGet(b *testing.B) {
	m := newTestMap()
	val := value64{}
	// pre-populate (warm-up)
	for _, k := range ds {
		m.Insert(k, val)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := ds[i&(keys-1)]
		_, _ = m.Get(k)
	}
}

func BenchmarkGetParallel(b *testing.B) {
	m := newTestMap()
	val := value64{}
	for _, k := range ds {
		m.Insert(k, val)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		idx := rand.Intn(keys)
		for pb.Next() {
			idx = (idx + 1) & (keys - 1)
			m.Get(ds[idx])
		}
	})
}

func BenchmarkGetOrCompute(b *testing.B) {
	m := newTestMap()
	val := value64{}
	// Preload 90% of keys to simulate mixed hit/miss.
	for i, k := range ds {
		if i%10 != 0 { // 90% fill
			m.Insert(k, val)
		}
	}
	var computeCnt atomic.Uint64
	compute := func(context.Context) (value64, error) {
		computeCnt.Add(1)
		return val, nil
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := ds[i&(keys-1)]
		m.GetOrCompute(context.Background(), k, compute)
	}
	b.ReportMetric(float64(computeCnt.Load())/float64(b.N)*100, "miss-%")
}

func init() {
	rand.Seed(42)
	runtime.GOMAXPROCS(runtime.NumCPU())
}
