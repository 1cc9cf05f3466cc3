package shardmap

// shardcount.go computes the default shard amount: next_pow2(4 *
// parallelism), matching spec.md §3/§9's lazily-computed default with
// init-once semantics (the original source derives it once via a
// OnceLock; here a sync.Once gives the same guarantee).
//
// © 2025 shardmap authors. MIT License.

import (
	"runtime"
	"sync"
)

var (
	defaultShardAmountOnce  sync.Once
	defaultShardAmountValue int
)

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// defaultShardAmount returns next_pow2(4 * GOMAXPROCS), computed once and
// cached for the lifetime of the process.
func defaultShardAmount() int {
	defaultShardAmountOnce.Do(func() {
		defaultShardAmountValue = nextPowerOfTwo(4 * runtime.GOMAXPROCS(0))
		if defaultShardAmountValue < 2 {
			defaultShardAmountValue = 2
		}
	})
	return defaultShardAmountValue
}
