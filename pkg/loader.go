package shardmap

// loader.go implements the singleflight-based de-duplication layer behind
// Map.GetOrCompute: when many goroutines request the same missing key
// concurrently, only one of them runs the compute function, the rest wait
// for its result. Adapted from the teacher's loader.go, trimmed to the
// synchronous path — GetOrCompute already takes a context itself, so the
// async DoChan variant the teacher also exposed has no caller here.
//
// © 2025 shardmap authors. MIT License.

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

type loaderGroup[K comparable, V any] struct {
	g singleflight.Group
}

func newLoaderGroup[K comparable, V any]() *loaderGroup[K, V] {
	return &loaderGroup[K, V]{}
}

// load executes fn exactly once for the given key hash across all concurrent
// callers; every waiter receives the same value/error. shared reports
// whether this call returned a result computed by another goroutine.
func (lg *loaderGroup[K, V]) load(
	ctx context.Context,
	keyHash uint64,
	fn func(context.Context) (V, error),
) (val V, err error, shared bool) {
	k := strconv.FormatUint(keyHash, 16)
	res, err, shared := lg.g.Do(k, func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return val, err, shared
	}
	return res.(V), nil, shared
}
