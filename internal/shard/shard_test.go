package shard

import (
	"testing"
)

func TestDetermineShardWithinBounds(t *testing.T) {
	c := New[int](8, func() int { return 0 })
	for h := uint64(0); h < 1<<20; h += 104729 {
		idx := c.DetermineShard(h)
		if idx < 0 || idx >= c.Len() {
			t.Fatalf("hash %d dispatched to out-of-range shard %d", h, idx)
		}
	}
}

func TestDetermineShardStableForSameHash(t *testing.T) {
	c := New[int](16, func() int { return 0 })
	h := uint64(0xDEADBEEFCAFEBABE)
	first := c.DetermineShard(h)
	for i := 0; i < 100; i++ {
		if got := c.DetermineShard(h); got != first {
			t.Fatalf("same hash dispatched to different shards: %d vs %d", first, got)
		}
	}
}

func TestMinimumShardCount(t *testing.T) {
	c := New[int](2, func() int { return 0 })
	seen := map[int]bool{}
	for h := uint64(0); h < 64; h++ {
		seen[c.DetermineShard(h)] = true
	}
	if len(seen) == 0 {
		t.Fatal("expected at least one shard to be reachable")
	}
	for idx := range seen {
		if idx != 0 && idx != 1 {
			t.Fatalf("shard count 2 produced an out-of-range index %d", idx)
		}
	}
}

func TestNonPowerOfTwoPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected New to panic for a non-power-of-two shard amount")
		}
	}()
	New[int](3, func() int { return 0 })
}

func TestGetReadShardAndGetWriteShardMutualExclusion(t *testing.T) {
	c := New[int](4, func() int { return 0 })
	h := uint64(42)

	wg, data := c.GetWriteShard(h)
	*data = 7

	_, _, ok := c.TryReadShard(h)
	if ok {
		t.Fatal("expected shared acquisition to fail while exclusive lock is held")
	}
	wg.Unlock()

	rg, data2 := c.GetReadShard(h)
	if *data2 != 7 {
		t.Fatalf("expected value 7 written under exclusive lock, got %d", *data2)
	}
	rg.Unlock()
}

func TestTryFoldVisitsEveryShardUnderSharedLocks(t *testing.T) {
	c := New[int](8, func() int { return 0 })
	for i, s := range c.Slots() {
		s.Data = i + 1
	}

	sum, err := TryFold(c, 0, func(acc int, data *int) (int, error) {
		return acc + *data, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 36 { // 1+2+...+8
		t.Fatalf("expected sum 36, got %d", sum)
	}
}

func TestTryFoldReleasesEachShardBeforeNext(t *testing.T) {
	c := New[int](4, func() int { return 0 })
	visited := 0
	_, err := TryFold(c, 0, func(acc int, data *int) (int, error) {
		visited++
		return acc, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visited != 4 {
		t.Fatalf("expected every shard to be visited, got %d", visited)
	}
	for i, s := range c.Slots() {
		if !s.Lock.TryLockExclusive() {
			t.Fatalf("shard %d still locked after TryFold returned", i)
		}
		s.Lock.UnlockExclusive()
	}
}
