package shardmap

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMapInsertGetRemove(t *testing.T) {
	m, err := New[string, int]()
	if err != nil {
		t.Fatal(err)
	}
	if _, had := m.Insert("a", 1); had {
		t.Fatal("expected no previous value")
	}
	v, ok := m.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", v, ok)
	}
	old, had := m.Insert("a", 2)
	if !had || old != 1 {
		t.Fatalf("expected old value 1, got (%d, %v)", old, had)
	}
	removed, ok := m.Remove("a")
	if !ok || removed != 2 {
		t.Fatalf("expected removed value 2, got (%d, %v)", removed, ok)
	}
	if _, ok := m.Get("a"); ok {
		t.Fatal("expected key gone after remove")
	}
}

func TestMapContainsKeyAndLen(t *testing.T) {
	m, _ := New[int, string]()
	for i := 0; i < 100; i++ {
		m.Insert(i, "v")
	}
	if m.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", m.Len())
	}
	if !m.ContainsKey(50) {
		t.Fatal("expected key 50 to exist")
	}
	if m.ContainsKey(500) {
		t.Fatal("expected key 500 to be absent")
	}
	m.Clear()
	if !m.IsEmpty() {
		t.Fatal("expected empty map after Clear")
	}
}

func TestMapEntryOrInsertAndAndModify(t *testing.T) {
	m, _ := New[string, int]()
	m.Entry("counter").OrInsert(0).Unlock()
	m.Entry("counter").AndModify(func(v *int) { *v++ }).OrInsert(0).Unlock()
	v, _ := m.Get("counter")
	if v != 1 {
		t.Fatalf("expected counter == 1, got %d", v)
	}
}

func TestMapEntryRemove(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("k", 10)
	e := m.Entry("k")
	v, ok := e.Remove()
	if !ok || v != 10 {
		t.Fatalf("expected (10, true), got (%d, %v)", v, ok)
	}
	if m.ContainsKey("k") {
		t.Fatal("expected key removed")
	}

	// Removing a vacant entry must release the lock and report false.
	e2 := m.Entry("missing")
	_, ok = e2.Remove()
	if ok {
		t.Fatal("expected false removing a vacant entry")
	}
	if !m.TryEntryUnlocked("missing") {
		t.Fatal("expected shard unlocked after removing a vacant entry")
	}
}

// TryEntryUnlocked is a test helper confirming the shard for key is free.
func (m *Map[K, V]) TryEntryUnlocked(key K) bool {
	hash := m.hash(key)
	e, ok := m.table.TryEntry(hash, m.eq(key))
	if !ok {
		return false
	}
	e.Unlock()
	return true
}

func TestMapConcurrentInsertGet(t *testing.T) {
	m, _ := New[int, int]()
	var wg sync.WaitGroup
	const n = 500
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Insert(i, i*i)
		}(i)
	}
	wg.Wait()
	if m.Len() != n {
		t.Fatalf("expected %d entries, got %d", n, m.Len())
	}
	for i := 0; i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v != i*i {
			t.Fatalf("key %d: expected %d, got %d (%v)", i, i*i, v, ok)
		}
	}
}

func TestMapIterVisitsEveryEntry(t *testing.T) {
	m, _ := New[int, string]()
	const n = 30
	for i := 0; i < n; i++ {
		m.Insert(i, "v")
	}
	seen := make(map[int]bool)
	it := m.Iter()
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		seen[k] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d entries visited, got %d", n, len(seen))
	}
}

func TestMapIterMutMutatesInPlace(t *testing.T) {
	m, _ := New[int, int]()
	for i := 0; i < 10; i++ {
		m.Insert(i, i)
	}
	it := m.IterMut()
	for {
		_, v, ok := it.Next()
		if !ok {
			break
		}
		*v *= 10
	}
	for i := 0; i < 10; i++ {
		v, _ := m.Get(i)
		if v != i*10 {
			t.Fatalf("key %d: expected %d, got %d", i, i*10, v)
		}
	}
}

func TestMapGetOrComputeSharesSingleComputation(t *testing.T) {
	m, _ := New[string, int]()
	var calls int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("unexpected result %d, %v", v, err)
			}
		}()
	}
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	if calls < 1 {
		t.Fatal("expected at least one computation")
	}
}

func TestMapGetOrComputePropagatesError(t *testing.T) {
	m, _ := New[string, int]()
	sentinel := errors.New("boom")
	_, err := m.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if m.ContainsKey("k") {
		t.Fatal("a failed compute must not insert a value")
	}
}

func TestMapWithEvictionBoundsSize(t *testing.T) {
	var evictedKeys []int
	var mu sync.Mutex
	m, err := New[int, int](
		WithShardAmount[int, int](2),
		WithEviction[int, int](4, func(int) int { return 1 }),
		WithEjectCallback[int, int](func(k, v int, r EvictReason) {
			mu.Lock()
			evictedKeys = append(evictedKeys, k)
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		m.Insert(i, i)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(evictedKeys) == 0 {
		t.Fatal("expected evictions once capacity was exceeded")
	}
}

// TestMapEntryInsertEntry covers spec scenario 4: entry(1).insert_entry(2)
// on an empty map yields 2, and the same call on a map pre-populated with
// insert(1, 1000) overrides it, also yielding 2.
func TestMapEntryInsertEntry(t *testing.T) {
	m, _ := New[int, int]()
	occ := m.Entry(1).InsertEntry(2)
	if got := occ.Get(); got != 2 {
		t.Fatalf("expected 2 on empty map, got %d", got)
	}
	occ.Unlock()
	v, ok := m.Get(1)
	if !ok || v != 2 {
		t.Fatalf("expected stored value 2, got (%d, %v)", v, ok)
	}

	m2, _ := New[int, int]()
	m2.Insert(1, 1000)
	occ2 := m2.Entry(1).InsertEntry(2)
	if got := occ2.Get(); got != 2 {
		t.Fatalf("expected insert_entry to override 1000 with 2, got %d", got)
	}
	occ2.Unlock()
	v2, ok := m2.Get(1)
	if !ok || v2 != 2 {
		t.Fatalf("expected overridden value 2, got (%d, %v)", v2, ok)
	}
}

// TestMapTryGetAndTryEntryReportContention holds key 1's shard open via one
// Entry, and confirms TryGet/TryEntry on the same key back off instead of
// blocking while the shard is held.
func TestMapTryGetAndTryEntryReportContention(t *testing.T) {
	m, err := New[int, int](WithShardAmount[int, int](2))
	if err != nil {
		t.Fatal(err)
	}
	m.Insert(1, 100)

	held := m.Entry(1)
	defer held.Unlock()

	if _, ok := m.TryGet(1); ok {
		t.Fatal("expected TryGet to report contention while the shard is held")
	}
	if _, ok := m.TryEntry(1); ok {
		t.Fatal("expected TryEntry to report contention while the shard is held")
	}
}

// TestMapTryGetAndTryEntryHitAndMiss cover the ordinary, uncontended paths.
func TestMapTryGetAndTryEntryHitAndMiss(t *testing.T) {
	m, _ := New[int, int]()
	m.Insert(1, 100)

	v, ok := m.TryGet(1)
	if !ok || v != 100 {
		t.Fatalf("expected (100, true), got (%d, %v)", v, ok)
	}
	if _, ok := m.TryGet(2); ok {
		t.Fatal("expected TryGet on an absent key to report false")
	}

	e, ok := m.TryEntry(2)
	if !ok {
		t.Fatal("expected TryEntry to acquire an uncontended shard")
	}
	e.Insert(200).Unlock()
	v2, ok := m.Get(2)
	if !ok || v2 != 200 {
		t.Fatalf("expected (200, true), got (%d, %v)", v2, ok)
	}
}

func TestNewRejectsInvalidShardAmount(t *testing.T) {
	_, err := New[int, int](WithShardAmount[int, int](3))
	if !errors.Is(err, ErrInvalidShardAmount) {
		t.Fatalf("expected ErrInvalidShardAmount, got %v", err)
	}
}

func TestReadOnlyViewExposesOnlyReads(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("a", 1)
	view := m.View()
	v, ok := view.Get("a")
	if !ok || v != 1 {
		t.Fatalf("unexpected view result (%d, %v)", v, ok)
	}
	if view.Len() != 1 {
		t.Fatalf("expected view len 1, got %d", view.Len())
	}
}
