package rwlock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTryLockExclusiveUncontended(t *testing.T) {
	l := New()
	if !l.TryLockExclusive() {
		t.Fatal("expected uncontended TryLockExclusive to succeed")
	}
	if l.TryLockExclusive() {
		t.Fatal("expected second TryLockExclusive to fail while held")
	}
	l.UnlockExclusive()
	if !l.TryLockExclusive() {
		t.Fatal("expected TryLockExclusive to succeed after unlock")
	}
	l.UnlockExclusive()
}

func TestTryLockSharedMultipleReaders(t *testing.T) {
	l := New()
	if !l.TryLockShared() {
		t.Fatal("expected first TryLockShared to succeed")
	}
	if !l.TryLockShared() {
		t.Fatal("expected second concurrent TryLockShared to succeed")
	}
	if l.TryLockExclusive() {
		t.Fatal("expected TryLockExclusive to fail while readers hold the lock")
	}
	l.UnlockShared()
	l.UnlockShared()
	if !l.TryLockExclusive() {
		t.Fatal("expected TryLockExclusive to succeed once all readers left")
	}
	l.UnlockExclusive()
}

func TestLockExclusiveBlocksUntilReleased(t *testing.T) {
	l := New()
	l.LockExclusive()

	done := make(chan struct{})
	go func() {
		l.LockExclusive()
		close(done)
		l.UnlockExclusive()
	}()

	select {
	case <-done:
		t.Fatal("second LockExclusive returned before the first was released")
	case <-time.After(50 * time.Millisecond):
	}

	l.UnlockExclusive()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second LockExclusive never acquired the lock")
	}
}

func TestDowngradeAtomicNoInterveningWriter(t *testing.T) {
	l := New()
	l.LockExclusive()
	var shared atomic.Int64
	shared.Store(1)

	writerAcquired := make(chan struct{})
	go func() {
		l.LockExclusive()
		close(writerAcquired)
		l.UnlockExclusive()
	}()

	time.Sleep(20 * time.Millisecond)
	shared.Store(2)
	l.Downgrade()

	select {
	case <-writerAcquired:
		t.Fatal("a writer acquired the lock between the exclusive hold and the downgrade")
	default:
	}

	if got := shared.Load(); got != 2 {
		t.Fatalf("downgraded reader observed stale value %d, want 2", got)
	}
	l.UnlockShared()

	select {
	case <-writerAcquired:
	case <-time.After(time.Second):
		t.Fatal("parked writer never acquired the lock after downgrade released it")
	}
}

// TestWriterFairnessUnfair reproduces the documented reader-preference
// schedule: R (holds 300ms) | W (starts at +100ms) | R (starts at +200ms,
// holds 200ms). Because the lock is deliberately unfair to writers, the
// second reader must be able to acquire the lock before the writer does,
// even though the writer arrived first and parked.
func TestWriterFairnessUnfair(t *testing.T) {
	l := New()
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(3)

	// R1: acquire immediately, hold for 300ms.
	go func() {
		defer wg.Done()
		l.LockShared()
		record("r1-acquired")
		time.Sleep(300 * time.Millisecond)
		l.UnlockShared()
		record("r1-released")
	}()

	time.Sleep(100 * time.Millisecond)

	// W: arrives at +100ms, parks behind R1.
	go func() {
		defer wg.Done()
		l.LockExclusive()
		record("w-acquired")
		l.UnlockExclusive()
	}()

	time.Sleep(100 * time.Millisecond)

	// R2: arrives at +200ms while W is parked; must still cut in front.
	go func() {
		defer wg.Done()
		l.LockShared()
		record("r2-acquired")
		time.Sleep(200 * time.Millisecond)
		l.UnlockShared()
		record("r2-released")
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	r2Idx, wIdx := -1, -1
	for i, s := range order {
		switch s {
		case "r2-acquired":
			r2Idx = i
		case "w-acquired":
			wIdx = i
		}
	}
	if r2Idx == -1 || wIdx == -1 {
		t.Fatalf("incomplete schedule: %v", order)
	}
	if r2Idx > wIdx {
		t.Fatalf("writer acquired before the late reader, expected unfair reader-preference behaviour: %v", order)
	}
}

func TestReaderOverflowPanics(t *testing.T) {
	l := New()
	// Drive the state directly to one below the writer sentinel so the
	// next shared acquisition would wrap the reader-count field into the
	// exclusive-lock encoding; this must panic rather than silently wrap.
	l.atomicState.Store(oneWriter - oneReader)

	defer func() {
		if recover() == nil {
			t.Fatal("expected lock_shared to panic on reader-count overflow")
		}
	}()
	l.LockShared()
}

func TestUnlockSharedWakesParkedWriter(t *testing.T) {
	l := New()
	l.LockShared()

	writerDone := make(chan struct{})
	go func() {
		l.LockExclusive()
		close(writerDone)
		l.UnlockExclusive()
	}()

	time.Sleep(50 * time.Millisecond)
	l.UnlockShared()

	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer parked behind a single reader was never woken")
	}
}
