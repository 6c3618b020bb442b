package lockmanager

import (
	"sync"
	"testing"
	"time"

	"github.com/cubbit/dnfs/internal/path"
)

// alwaysContains is a stub tree index that reports every path as present,
// used by tests that don't exercise NotFound-driven abandonment.
type alwaysContains struct{}

func (alwaysContains) Contains(path.Path) bool { return true }

func noopIncrement(path.Path) int { return 0 }

func mustParse(t *testing.T, s string) path.Path {
	t.Helper()
	p, err := path.Parse(s)
	if err != nil {
		t.Fatalf("path.Parse(%q): %v", s, err)
	}
	return p
}

// TestHierarchicalLocking covers the first half of scenario S4: an exclusive
// lock on an ancestor blocks a shared lock on a descendant until released.
func TestHierarchicalLocking(t *testing.T) {
	m := New(alwaysContains{}, noopIncrement, nil)

	a := mustParse(t, "/a")
	abc := mustParse(t, "/a/b/c")

	if err := m.Lock(a, true); err != nil {
		t.Fatalf("T1 exclusive lock on /a: %v", err)
	}

	t2Admitted := make(chan struct{})
	go func() {
		if err := m.Lock(abc, false); err != nil {
			t.Errorf("T2 shared lock on /a/b/c: %v", err)
		}
		close(t2Admitted)
	}()

	select {
	case <-t2Admitted:
		t.Fatal("T2 should not be admitted while T1 holds an exclusive ancestor lock")
	case <-time.After(50 * time.Millisecond):
	}

	if err := m.Unlock(a, true); err != nil {
		t.Fatalf("T1 unlock: %v", err)
	}

	select {
	case <-t2Admitted:
	case <-time.After(time.Second):
		t.Fatal("T2 was never admitted after T1 released")
	}

	if err := m.Unlock(abc, false); err != nil {
		t.Fatalf("T2 unlock: %v", err)
	}
}

// TestFIFOFairness covers scenario S5.
func TestFIFOFairness(t *testing.T) {
	m := New(alwaysContains{}, noopIncrement, nil)
	root := path.Root()

	if err := m.Lock(root, false); err != nil {
		t.Fatalf("T1 shared lock: %v", err)
	}

	t2Admitted := make(chan struct{})
	go func() {
		if err := m.Lock(root, true); err != nil {
			t.Errorf("T2 exclusive lock: %v", err)
		}
		close(t2Admitted)
	}()

	// Give T2 time to enqueue before T3 arrives, so FIFO order is fixed.
	time.Sleep(20 * time.Millisecond)

	t3Admitted := make(chan struct{})
	go func() {
		if err := m.Lock(root, false); err != nil {
			t.Errorf("T3 shared lock: %v", err)
		}
		close(t3Admitted)
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case <-t2Admitted:
		t.Fatal("T2 should still be blocked by T1")
	default:
	}
	select {
	case <-t3Admitted:
		t.Fatal("T3 should be blocked by T2 even though T3 and T1 don't conflict")
	default:
	}

	if err := m.Unlock(root, false); err != nil { // T1 releases
		t.Fatalf("T1 unlock: %v", err)
	}
	select {
	case <-t2Admitted:
	case <-time.After(time.Second):
		t.Fatal("T2 was never admitted after T1 released")
	}

	if err := m.Unlock(root, true); err != nil { // T2 releases
		t.Fatalf("T2 unlock: %v", err)
	}
	select {
	case <-t3Admitted:
	case <-time.After(time.Second):
		t.Fatal("T3 was never admitted after T2 released")
	}

	if err := m.Unlock(root, false); err != nil { // T3 releases
		t.Fatalf("T3 unlock: %v", err)
	}
}

// TestDisjointSubtreesProceedConcurrently covers testable property 6.
func TestDisjointSubtreesProceedConcurrently(t *testing.T) {
	m := New(alwaysContains{}, noopIncrement, nil)

	p := mustParse(t, "/p")
	q := mustParse(t, "/q")

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make(chan error, 2)

	go func() {
		defer wg.Done()
		if err := m.Lock(p, false); err != nil {
			errs <- err
			return
		}
		errs <- m.Unlock(p, false)
	}()
	go func() {
		defer wg.Done()
		if err := m.Lock(q, false); err != nil {
			errs <- err
			return
		}
		errs <- m.Unlock(q, false)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disjoint locks should not block each other")
	}
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

// notFoundIndex reports a path as absent, used to test NotFound abandonment.
type notFoundIndex struct{}

func (notFoundIndex) Contains(path.Path) bool { return false }

func TestLockNotFoundAbandonsQueueSlot(t *testing.T) {
	m := New(notFoundIndex{}, noopIncrement, nil)
	p := mustParse(t, "/missing")

	if err := m.Lock(p, false); err == nil {
		t.Fatal("expected NotFound for a path absent from the index")
	}
	if got := m.QueueLen(); got != 0 {
		t.Fatalf("queue should be empty after abandonment, got %d entries", got)
	}
}

func TestUnlockWithoutMatchingRequestFails(t *testing.T) {
	m := New(alwaysContains{}, noopIncrement, nil)
	p := mustParse(t, "/a")

	if err := m.Unlock(p, false); err == nil {
		t.Fatal("expected IllegalArgument when unlocking a request that isn't held")
	}
}

func TestReplicationTriggerFiresOnThreshold(t *testing.T) {
	var mu sync.Mutex
	counts := make(map[path.Path]int)

	increment := func(p path.Path) int {
		mu.Lock()
		defer mu.Unlock()
		counts[p]++
		return counts[p]
	}

	triggered := make(chan path.Path, 4)
	m := New(alwaysContains{}, increment, func(p path.Path) {
		triggered <- p
	})

	p := mustParse(t, "/hot")
	for i := 0; i < ReplicationThreshold; i++ {
		if err := m.Lock(p, false); err != nil {
			t.Fatalf("Lock #%d: %v", i, err)
		}
		if err := m.Unlock(p, false); err != nil {
			t.Fatalf("Unlock #%d: %v", i, err)
		}
	}

	select {
	case got := <-triggered:
		if !got.Equal(p) {
			t.Fatalf("triggered for %v, want %v", got, p)
		}
	case <-time.After(time.Second):
		t.Fatal("replication trigger never fired after threshold accesses")
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	admission []bool
}

func (o *recordingObserver) RecordAdmission(exclusive bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.admission = append(o.admission, exclusive)
}

func TestSetObserverRecordsEveryAdmission(t *testing.T) {
	m := New(alwaysContains{}, noopIncrement, nil)
	obs := &recordingObserver{}
	m.SetObserver(obs)

	p := mustParse(t, "/a")
	if err := m.Lock(p, false); err != nil {
		t.Fatalf("shared lock: %v", err)
	}
	if err := m.Unlock(p, false); err != nil {
		t.Fatalf("shared unlock: %v", err)
	}
	if err := m.Lock(p, true); err != nil {
		t.Fatalf("exclusive lock: %v", err)
	}
	if err := m.Unlock(p, true); err != nil {
		t.Fatalf("exclusive unlock: %v", err)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.admission) != 2 {
		t.Fatalf("expected 2 recorded admissions, got %d", len(obs.admission))
	}
	if obs.admission[0] != false || obs.admission[1] != true {
		t.Fatalf("admission modes = %v, want [false true]", obs.admission)
	}
}
