package cache

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"redline/api/internal/compare"
)

// countingEngine wraps the real pipeline with a call counter so tests can
// verify how many computations actually ran.
type countingEngine struct {
	inner *compare.Engine
	calls atomic.Int64
	delay time.Duration
	fail  atomic.Bool
}

func newCountingEngine() *countingEngine {
	return &countingEngine{inner: compare.NewEngine(compare.Config{})}
}

func (e *countingEngine) Compare(ctx context.Context, baseline, revised []compare.Section) (*compare.Snapshot, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.fail.Load() {
		return nil, errors.New("injected pipeline failure")
	}
	return e.inner.Compare(ctx, baseline, revised)
}

func testDocuments() ([]compare.Section, []compare.Section) {
	baseline := []compare.Section{
		{Number: "1", Title: "Termination", Text: "Either party may terminate this agreement upon thirty days written notice."},
	}
	revised := []compare.Section{
		{Number: "1", Title: "Termination", Text: "Either party may terminate this agreement upon sixty days written notice."},
	}
	return baseline, revised
}

func TestGetOrComputeComputesOnce(t *testing.T) {
	engine := newCountingEngine()
	c := New(NewMemoryStore(), engine)
	baseline, revised := testDocuments()
	ctx := context.Background()

	first, err := c.GetOrCompute(ctx, baseline, revised)
	if err != nil {
		t.Fatalf("first GetOrCompute: %v", err)
	}
	second, err := c.GetOrCompute(ctx, baseline, revised)
	if err != nil {
		t.Fatalf("second GetOrCompute: %v", err)
	}

	if got := engine.calls.Load(); got != 1 {
		t.Errorf("pipeline ran %d times, want exactly 1", got)
	}
	if !reflect.DeepEqual(first.Changes, second.Changes) {
		t.Error("cached snapshot differs from computed one")
	}
}

func TestGetOrComputeInvalidatesOnByteChange(t *testing.T) {
	engine := newCountingEngine()
	store := NewMemoryStore()
	c := New(store, engine)
	baseline, revised := testDocuments()
	ctx := context.Background()

	original, err := c.GetOrCompute(ctx, baseline, revised)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}

	edited := []compare.Section{{Number: revised[0].Number, Title: revised[0].Title, Text: revised[0].Text + "."}}
	changed, err := c.GetOrCompute(ctx, baseline, edited)
	if err != nil {
		t.Fatalf("GetOrCompute after edit: %v", err)
	}

	if changed.RevisedHash == original.RevisedHash {
		t.Error("one-character edit must produce a different revised hash")
	}
	if got := engine.calls.Load(); got != 2 {
		t.Errorf("pipeline ran %d times, want 2 (one per distinct pair)", got)
	}

	// The original snapshot stays retrievable under its own key.
	again, err := c.GetOrCompute(ctx, baseline, revised)
	if err != nil {
		t.Fatalf("GetOrCompute original pair: %v", err)
	}
	if got := engine.calls.Load(); got != 2 {
		t.Errorf("original pair recomputed; pipeline ran %d times, want 2", got)
	}
	if !reflect.DeepEqual(again.Changes, original.Changes) {
		t.Error("original snapshot changed after unrelated computation")
	}
	if store.Len() != 2 {
		t.Errorf("store holds %d snapshots, want 2", store.Len())
	}
}

func TestGetOrComputeConcurrentCallersShareOneComputation(t *testing.T) {
	engine := newCountingEngine()
	engine.delay = 50 * time.Millisecond
	c := New(NewMemoryStore(), engine)
	baseline, revised := testDocuments()

	const callers = 8
	results := make([]*compare.Snapshot, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrCompute(context.Background(), baseline, revised)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
	}
	if got := engine.calls.Load(); got != 1 {
		t.Errorf("pipeline ran %d times under concurrent load, want 1", got)
	}
	for i := 1; i < callers; i++ {
		if !reflect.DeepEqual(results[0].Changes, results[i].Changes) {
			t.Fatalf("caller %d observed a divergent snapshot", i)
		}
	}
}

func TestGetOrComputeFailureLeavesKeyAbsent(t *testing.T) {
	engine := newCountingEngine()
	store := NewMemoryStore()
	c := New(store, engine)
	baseline, revised := testDocuments()
	ctx := context.Background()

	engine.fail.Store(true)
	if _, err := c.GetOrCompute(ctx, baseline, revised); err == nil {
		t.Fatal("expected injected failure to surface")
	}
	if store.Len() != 0 {
		t.Fatalf("failed computation persisted %d snapshots, want 0", store.Len())
	}

	// The key is retriable, not poisoned.
	engine.fail.Store(false)
	snap, err := c.GetOrCompute(ctx, baseline, revised)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if snap == nil || len(snap.Changes) == 0 {
		t.Error("retry produced no snapshot")
	}
}

type failingStore struct {
	*MemoryStore
	putErr error
}

func (s *failingStore) Put(ctx context.Context, snap *compare.Snapshot) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStore.Put(ctx, snap)
}

func TestGetOrComputePersistFailureIsRetriable(t *testing.T) {
	engine := newCountingEngine()
	store := &failingStore{MemoryStore: NewMemoryStore(), putErr: errors.New("disk full")}
	c := New(store, engine)
	baseline, revised := testDocuments()
	ctx := context.Background()

	if _, err := c.GetOrCompute(ctx, baseline, revised); err == nil {
		t.Fatal("expected persist failure to surface")
	}

	store.putErr = nil
	if _, err := c.GetOrCompute(ctx, baseline, revised); err != nil {
		t.Fatalf("retry after persist failure: %v", err)
	}
	if got := engine.calls.Load(); got != 2 {
		t.Errorf("pipeline ran %d times, want 2 (failed attempt plus retry)", got)
	}
}
