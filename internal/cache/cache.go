// Package cache memoizes full comparison snapshots keyed by the content
// hashes of both documents. The cache sits in front of the whole pipeline:
// a hit short-circuits matching, classification, and redlining entirely.
package cache

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"redline/api/internal/compare"
)

// Store is the persistence collaborator for snapshots. Implementations
// only need the key shape (baseline hash, revised hash) and atomic Put;
// eviction policy is theirs.
type Store interface {
	Get(ctx context.Context, baselineHash, revisedHash string) (*compare.Snapshot, bool, error)
	Put(ctx context.Context, snap *compare.Snapshot) error
}

// Comparator runs the comparison pipeline. *compare.Engine satisfies it.
type Comparator interface {
	Compare(ctx context.Context, baseline, revised []compare.Section) (*compare.Snapshot, error)
}

// Cache serves snapshots with at-most-one computation in flight per key.
// Construct one at process start and inject it; there is no hidden
// module-level instance.
type Cache struct {
	store  Store
	engine Comparator
	group  singleflight.Group
}

func New(store Store, engine Comparator) *Cache {
	return &Cache{store: store, engine: engine}
}

// GetOrCompute returns the READY snapshot for the document pair, computing
// and persisting it once on a miss. Concurrent callers for the same key
// share a single computation; a failed computation leaves the key absent
// and retriable. Any byte-level change to either input yields a new key —
// there is no fuzzy matching.
func (c *Cache) GetOrCompute(ctx context.Context, baseline, revised []compare.Section) (*compare.Snapshot, error) {
	baselineHash := compare.HashSections(baseline)
	revisedHash := compare.HashSections(revised)
	key := baselineHash + ":" + revisedHash

	if snap, ok := c.lookup(ctx, baselineHash, revisedHash); ok {
		return snap, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// A racing caller may have completed while we queued.
		if snap, ok := c.lookup(ctx, baselineHash, revisedHash); ok {
			return snap, nil
		}
		snap, err := c.engine.Compare(ctx, baseline, revised)
		if err != nil {
			return nil, fmt.Errorf("compare pipeline: %w", err)
		}
		if err := c.store.Put(ctx, snap); err != nil {
			return nil, fmt.Errorf("persist snapshot: %w", err)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*compare.Snapshot), nil
}

// Lookup returns the snapshot for a hash pair without ever computing one.
func (c *Cache) Lookup(ctx context.Context, baselineHash, revisedHash string) (*compare.Snapshot, bool, error) {
	return c.store.Get(ctx, baselineHash, revisedHash)
}

// lookup treats store read failures as misses: an unreachable cache store
// degrades to recomputation instead of failing the request.
func (c *Cache) lookup(ctx context.Context, baselineHash, revisedHash string) (*compare.Snapshot, bool) {
	snap, ok, err := c.store.Get(ctx, baselineHash, revisedHash)
	if err != nil {
		log.Printf("cache: read %s/%s failed, recomputing: %v", baselineHash[:8], revisedHash[:8], err)
		return nil, false
	}
	return snap, ok
}
