package store

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m3rciful/zalogbot/internal/listing"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zalog_store_cache_hits_total",
		Help: "Snapshot cache hits for FetchAll.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zalog_store_cache_misses_total",
		Help: "Snapshot cache misses for FetchAll.",
	})
)

const snapshotKey = "all"

// Cached serves FetchAll and DistinctValues from a short-lived snapshot of the
// wrapped store. Every write purges the snapshot.
type Cached struct {
	next  Store
	cache *expirable.LRU[string, []listing.Record]

	// gen counts completed writes; a read only caches what it fetched if no
	// write finished in the meantime.
	mu  sync.Mutex
	gen uint64
}

// NewCached wraps next with a snapshot cache living for ttl.
func NewCached(next Store, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, []listing.Record](1, nil, ttl),
	}
}

func (c *Cached) FetchAll(ctx context.Context) ([]listing.Record, error) {
	if snap, ok := c.cache.Get(snapshotKey); ok {
		cacheHitsTotal.Inc()
		return append([]listing.Record(nil), snap...), nil
	}
	cacheMissesTotal.Inc()
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	all, err := c.next.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.gen == gen {
		c.cache.Add(snapshotKey, append([]listing.Record(nil), all...))
	}
	c.mu.Unlock()
	return all, nil
}

func (c *Cached) invalidate() {
	c.mu.Lock()
	c.gen++
	c.cache.Purge()
	c.mu.Unlock()
}

func (c *Cached) Append(ctx context.Context, rec listing.Record) (listing.Record, error) {
	defer c.invalidate()
	return c.next.Append(ctx, rec)
}

func (c *Cached) UpdateStatus(ctx context.Context, id string, to listing.Status) error {
	defer c.invalidate()
	return c.next.UpdateStatus(ctx, id, to)
}

func (c *Cached) DistinctValues(ctx context.Context, f listing.Field) ([]string, error) {
	if !f.Valid() {
		return c.next.DistinctValues(ctx, f)
	}
	all, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Distinct(all, f), nil
}
