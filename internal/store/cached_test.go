package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/zalogbot/internal/listing"
)

type countingStore struct {
	*Memory
	fetches int
	fail    error
}

func (c *countingStore) FetchAll(ctx context.Context) ([]listing.Record, error) {
	c.fetches++
	if c.fail != nil {
		return nil, c.fail
	}
	return c.Memory.FetchAll(ctx)
}

func TestCachedServesSnapshotUntilWrite(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory(sample("Chevrolet", "Tracker", 2023))}
	c := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := c.FetchAll(ctx); err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
	}
	if _, err := c.DistinctValues(ctx, listing.FieldBrand); err != nil {
		t.Fatalf("DistinctValues: %v", err)
	}
	if inner.fetches != 1 {
		t.Fatalf("fetches = %d, want 1", inner.fetches)
	}

	if _, err := c.Append(ctx, sample("Daewoo", "Nexia", 2016)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	all, err := c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 || inner.fetches != 2 {
		t.Fatalf("expected refetch after write: len=%d fetches=%d", len(all), inner.fetches)
	}
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory(), fail: errors.New("down")}
	c := NewCached(inner, time.Minute)

	if _, err := c.FetchAll(ctx); err == nil {
		t.Fatal("expected error")
	}
	inner.fail = nil
	if _, err := c.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll after recovery: %v", err)
	}
	if inner.fetches != 2 {
		t.Fatalf("fetches = %d, want 2", inner.fetches)
	}
}

// gatedStore parks FetchAll after reading until release is closed.
type gatedStore struct {
	*Memory
	read    chan struct{}
	release chan struct{}
}

func (g *gatedStore) FetchAll(ctx context.Context) ([]listing.Record, error) {
	all, err := g.Memory.FetchAll(ctx)
	if g.read != nil {
		close(g.read)
		<-g.release
		g.read = nil
	}
	return all, err
}

func TestCachedDropsSnapshotOlderThanWrite(t *testing.T) {
	ctx := context.Background()
	inner := &gatedStore{
		Memory:  NewMemory(sample("Chevrolet", "Tracker", 2023)),
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCached(inner, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.FetchAll(ctx)
	}()
	<-inner.read
	if _, err := c.Append(ctx, sample("Daewoo", "Nexia", 2016)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	close(inner.release)
	<-done

	all, err := c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("stale snapshot served: %d records", len(all))
	}
}

func TestObservedPassesThrough(t *testing.T) {
	ctx := context.Background()
	o := Observe(NewMemory())
	rec, err := o.Append(ctx, sample("BYD", "Song", 2024))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := o.UpdateStatus(ctx, rec.ID, listing.StatusPublished); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
	values, err := o.DistinctValues(ctx, listing.FieldModel)
	if err != nil || len(values) != 1 || values[0] != "Song" {
		t.Fatalf("DistinctValues = %v, %v", values, err)
	}
}
