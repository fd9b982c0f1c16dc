package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/m3rciful/zalogbot/internal/listing"
)

// Memory is a process-local Store.
type Memory struct {
	mu      sync.RWMutex
	records []listing.Record
	index   map[string]int
	newID   func() string
}

// NewMemory returns a Memory store preloaded with seed. Seed records skip validation.
func NewMemory(seed ...listing.Record) *Memory {
	m := &Memory{index: make(map[string]int), newID: uuid.NewString}
	for _, rec := range seed {
		if rec.ID == "" {
			rec.ID = m.newID()
		}
		if rec.Status == "" {
			rec.Status = listing.StatusDraft
		}
		m.index[rec.ID] = len(m.records)
		m.records = append(m.records, rec)
	}
	return m
}

func (m *Memory) FetchAll(ctx context.Context) ([]listing.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("fetch_all", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]listing.Record, len(m.records))
	for i, rec := range m.records {
		rec.Position = i + 1
		out[i] = rec
	}
	return out, nil
}

func (m *Memory) Append(ctx context.Context, rec listing.Record) (listing.Record, error) {
	if err := ctx.Err(); err != nil {
		return listing.Record{}, wrap("append", err)
	}
	rec, err := prepare(rec, m.newID)
	if err != nil {
		return listing.Record{}, wrap("append", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.index[rec.ID]; dup {
		return listing.Record{}, wrap("append", fmt.Errorf("duplicate id %s", rec.ID))
	}
	m.index[rec.ID] = len(m.records)
	m.records = append(m.records, rec)
	rec.Position = len(m.records)
	return rec, nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id string, to listing.Status) error {
	if err := ctx.Err(); err != nil {
		return wrap("update_status", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[id]
	if !ok {
		return wrap("update_status", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	if err := checkTransition(id, m.records[i].Status, to); err != nil {
		return wrap("update_status", err)
	}
	m.records[i].Status = to
	return nil
}

func (m *Memory) DistinctValues(ctx context.Context, f listing.Field) ([]string, error) {
	if !f.Valid() {
		return nil, wrap("distinct", fmt.Errorf("unknown field %q", f))
	}
	all, err := m.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Distinct(all, f), nil
}
