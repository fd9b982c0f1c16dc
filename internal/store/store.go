// Package store keeps listings. Positions are 1-based storage order and are
// recomputed on every read; records are addressed by their stable ID.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/zalogbot/internal/listing"
)

var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidTransition is returned when a status change skips or reverses the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrMalformed is returned when Append receives a record with missing fields.
	ErrMalformed = errors.New("malformed record")
)

// Store is the persistence contract used by the wizards and the publisher.
type Store interface {
	// FetchAll returns every record in storage order.
	FetchAll(ctx context.Context) ([]listing.Record, error)
	// Append stores rec and returns it with ID and Position filled in.
	Append(ctx context.Context, rec listing.Record) (listing.Record, error)
	// UpdateStatus moves the record with id to status to.
	UpdateStatus(ctx context.Context, id string, to listing.Status) error
	// DistinctValues returns the sorted distinct values of f.
	DistinctValues(ctx context.Context, f listing.Field) ([]string, error)
}

// Error wraps any failure of a store operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code implements the err_code convention of the logs.
func (e *Error) Code() string {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return "STORE_NOT_FOUND"
	case errors.Is(e.Err, ErrInvalidTransition):
		return "STORE_INVALID_TRANSITION"
	case errors.Is(e.Err, ErrMalformed):
		return "STORE_MALFORMED"
	}
	return "STORE_" + strings.ToUpper(e.Op)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// prepare fills defaults for a new record and checks it is well formed.
func prepare(rec listing.Record, newID func() string) (listing.Record, error) {
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.Status == "" {
		rec.Status = listing.StatusDraft
	}
	if !rec.Status.Valid() {
		return rec, fmt.Errorf("%w: status %q", ErrMalformed, rec.Status)
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec, nil
}

func checkTransition(id string, from, to listing.Status) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, id, from, to)
	}
	return nil
}
