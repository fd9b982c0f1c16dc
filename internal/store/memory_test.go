package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/m3rciful/zalogbot/internal/listing"
)

func sample(brand, model string, year int) listing.Record {
	return listing.Record{
		Brand:    brand,
		Model:    model,
		Year:     year,
		Price:    "135 млн",
		City:     "Ташкент",
		PhotoURL: "https://i.imgur.com/azLdCKP.jpeg",
		Phone:    "+998907029845",
		Contact:  "user7990",
	}
}

func TestMemoryAppendAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(sample("Chevrolet", "Tracker", 2023))

	rec, err := m.Append(ctx, sample("Daewoo", "Nexia", 2016))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID == "" || rec.Position != 2 || rec.Status != listing.StatusDraft {
		t.Fatalf("unexpected record: %+v", rec)
	}

	all, err := m.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 || all[0].Position != 1 || all[1].ID != rec.ID {
		t.Fatalf("FetchAll = %+v", all)
	}
}

func TestMemoryAppendRejectsMalformed(t *testing.T) {
	m := NewMemory()
	bad := sample("Chevrolet", "", 2023)
	_, err := m.Append(context.Background(), bad)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Op != "append" || se.Code() != "STORE_MALFORMED" {
		t.Fatalf("expected store.Error for append, got %#v", err)
	}
}

func TestMemoryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec, err := m.Append(ctx, sample("Chevrolet", "Cobalt", 2017))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := m.UpdateStatus(ctx, rec.ID, listing.StatusPublished); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("draft -> published: err = %v", err)
	}
	if err := m.UpdateStatus(ctx, rec.ID, listing.StatusReady); err != nil {
		t.Fatalf("draft -> ready: %v", err)
	}
	if err := m.UpdateStatus(ctx, rec.ID, listing.StatusPublished); err != nil {
		t.Fatalf("ready -> published: %v", err)
	}
	if err := m.UpdateStatus(ctx, "missing", listing.StatusReady); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err = %v", err)
	}

	all, _ := m.FetchAll(ctx)
	if all[0].Status != listing.StatusPublished {
		t.Fatalf("status = %s", all[0].Status)
	}
}

func TestMemoryFetchAllReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(sample("Chevrolet", "Tracker", 2023))
	all, _ := m.FetchAll(ctx)
	all[0].Brand = "mutated"
	again, _ := m.FetchAll(ctx)
	if again[0].Brand != "Chevrolet" {
		t.Fatal("FetchAll leaked internal state")
	}
}

func TestMemoryDistinctValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(
		sample("Daewoo", "Nexia", 2016),
		sample("Chevrolet", "Tracker", 2023),
		sample("chevrolet", "Cobalt", 2017),
	)
	got, err := m.DistinctValues(ctx, listing.FieldBrand)
	if err != nil {
		t.Fatalf("DistinctValues: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Chevrolet", "Daewoo"}) {
		t.Fatalf("brands = %v", got)
	}
	if _, err := m.DistinctValues(ctx, listing.Field("price")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
