package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/m3rciful/zalogbot/core/database"
	"github.com/m3rciful/zalogbot/internal/listing"
)

func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("zalog_test"),
		postgres.WithUsername("zalog"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	if err := database.Migrate(dsn, filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresLifecycle(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	s := NewPostgres(db)

	first, err := s.Append(ctx, sample("Chevrolet", "Tracker", 2023))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := uuid.Parse(first.ID); err != nil || first.Position != 1 {
		t.Fatalf("unexpected identity: %+v", first)
	}
	second, err := s.Append(ctx, sample("chevrolet", "Cobalt", 2017))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if second.Position != 2 {
		t.Fatalf("position = %d, want 2", second.Position)
	}

	all, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID || all[1].Position != 2 {
		t.Fatalf("FetchAll = %+v", all)
	}

	brands, err := s.DistinctValues(ctx, listing.FieldBrand)
	if err != nil || len(brands) != 1 {
		t.Fatalf("brands = %v, %v", brands, err)
	}
	years, err := s.DistinctValues(ctx, listing.FieldYear)
	if err != nil || len(years) != 2 || years[0] != "2017" {
		t.Fatalf("years = %v, %v", years, err)
	}

	if err := s.UpdateStatus(ctx, first.ID, listing.StatusPublished); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("draft -> published: %v", err)
	}
	if err := s.UpdateStatus(ctx, first.ID, listing.StatusReady); err != nil {
		t.Fatalf("draft -> ready: %v", err)
	}
	if err := s.UpdateStatus(ctx, uuid.NewString(), listing.StatusReady); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id: %v", err)
	}
	if err := s.UpdateStatus(ctx, "not-a-uuid", listing.StatusReady); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bad id: %v", err)
	}
}

func TestListingRowStatus(t *testing.T) {
	rec, err := listingRow{ID: "a", Status: "Готово"}.record()
	if err != nil || rec.Status != listing.StatusReady {
		t.Fatalf("legacy label: status=%q err=%v", rec.Status, err)
	}
	if _, err := (listingRow{ID: "b", Status: "sold"}).record(); err == nil {
		t.Fatal("unknown status must fail the row")
	}
}
