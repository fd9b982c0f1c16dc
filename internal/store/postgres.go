package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/zalogbot/internal/listing"
)

// Postgres keeps listings in the listings table created by migrations/.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type listingRow struct {
	ID          string `db:"id"`
	Position    int    `db:"position"`
	Brand       string `db:"brand"`
	Model       string `db:"model"`
	Year        int    `db:"year"`
	Price       string `db:"price"`
	City        string `db:"city"`
	PhotoURL    string `db:"photo_url"`
	Link        string `db:"external_link"`
	Phone       string `db:"phone"`
	Contact     string `db:"contact"`
	PublishedAt string `db:"published_at"`
	Status      string `db:"status"`
}

func (r listingRow) record() (listing.Record, error) {
	st, err := listing.ParseStatus(r.Status)
	if err != nil {
		return listing.Record{}, err
	}
	return listing.Record{
		ID:          r.ID,
		Position:    r.Position,
		Brand:       r.Brand,
		Model:       r.Model,
		Year:        r.Year,
		Price:       r.Price,
		City:        r.City,
		PhotoURL:    r.PhotoURL,
		Link:        r.Link,
		Phone:       r.Phone,
		Contact:     r.Contact,
		PublishedAt: r.PublishedAt,
		Status:      st,
	}, nil
}

func rowFrom(rec listing.Record) listingRow {
	return listingRow{
		ID:          rec.ID,
		Brand:       rec.Brand,
		Model:       rec.Model,
		Year:        rec.Year,
		Price:       rec.Price,
		City:        rec.City,
		PhotoURL:    rec.PhotoURL,
		Link:        rec.Link,
		Phone:       rec.Phone,
		Contact:     rec.Contact,
		PublishedAt: rec.PublishedAt,
		Status:      string(rec.Status),
	}
}

const selectListings = `
SELECT id, ROW_NUMBER() OVER (ORDER BY position) AS position,
       brand, model, year, price, city, photo_url, external_link,
       phone, contact, published_at, status
FROM listings
ORDER BY position`

const insertListing = `
INSERT INTO listings (id, brand, model, year, price, city, photo_url, external_link, phone, contact, published_at, status)
VALUES (:id, :brand, :model, :year, :price, :city, :photo_url, :external_link, :phone, :contact, :published_at, :status)
RETURNING position`

var distinctColumns = map[listing.Field]string{
	listing.FieldBrand: "brand",
	listing.FieldModel: "model",
	listing.FieldYear:  "NULLIF(year, 0)::text",
	listing.FieldCity:  "city",
}

func (p *Postgres) FetchAll(ctx context.Context) ([]listing.Record, error) {
	var rows []listingRow
	if err := p.db.SelectContext(ctx, &rows, selectListings); err != nil {
		return nil, wrap("fetch_all", err)
	}
	out := make([]listing.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, wrap("fetch_all", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *Postgres) Append(ctx context.Context, rec listing.Record) (listing.Record, error) {
	rec, err := prepare(rec, uuid.NewString)
	if err != nil {
		return listing.Record{}, wrap("append", err)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return listing.Record{}, wrap("append", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, insertListing)
	if err != nil {
		return listing.Record{}, wrap("append", err)
	}
	defer stmt.Close()

	var seq int64
	if err := stmt.GetContext(ctx, &seq, rowFrom(rec)); err != nil {
		return listing.Record{}, wrap("append", err)
	}
	if err := tx.GetContext(ctx, &rec.Position, `SELECT COUNT(*) FROM listings WHERE position <= $1`, seq); err != nil {
		return listing.Record{}, wrap("append", err)
	}
	if err := tx.Commit(); err != nil {
		return listing.Record{}, wrap("append", err)
	}
	return rec, nil
}

func (p *Postgres) UpdateStatus(ctx context.Context, id string, to listing.Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return wrap("update_status", fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("update_status", err)
	}
	defer func() { _ = tx.Rollback() }()

	var from string
	err = tx.GetContext(ctx, &from, `SELECT status FROM listings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return wrap("update_status", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	if err != nil {
		return wrap("update_status", err)
	}
	if err := checkTransition(id, listing.Status(from), to); err != nil {
		return wrap("update_status", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE listings SET status = $2 WHERE id = $1`, id, string(to)); err != nil {
		return wrap("update_status", err)
	}
	return wrap("update_status", tx.Commit())
}

func (p *Postgres) DistinctValues(ctx context.Context, f listing.Field) ([]string, error) {
	col, ok := distinctColumns[f]
	if !ok {
		return nil, wrap("distinct", fmt.Errorf("unknown field %q", f))
	}
	var values []sql.NullString
	if err := p.db.SelectContext(ctx, &values, `SELECT DISTINCT `+col+` FROM listings`); err != nil {
		return nil, wrap("distinct", err)
	}
	raw := make([]string, 0, len(values))
	for _, v := range values {
		if v.Valid {
			raw = append(raw, v.String)
		}
	}
	return listing.DistinctValues(raw), nil
}
