package listing

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// TimeLayout is the format of Record.PublishedAt.
const TimeLayout = "2006-01-02 15:04"

// Record is one pledged-car listing.
type Record struct {
	ID       string `validate:"required"`
	Position int
	Brand    string `validate:"required,notblank"`
	Model    string `validate:"required,notblank"`
	Year     int    `validate:"required,gt=0"`
	Price    string
	City     string `validate:"required,notblank"`
	// PhotoURL holds one or more comma-joined URLs.
	PhotoURL    string `validate:"required,notblank"`
	Link        string
	Phone       string `validate:"required,notblank"`
	Contact     string `validate:"required,notblank"`
	PublishedAt string
	Status      Status
}

// Validate checks that every field a listing needs to be shown is present.
func (r Record) Validate() error {
	if err := Validator().Struct(r); err != nil {
		return fmt.Errorf("listing: malformed record %s: %w", r.ID, err)
	}
	return nil
}

// WellFormed is Validate as a predicate.
func (r Record) WellFormed() bool {
	return r.Validate() == nil
}

// Photos splits PhotoURL into trimmed non-empty URLs.
func (r Record) Photos() []string {
	var out []string
	for _, p := range strings.Split(r.PhotoURL, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PrimaryPhoto returns the first photo URL or "".
func (r Record) PrimaryPhoto() string {
	if photos := r.Photos(); len(photos) > 0 {
		return photos[0]
	}
	return ""
}

// Title is "Brand Model".
func (r Record) Title() string {
	return strings.TrimSpace(r.Brand + " " + r.Model)
}

// Tag is a short stable hashtag derived from brand, model and year.
func (r Record) Tag() string {
	key := strings.ToLower(strings.ReplaceAll(r.Brand+r.Model+strconv.Itoa(r.Year), " ", ""))
	sum := md5.Sum([]byte(key))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:4])
}

// Field names a record attribute that the search and intake flows work with.
type Field string

const (
	FieldBrand Field = "brand"
	FieldModel Field = "model"
	FieldYear  Field = "year"
	FieldCity  Field = "city"
)

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	switch f {
	case FieldBrand, FieldModel, FieldYear, FieldCity:
		return true
	}
	return false
}

// Value returns the string form of field f.
func (r Record) Value(f Field) string {
	switch f {
	case FieldBrand:
		return r.Brand
	case FieldModel:
		return r.Model
	case FieldYear:
		if r.Year == 0 {
			return ""
		}
		return strconv.Itoa(r.Year)
	case FieldCity:
		return r.City
	}
	return ""
}
