package listing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/zalogbot/core/logger"
)

// StatusMode selects which publication states a search accepts.
type StatusMode int

const (
	// StatusModeAny imposes no status constraint.
	StatusModeAny StatusMode = iota
	// StatusModeUnpublished excludes published listings.
	StatusModeUnpublished
)

func (m StatusMode) String() string {
	if m == StatusModeUnpublished {
		return "unpublished"
	}
	return "any"
}

// Criteria are the accumulated search constraints. Zero values mean no constraint.
type Criteria struct {
	Brand    string
	Model    string
	Year     int
	City     string
	MaxPrice int
	Status   StatusMode
}

// Attrs renders the set constraints as log attributes.
func (c Criteria) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("brand", c.Brand),
		slog.String("model", c.Model),
		slog.Int("year", c.Year),
		slog.String("city", c.City),
		slog.Int("max_price", c.MaxPrice),
		slog.String("mode", c.Status.String()),
	}
}

// MatchError reports a record field that could not be compared.
type MatchError struct {
	ID    string
	Field string
	Err   error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("listing: record %s: field %s: %v", e.ID, e.Field, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// Code implements the err_code convention of the logs.
func (e *MatchError) Code() string { return "MATCH_EVAL" }

// Evaluate applies c to r. A non-nil error is always a *MatchError and means r does not match.
func Evaluate(r Record, c Criteria) (bool, error) {
	if c.Brand != "" && !EqualFold(r.Brand, c.Brand) {
		return false, nil
	}
	if c.Model != "" && !EqualFold(r.Model, c.Model) {
		return false, nil
	}
	if c.Year != 0 && r.Year != c.Year {
		return false, nil
	}
	if c.City != "" && !EqualFold(r.City, c.City) {
		return false, nil
	}
	if c.MaxPrice > 0 {
		price, err := ParsePrice(r.Price)
		if err != nil {
			return false, &MatchError{ID: r.ID, Field: "price", Err: err}
		}
		if price > c.MaxPrice {
			return false, nil
		}
	}
	if c.Status == StatusModeUnpublished && r.Status == StatusPublished {
		return false, nil
	}
	return true, nil
}

// Matches is Evaluate with comparison errors treated as a mismatch.
func Matches(r Record, c Criteria) bool {
	ok, err := Evaluate(r, c)
	return err == nil && ok
}

// Filter returns the records matching c in their original order.
// Records that fail evaluation are logged and skipped.
func Filter(ctx context.Context, records []Record, c Criteria) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		ok, err := Evaluate(r, c)
		if err != nil {
			logger.Debug(ctx, logger.CompSearch, "match.excluded",
				slog.String("listing_id", r.ID),
				slog.Int("position", r.Position),
				logger.Err(err),
				slog.String("err_code", logger.ErrCode(err, "MATCH_EVAL")),
			)
			continue
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the non-blank values of f across records, deduplicated by
// Fold key and sorted ascending. The first spelling seen wins.
func Distinct(records []Record, f Field) []string {
	values := make([]string, 0, len(records))
	for _, r := range records {
		values = append(values, r.Value(f))
	}
	return DistinctValues(values)
}

// DistinctValues applies the Distinct rules to raw values.
func DistinctValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := Fold(v)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
