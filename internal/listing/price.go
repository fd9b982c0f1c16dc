package listing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Prices are compared in millions of sum: "135 млн" parses to 135 and
// the search buckets use the same unit.

// DefaultPriceBuckets are the ceiling options offered by search, ascending.
var DefaultPriceBuckets = []int{100, 150, 200, 300, 500}

// ErrPrice reports a display price without a usable magnitude.
var ErrPrice = errors.New("listing: unparseable price")

var priceUnits = []string{"so'm", "млн", "mln", "сум", "sum", "uzs"}

// ParsePrice extracts the magnitude in millions from a display price.
func ParsePrice(display string) (int, error) {
	s := strings.ToLower(display)
	for _, unit := range priceUnits {
		s = strings.ReplaceAll(s, unit, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrPrice, display)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrPrice, display)
	}
	return n, nil
}

// FormatBucket renders a price ceiling for buttons.
func FormatBucket(millions int) string {
	return "до " + strconv.Itoa(millions) + " млн"
}
