// Package stats summarizes the record store for the /stats command.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m3rciful/zalogbot/core/telegram/format"
	"github.com/m3rciful/zalogbot/internal/listing"
)

// TopBrands is how many brands Summary.Top keeps.
const TopBrands = 5

// BrandCount is one row of the popular brands list.
type BrandCount struct {
	Brand string
	Count int
}

// Summary is a snapshot of the store contents.
type Summary struct {
	Total    int
	Brands   int
	Cities   int
	ByStatus map[listing.Status]int
	Top      []BrandCount
}

// Summarize counts records. Brands are grouped by their Fold key and shown
// with the first spelling seen; ties in Top are broken by name.
func Summarize(records []listing.Record) Summary {
	s := Summary{
		Total:    len(records),
		Brands:   len(listing.Distinct(records, listing.FieldBrand)),
		Cities:   len(listing.Distinct(records, listing.FieldCity)),
		ByStatus: make(map[listing.Status]int, 3),
	}
	counts := make(map[string]*BrandCount)
	for _, r := range records {
		s.ByStatus[r.Status]++
		key := listing.Fold(r.Brand)
		if key == "" {
			continue
		}
		bc, ok := counts[key]
		if !ok {
			bc = &BrandCount{Brand: strings.TrimSpace(r.Brand)}
			counts[key] = bc
		}
		bc.Count++
	}
	all := make([]BrandCount, 0, len(counts))
	for _, bc := range counts {
		all = append(all, *bc)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return listing.Fold(all[i].Brand) < listing.Fold(all[j].Brand)
	})
	if len(all) > TopBrands {
		all = all[:TopBrands]
	}
	s.Top = all
	return s
}

// Render formats s for HTML parse mode.
func (s Summary) Render() string {
	var b strings.Builder
	b.WriteString("📊 <b>Статистика базы данных</b>\n\n")
	fmt.Fprintf(&b, "🚗 <b>Всего автомобилей:</b> %d\n", s.Total)
	fmt.Fprintf(&b, "🏭 <b>Марок:</b> %d\n", s.Brands)
	fmt.Fprintf(&b, "🏙️ <b>Городов:</b> %d\n", s.Cities)
	for _, st := range []listing.Status{listing.StatusDraft, listing.StatusReady, listing.StatusPublished} {
		if n := s.ByStatus[st]; n > 0 {
			fmt.Fprintf(&b, "%s: %d\n", st.Label(), n)
		}
	}
	if len(s.Top) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("\n<b>Популярные марки:</b>\n")
	for _, bc := range s.Top {
		fmt.Fprintf(&b, "• %s: %d авто\n", format.Escape(bc.Brand), bc.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}
