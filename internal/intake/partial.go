package intake

import (
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/zalogbot/core/telegram/format"
	"github.com/m3rciful/zalogbot/internal/listing"
)

// Partial is a listing under construction. It is never stored before confirm.
type Partial struct {
	Brand    string
	Model    string
	Year     int
	Price    string
	City     string
	PhotoURL string
	Phone    string
	Contact  string
	Link     string
}

// Summary renders the collected fields as HTML lines, skipping empty ones.
func (p Partial) Summary() string {
	year := ""
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}
	contact := ""
	if p.Contact != "" {
		contact = "@" + p.Contact
	}
	photos := ""
	if p.PhotoURL != "" {
		photos = strconv.Itoa(len(strings.Split(p.PhotoURL, ","))) + " шт."
	}
	rows := []struct{ label, value string }{
		{"Марка", p.Brand},
		{"Модель", p.Model},
		{"Год", year},
		{"Цена", p.Price},
		{"Город", p.City},
		{"Фото", photos},
		{"Телефон", p.Phone},
		{"Telegram", contact},
		{"Ссылка", p.Link},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.value != "" {
			lines = append(lines, r.label+": "+format.Escape(r.value))
		}
	}
	return strings.Join(lines, "\n")
}

// Record turns p into a ready listing stamped with now.
func (p Partial) Record(id string, now time.Time) listing.Record {
	return listing.Record{
		ID:          id,
		Brand:       p.Brand,
		Model:       p.Model,
		Year:        p.Year,
		Price:       p.Price,
		City:        p.City,
		PhotoURL:    p.PhotoURL,
		Link:        p.Link,
		Phone:       p.Phone,
		Contact:     p.Contact,
		PublishedAt: now.Format(listing.TimeLayout),
		Status:      listing.StatusReady,
	}
}
