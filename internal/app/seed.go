package app

import (
	"context"

	"github.com/m3rciful/zalogbot/core/bootstrap"
	"github.com/m3rciful/zalogbot/internal/listing"
	"github.com/m3rciful/zalogbot/internal/store"
)

const demoPhoto = "https://i.imgur.com/azLdCKP.jpeg"

// DemoListings are the sample cars offered on an empty store.
func DemoListings() []listing.Record {
	base := listing.Record{
		PhotoURL:    demoPhoto,
		Link:        "https://example.com/lot",
		PublishedAt: "2025-01-01 10:00",
		Status:      listing.StatusPublished,
	}
	cars := []struct {
		brand, model, price, city, phone, contact string
		year                                      int
	}{
		{"Chevrolet", "Tracker", "135 млн", "Ташкент", "+998907029845", "user7990", 2023},
		{"Chevrolet", "Cobalt", "199 млн", "Наманган", "+998909894109", "user8192", 2017},
		{"Daewoo", "Nexia", "240 млн", "Фергана", "+998907131593", "user3923", 2016},
	}
	out := make([]listing.Record, 0, len(cars))
	for _, c := range cars {
		r := base
		r.Brand, r.Model, r.Year = c.brand, c.model, c.year
		r.Price, r.City = c.price, c.city
		r.Phone, r.Contact = c.phone, c.contact
		out = append(out, r)
	}
	return out
}

// DemoSeeder appends DemoListings when the store is empty.
func DemoSeeder() bootstrap.Seeder[store.Store] {
	return bootstrap.SeederFunc[store.Store](func(ctx context.Context, st store.Store) (int, error) {
		existing, err := st.FetchAll(ctx)
		if err != nil {
			return 0, err
		}
		if len(existing) > 0 {
			return 0, nil
		}
		n := 0
		for _, r := range DemoListings() {
			if _, err := st.Append(ctx, r); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	})
}
