package listing

import "testing"

func TestParsePrice(t *testing.T) {
	cases := map[string]int{
		"135 млн":     135,
		"135млн":      135,
		"199 МЛН":     199,
		"240 mln":     240,
		"1 200 млн":   1200,
		"150 so'm":    150,
		"90 млн сум":  90,
		" 77 UZS ":    77,
		"300 млн": 300,
	}
	for in, want := range cases {
		got, err := ParsePrice(in)
		if err != nil {
			t.Fatalf("ParsePrice(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParsePrice(%q) = %d, want %d", in, got, want)
		}
	}
	for _, in := range []string{"", "млн", "договорная", "12.5 млн", "-5"} {
		if _, err := ParsePrice(in); err == nil {
			t.Fatalf("ParsePrice(%q) expected error", in)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	if !StatusDraft.CanTransition(StatusReady) || !StatusReady.CanTransition(StatusPublished) {
		t.Fatal("forward transitions must be allowed")
	}
	for _, pair := range [][2]Status{
		{StatusDraft, StatusPublished},
		{StatusPublished, StatusReady},
		{StatusReady, StatusDraft},
		{StatusPublished, StatusPublished},
	} {
		if pair[0].CanTransition(pair[1]) {
			t.Fatalf("%s -> %s must be rejected", pair[0], pair[1])
		}
	}
}

func TestRecordHelpers(t *testing.T) {
	r := tracker()
	r.PhotoURL = " https://a/1.jpg , ,https://a/2.jpg"
	if got := r.Photos(); len(got) != 2 || got[1] != "https://a/2.jpg" {
		t.Fatalf("Photos = %v", got)
	}
	if r.PrimaryPhoto() != "https://a/1.jpg" {
		t.Fatalf("PrimaryPhoto = %s", r.PrimaryPhoto())
	}
	if tag := r.Tag(); len(tag) != 4 || tag != tracker().Tag() {
		t.Fatalf("Tag = %q", tag)
	}
	r.Contact = " "
	if r.WellFormed() {
		t.Fatal("blank contact must make the record malformed")
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"ready":          StatusReady,
		" Готово ":       StatusReady,
		"✅ Опубликовано": StatusPublished,
		"published":      StatusPublished,
		"draft":          StatusDraft,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseStatus("sold"); err == nil {
		t.Fatal("unknown status must be rejected")
	}
}
