package publisher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/internal/listing"
	"github.com/m3rciful/zalogbot/internal/store"
)

type sent struct {
	to   string
	what interface{}
	opts []interface{}
}

type fakeSender struct {
	calls  []sent
	failOn string
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.calls = append(f.calls, sent{to: to.Recipient(), what: what, opts: opts})
	if p, ok := what.(*tele.Photo); ok && f.failOn != "" && strings.Contains(p.Caption, f.failOn) {
		return nil, errors.New("chat not found")
	}
	return &tele.Message{}, nil
}

func car(id, brand, model string, status listing.Status) listing.Record {
	return listing.Record{
		ID:       id,
		Brand:    brand,
		Model:    model,
		Year:     2017,
		Price:    "199 млн",
		City:     "Наманган",
		PhotoURL: "https://i.imgur.com/azLdCKP.jpeg",
		Link:     "https://example.com/lot",
		Phone:    "+998909894109",
		Contact:  "@user8192",
		Status:   status,
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestPublishReadyPostsAndMarks(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(
		car("a", "Chevrolet", "Cobalt", listing.StatusReady),
		car("b", "Daewoo", "Nexia", listing.StatusPublished),
		car("c", "Chevrolet", "Tracker", listing.StatusReady),
		car("d", "Kia", "K5", listing.StatusDraft),
	)
	p := New(mem, Options{Channel: "@zalog_cars"})
	p.sleep = noSleep
	s := &fakeSender{}

	rep, err := p.PublishReady(ctx, s)
	if err != nil {
		t.Fatalf("PublishReady: %v", err)
	}
	if rep.Published != 2 || rep.Failed != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(s.calls) != 2 || s.calls[0].to != "@zalog_cars" {
		t.Fatalf("unexpected sends: %+v", s.calls)
	}
	photo, ok := s.calls[0].what.(*tele.Photo)
	if !ok || !strings.Contains(photo.Caption, "Chevrolet Cobalt") {
		t.Fatalf("expected photo card for Cobalt, got %#v", s.calls[0].what)
	}

	all, _ := mem.FetchAll(ctx)
	for _, r := range all {
		if r.ID == "d" {
			if r.Status != listing.StatusDraft {
				t.Fatalf("draft record changed: %+v", r)
			}
			continue
		}
		if r.Status != listing.StatusPublished {
			t.Fatalf("record %s not published: %s", r.ID, r.Status)
		}
	}

	rep, err = p.PublishReady(ctx, s)
	if err != nil || rep.Published != 0 {
		t.Fatalf("second run should post nothing: %+v %v", rep, err)
	}
}

func TestPublishReadySkipsFailures(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(
		car("a", "Chevrolet", "Cobalt", listing.StatusReady),
		car("b", "Daewoo", "Nexia", listing.StatusReady),
	)
	p := New(mem, Options{Channel: "zalog_cars"})
	p.sleep = noSleep

	rep, err := p.PublishReady(ctx, &fakeSender{failOn: "Cobalt"})
	if err != nil {
		t.Fatalf("PublishReady: %v", err)
	}
	if rep.Published != 1 || rep.Failed != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	all, _ := mem.FetchAll(ctx)
	if all[0].Status != listing.StatusReady || all[1].Status != listing.StatusPublished {
		t.Fatalf("unexpected statuses: %s %s", all[0].Status, all[1].Status)
	}
}

// flakyStore rejects the first `fails` status updates.
type flakyStore struct {
	*store.Memory
	fails   int
	updates int
}

func (f *flakyStore) UpdateStatus(ctx context.Context, id string, to listing.Status) error {
	f.updates++
	if f.updates <= f.fails {
		return errors.New("connection reset")
	}
	return f.Memory.UpdateStatus(ctx, id, to)
}

func TestPublishReadyRetriesMark(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Memory: store.NewMemory(car("a", "Chevrolet", "Cobalt", listing.StatusReady)), fails: 1}
	p := New(st, Options{Channel: "zalog_cars"})
	p.sleep = noSleep

	rep, err := p.PublishReady(ctx, &fakeSender{})
	if err != nil || rep.Published != 1 || rep.Failed != 0 {
		t.Fatalf("one failed update must be retried: %+v %v", rep, err)
	}
	all, _ := st.FetchAll(ctx)
	if all[0].Status != listing.StatusPublished {
		t.Fatalf("status = %s", all[0].Status)
	}
}

func TestPublishReadyReportsUnmarked(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Memory: store.NewMemory(car("a", "Chevrolet", "Cobalt", listing.StatusReady)), fails: 2}
	p := New(st, Options{Channel: "zalog_cars"})
	p.sleep = noSleep
	s := &fakeSender{}

	rep, err := p.PublishReady(ctx, s)
	if err != nil || rep.Published != 0 || rep.Failed != 1 {
		t.Fatalf("unexpected report: %+v %v", rep, err)
	}
	if len(s.calls) != 1 || st.updates != 2 {
		t.Fatalf("sends=%d updates=%d", len(s.calls), st.updates)
	}
	st.fails = st.updates + 2
	r := car("a", "Chevrolet", "Cobalt", listing.StatusReady)
	if err := p.publishOne(ctx, s, Channel("zalog_cars"), r); !errors.Is(err, ErrUnmarked) {
		t.Fatalf("expected ErrUnmarked, got %v", err)
	}
}

func TestPublishReadyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mem := store.NewMemory(
		car("a", "Chevrolet", "Cobalt", listing.StatusReady),
		car("b", "Daewoo", "Nexia", listing.StatusReady),
	)
	p := New(mem, Options{Channel: "zalog_cars", Interval: time.Hour})
	s := &fakeSender{}
	cancel()

	rep, err := p.PublishReady(ctx, s)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if rep.Published > 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestPublishReadyRequiresChannel(t *testing.T) {
	p := New(store.NewMemory(), Options{})
	if _, err := p.PublishReady(context.Background(), &fakeSender{}); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
}

func TestCardButtons(t *testing.T) {
	r := car("a", "Chevrolet", "Cobalt", listing.StatusReady)
	markup := Buttons(r)
	if markup == nil || len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("expected call and write buttons, got %+v", markup)
	}
	if got := markup.InlineKeyboard[0][0].URL; got != "https://t.me/share/url?url=tel:+998909894109" {
		t.Fatalf("unexpected call url %q", got)
	}
	if got := markup.InlineKeyboard[0][1].URL; got != "https://t.me/user8192" {
		t.Fatalf("unexpected write url %q", got)
	}

	r.Link = "https://bank.uz/lot/17"
	if markup = Buttons(r); markup.InlineKeyboard[0][0].Text != "🔗 Подробнее" {
		t.Fatalf("expected link button first, got %+v", markup.InlineKeyboard)
	}

	caption := Caption(r)
	if !strings.HasPrefix(caption, "🚗 <b>#"+r.Tag()+" - Chevrolet Cobalt</b>") {
		t.Fatalf("unexpected caption header: %q", caption)
	}
	if !strings.Contains(caption, "@user8192") || strings.Contains(caption, "@@") {
		t.Fatalf("unexpected contact line: %q", caption)
	}
}
