package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/zalogbot/core/config"
	"github.com/m3rciful/zalogbot/core/bootstrap"
	"github.com/m3rciful/zalogbot/internal/listing"
	"github.com/m3rciful/zalogbot/internal/store"
)

const (
	adminID = int64(42)
	userID  = int64(1001)
)

// fakeContext records what handlers send.
type fakeContext struct {
	tele.Context
	upd       tele.Update
	store     map[string]any
	sent      []interface{}
	responses []*tele.CallbackResponse
}

func textContext(uid int64, text string) *fakeContext {
	return &fakeContext{
		upd: tele.Update{ID: 1, Message: &tele.Message{
			Sender: &tele.User{ID: uid},
			Chat:   &tele.Chat{ID: uid, Type: tele.ChatPrivate},
			Text:   text,
		}},
		store: map[string]any{},
	}
}

func callbackContext(uid int64, unique, data string) *fakeContext {
	msg := &tele.Message{ID: 9, Chat: &tele.Chat{ID: uid, Type: tele.ChatPrivate}}
	return &fakeContext{
		upd: tele.Update{ID: 2, Callback: &tele.Callback{
			ID:      "cb",
			Sender:  &tele.User{ID: uid},
			Message: msg,
			Data:    "\f" + unique + "|" + data,
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update      { return f.upd }
func (f *fakeContext) Callback() *tele.Callback { return f.upd.Callback }
func (f *fakeContext) Message() *tele.Message {
	if f.upd.Callback != nil {
		return f.upd.Callback.Message
	}
	return f.upd.Message
}
func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	return f.upd.Message.Sender
}
func (f *fakeContext) Chat() *tele.Chat { return f.Message().Chat }
func (f *fakeContext) Text() string {
	if m := f.Message(); m != nil {
		return m.Text
	}
	return ""
}
func (f *fakeContext) Get(key string) interface{}    { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }
func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}
func (f *fakeContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return f.Send(what, opts...)
}
func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	switch v := f.sent[len(f.sent)-1].(type) {
	case string:
		return v
	case *tele.Photo:
		return v.Caption
	}
	return ""
}

type recordingSender struct{ calls int }

func (r *recordingSender) Send(tele.Recipient, interface{}, ...interface{}) (*tele.Message, error) {
	r.calls++
	return &tele.Message{}, nil
}

func testConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.AdminID = adminID
	cfg.Channel.Channel = "zalog_cars"
	if err := cfg.Normalize(); err != nil {
		panic(err)
	}
	return cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := assemble(testConfig(), &bootstrap.Result{}, store.NewMemory())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if err := bootstrap.Seed[store.Store](context.Background(), a.store, DemoSeeder()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return a
}

func TestNormalizeStoreDriver(t *testing.T) {
	cfg := &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	if err := cfg.Normalize(); err != nil || cfg.Store.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q (%v)", cfg.Store.Driver, err)
	}

	cfg = &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	cfg.Database.Host, cfg.Database.Name = "db", "zalog"
	if err := cfg.Normalize(); err != nil || cfg.Store.Driver != DriverPostgres || cfg.Database.Port != "5432" {
		t.Fatalf("expected postgres driver with default port, got %+v (%v)", cfg.Store, err)
	}
	if cfg.DatabaseConfig() == nil {
		t.Fatal("postgres driver must expose the database config")
	}

	cfg = &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	cfg.Store.Driver = "postgres"
	if err := cfg.Normalize(); err == nil {
		t.Fatal("postgres without a host must fail")
	}

	cfg = &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	cfg.Store.Driver = "sheets"
	if err := cfg.Normalize(); err == nil {
		t.Fatal("unknown driver must fail")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
telegram:
  token: "123:abc"
  admin_id: 42
store:
  driver: memory
  cache_ttl: 30s
  seed_demo: true
channel:
  username: "@zalog_cars"
  interval: 2s
search:
  result_limit: 5
  price_buckets: [100, 200]
intake:
  min_year: 1990
  session_ttl: 15m
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.AdminID != 42 || cfg.Telegram.RunMode != coreconfig.RunModeLongpoll {
		t.Fatalf("core section not decoded: %+v", cfg.Telegram)
	}
	if cfg.Store.CacheTTL != 30*time.Second || !cfg.Store.SeedDemo {
		t.Fatalf("store section not decoded: %+v", cfg.Store)
	}
	if cfg.Channel.Channel != "zalog_cars" || cfg.Channel.Interval != 2*time.Second {
		t.Fatalf("channel section not decoded: %+v", cfg.Channel)
	}
	if cfg.Search.ResultLimit != 5 || len(cfg.Search.PriceBuckets) != 2 {
		t.Fatalf("search section not decoded: %+v", cfg.Search)
	}
	if cfg.Intake.MinYear != 1990 || cfg.Intake.SessionTTL != 15*time.Minute {
		t.Fatalf("intake section not decoded: %+v", cfg.Intake)
	}
	if cfg.CoreConfig() != &cfg.Config {
		t.Fatal("CoreConfig must expose the embedded core section")
	}
}

func TestRegistry(t *testing.T) {
	a := newTestApp(t)
	for _, name := range []string{"/start", "/help", "/find", "/publish", "/cancel", "/stats", "/publish_all"} {
		if _, _, ok := a.registry.LookupCommand(name); !ok {
			t.Fatalf("command %s not registered", name)
		}
	}
	if _, cmd, ok := a.registry.LookupCommand(labelFind); !ok || cmd.Description == "" {
		t.Fatal("menu label must resolve to /find")
	}
	if _, cmd, _ := a.registry.LookupCommand("/publish_all"); !cmd.AdminOnly {
		t.Fatal("/publish_all must be admin only")
	}
	for _, key := range []string{"flt", "menu", "intake_pick", "intake_ok", "intake_cancel"} {
		if _, ok := a.registry.GetCallback(key); !ok {
			t.Fatalf("callback %s not registered", key)
		}
	}
	c := callbackContext(7, "gone", "")
	if err := a.registry.CallbackNotFound()(c); err != nil {
		t.Fatalf("unknown callback: %v", err)
	}
	if len(c.responses) != 1 || len(c.sent) != 0 {
		t.Fatal("unknown callback must only be answered")
	}
}

func TestDemoSeederRunsOnce(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	if err := bootstrap.Seed[store.Store](ctx, a.store, DemoSeeder()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	all, err := a.store.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != len(DemoListings()) {
		t.Fatalf("expected %d records, got %d", len(DemoListings()), len(all))
	}
}

func TestFindFlowShowsBrands(t *testing.T) {
	a := newTestApp(t)
	c := textContext(userID, "/find")
	if err := a.onFind(c); err != nil {
		t.Fatalf("onFind: %v", err)
	}
	if out := c.lastText(); !strings.Contains(out, "марк") {
		t.Fatalf("expected brand question, got %q", out)
	}

	cb := callbackContext(userID, "flt", "Chevrolet")
	h, _ := a.registry.GetCallback("flt")
	if err := h(cb); err != nil {
		t.Fatalf("flt: %v", err)
	}
	if out := cb.lastText(); !strings.Contains(out, "Chevrolet") {
		t.Fatalf("expected summary with the chosen brand, got %q", out)
	}
}

func TestIntakeConfirmAndPublish(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if err := a.onPublish(textContext(userID, "/publish")); err != nil {
		t.Fatalf("onPublish: %v", err)
	}
	inputs := []string{"Kia", "K5", "2021", "300 млн", "Ташкент", demoPhoto, "+998901234567", "@seller_1", "-"}
	for _, in := range inputs {
		if !a.sessions.InProgress(userID) {
			t.Fatalf("session ended before %q", in)
		}
		if err := a.sessions.ManagerHandler(textContext(userID, in)); err != nil {
			t.Fatalf("answer %q: %v", in, err)
		}
	}

	confirm, _ := a.registry.GetCallback("intake_ok")
	cb := callbackContext(userID, "intake_ok", "")
	if err := confirm(cb); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if out := cb.lastText(); !strings.Contains(out, "сохранено") {
		t.Fatalf("expected commit notice, got %q", out)
	}
	if a.sessions.InProgress(userID) {
		t.Fatal("session must end after confirm")
	}

	stale := callbackContext(userID, "intake_ok", "")
	if err := confirm(stale); err != nil {
		t.Fatalf("stale confirm: %v", err)
	}
	if len(stale.sent) != 0 || len(stale.responses) != 1 {
		t.Fatalf("stale confirm must only be answered, sent=%v", stale.sent)
	}

	all, _ := a.store.FetchAll(ctx)
	last := all[len(all)-1]
	if last.Brand != "Kia" || last.Status != listing.StatusReady {
		t.Fatalf("unexpected stored record: %+v", last)
	}

	fake := &recordingSender{}
	a.setBot(fake)
	pub := textContext(adminID, "/publish_all")
	if err := a.onPublishAll(pub); err != nil {
		t.Fatalf("publish_all: %v", err)
	}
	if fake.calls != 1 || !strings.Contains(pub.lastText(), "Опубликовано: <b>1</b>") {
		t.Fatalf("expected one post, calls=%d reply=%q", fake.calls, pub.lastText())
	}
	all, _ = a.store.FetchAll(ctx)
	if all[len(all)-1].Status != listing.StatusPublished {
		t.Fatalf("record not marked published: %+v", all[len(all)-1])
	}
}

func TestStatsHandler(t *testing.T) {
	a := newTestApp(t)
	c := textContext(userID, "/stats")
	if err := a.onStats(c); err != nil {
		t.Fatalf("onStats: %v", err)
	}
	if out := c.lastText(); !strings.Contains(out, "Всего автомобилей:</b> 3") || !strings.Contains(out, "Chevrolet: 2") {
		t.Fatalf("unexpected stats: %q", out)
	}
}

func TestMediaDuringIntakeGetsHint(t *testing.T) {
	a := newTestApp(t)
	_ = a.onPublish(textContext(userID, "/publish"))
	route := a.mediaRoute(tele.OnPhoto)
	c := textContext(userID, "")
	if err := route.Handler(c); err != nil {
		t.Fatalf("media: %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("expected a hint reply, got %v", c.sent)
	}

	idle := textContext(userID+1, "")
	_ = route.Handler(idle)
	if len(idle.sent) != 0 {
		t.Fatal("media outside intake must be ignored")
	}
}
