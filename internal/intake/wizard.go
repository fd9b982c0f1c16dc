package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m3rciful/zalogbot/core/logger"
	"github.com/m3rciful/zalogbot/core/telegram/state"
	"github.com/m3rciful/zalogbot/core/telegram/ui"
	"github.com/m3rciful/zalogbot/internal/listing"
)

var outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zalog_intake_outcomes_total",
	Help: "Intake wizard results by step and outcome.",
}, []string{"step", "outcome"})

// Outcome classifies what a wizard call did.
type Outcome string

const (
	OutcomePrompted  Outcome = "prompted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeConfirm   Outcome = "confirm"
	OutcomeCommitted Outcome = "committed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
	OutcomeIdle      Outcome = "idle"
	OutcomeIgnored   Outcome = "ignored"
)

// Result is the reply to one user action.
type Result struct {
	Prompt  ui.Prompt
	Outcome Outcome
	// Err is a *ValidationError for rejected input or the store error of a failed commit.
	Err error
	// Record is set once committed.
	Record listing.Record
}

// Sessions is the part of the session manager the wizard uses.
type Sessions interface {
	GetState(userID int64) state.State
	SetState(userID int64, st state.State)
	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	Clear(userID int64)
	Touch(userID int64)
}

// Store is the part of the record store the wizard uses.
type Store interface {
	FetchAll(ctx context.Context) ([]listing.Record, error)
	Append(ctx context.Context, rec listing.Record) (listing.Record, error)
}

// Options configure a Wizard. Zero values fall back to defaults.
type Options struct {
	MinYear int `yaml:"min_year"`
	// MaxYear of 0 means next calendar year.
	MaxYear       int    `yaml:"max_year"`
	PhonePrefix   string `yaml:"phone_prefix"`
	MinTextLen    int    `yaml:"min_text_len"`
	SuggestionCap int    `yaml:"suggestion_cap"`

	PickKey    string           `yaml:"-"`
	ConfirmKey string           `yaml:"-"`
	CancelKey  string           `yaml:"-"`
	Now        func() time.Time `yaml:"-"`
	NewID      func() string    `yaml:"-"`
}

func (o Options) withDefaults() Options {
	if o.MinYear <= 0 {
		o.MinYear = 1900
	}
	if o.PhonePrefix == "" {
		o.PhonePrefix = "+998"
	}
	if o.MinTextLen <= 0 {
		o.MinTextLen = 2
	}
	if o.SuggestionCap <= 0 {
		o.SuggestionCap = 6
	}
	if o.PickKey == "" {
		o.PickKey = "intake_pick"
	}
	if o.ConfirmKey == "" {
		o.ConfirmKey = "intake_ok"
	}
	if o.CancelKey == "" {
		o.CancelKey = "intake_cancel"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

const partialKey = "intake.partial"

// Wizard drives intake conversations. Sessions hold the step and the partial listing.
type Wizard struct {
	sessions Sessions
	store    Store
	opts     Options

	// locks serialise updates of one user; telebot handles updates concurrently.
	locks [64]sync.Mutex
}

// New returns a Wizard.
func New(sessions Sessions, store Store, opts Options) *Wizard {
	return &Wizard{sessions: sessions, store: store, opts: opts.withDefaults()}
}

// Options returns the effective options.
func (w *Wizard) Options() Options { return w.opts }

func (w *Wizard) lock(userID int64) func() {
	mu := &w.locks[uint64(userID)%uint64(len(w.locks))]
	mu.Lock()
	return mu.Unlock
}

func (w *Wizard) maxYear() int {
	if w.opts.MaxYear > 0 {
		return w.opts.MaxYear
	}
	return w.opts.Now().Year() + 1
}

// Active reports whether userID is in the middle of an intake.
func (w *Wizard) Active(userID int64) bool {
	return IsStep(w.sessions.GetState(userID))
}

func (w *Wizard) partial(userID int64) Partial {
	if v, ok := w.sessions.GetTemp(userID, partialKey); ok {
		if p, ok := v.(Partial); ok {
			return p
		}
	}
	return Partial{}
}

// Start discards any previous attempt and prompts for the first field.
func (w *Wizard) Start(ctx context.Context, userID int64) Result {
	defer w.lock(userID)()
	w.sessions.Clear(userID)
	w.sessions.SetState(userID, StepBrand)
	w.sessions.SetTemp(userID, partialKey, Partial{})
	return w.finish(ctx, StepBrand, Result{Prompt: w.prompt(ctx, StepBrand, Partial{}, ""), Outcome: OutcomePrompted})
}

// Handle consumes a text answer for the current step.
func (w *Wizard) Handle(ctx context.Context, userID int64, text string) Result {
	defer w.lock(userID)()
	return w.submit(ctx, userID, w.sessions.GetState(userID), text)
}

// Pick consumes a suggestion button. payload is "<step>:<value>"; picks for
// any step but the current one are ignored.
func (w *Wizard) Pick(ctx context.Context, userID int64, payload string) Result {
	defer w.lock(userID)()
	current := w.sessions.GetState(userID)
	name, value, ok := strings.Cut(payload, ":")
	if !ok || !IsStep(current) || state.State(statePrefix+name) != current {
		return w.finish(ctx, current, Result{Outcome: OutcomeIgnored})
	}
	return w.submit(ctx, userID, current, value)
}

func (w *Wizard) submit(ctx context.Context, userID int64, current state.State, text string) Result {
	if !IsStep(current) {
		return w.finish(ctx, current, Result{Outcome: OutcomeIdle})
	}
	w.sessions.Touch(userID)
	p := w.partial(userID)
	if current == StepConfirm {
		return w.finish(ctx, current, Result{
			Prompt:  w.prompt(ctx, current, p, "Подтвердите или отмените объявление кнопками ниже."),
			Outcome: OutcomeConfirm,
		})
	}

	if err := w.apply(&p, current, text); err != nil {
		var verr *ValidationError
		hint := ""
		if errors.As(err, &verr) {
			hint = "⚠️ " + verr.Hint
		}
		return w.finish(ctx, current, Result{
			Prompt:  w.prompt(ctx, current, w.partial(userID), hint),
			Outcome: OutcomeRejected,
			Err:     err,
		})
	}

	nxt := next(current)
	w.sessions.SetTemp(userID, partialKey, p)
	w.sessions.SetState(userID, nxt)
	outcome := OutcomePrompted
	if nxt == StepConfirm {
		outcome = OutcomeConfirm
	}
	return w.finish(ctx, current, Result{Prompt: w.prompt(ctx, nxt, p, ""), Outcome: outcome})
}

// Confirm commits the collected listing with status ready. The session ends
// whether or not the store accepts it.
func (w *Wizard) Confirm(ctx context.Context, userID int64) Result {
	defer w.lock(userID)()
	current := w.sessions.GetState(userID)
	if current != StepConfirm {
		return w.finish(ctx, current, Result{Outcome: OutcomeIgnored})
	}
	p := w.partial(userID)
	w.sessions.Clear(userID)

	rec, err := w.store.Append(ctx, p.Record(w.opts.NewID(), w.opts.Now()))
	if err != nil {
		return w.finish(ctx, current, Result{
			Prompt:  ui.Prompt{Text: "⚠️ Не удалось сохранить объявление. Данные сброшены, начните заново: /publish"},
			Outcome: OutcomeFailed,
			Err:     err,
		})
	}
	text := fmt.Sprintf("✅ Объявление <b>#%s</b> сохранено и ждёт публикации.\n\n%s", rec.Tag(), p.Summary())
	return w.finish(ctx, current, Result{Prompt: ui.Prompt{Text: text}, Outcome: OutcomeCommitted, Record: rec})
}

// Cancel drops the conversation and everything collected so far.
func (w *Wizard) Cancel(ctx context.Context, userID int64) Result {
	defer w.lock(userID)()
	current := w.sessions.GetState(userID)
	w.sessions.Clear(userID)
	if !IsStep(current) {
		return w.finish(ctx, current, Result{Prompt: ui.Prompt{Text: "Нечего отменять."}, Outcome: OutcomeIdle})
	}
	return w.finish(ctx, current, Result{Prompt: ui.Prompt{Text: "❌ Добавление объявления отменено."}, Outcome: OutcomeCancelled})
}

// finish counts and logs the result of a call made at step st.
func (w *Wizard) finish(ctx context.Context, st state.State, res Result) Result {
	outcomesTotal.WithLabelValues(short(st), string(res.Outcome)).Inc()
	attrs := []slog.Attr{
		slog.String("step", short(st)),
		slog.String("outcome", string(res.Outcome)),
	}
	switch res.Outcome {
	case OutcomeFailed:
		logger.Error(ctx, logger.CompIntake, "commit", append(attrs,
			logger.Err(res.Err),
			slog.String("err_code", logger.ErrCode(res.Err, "STORE")),
		)...)
	case OutcomeRejected:
		logger.Debug(ctx, logger.CompIntake, "input", append(attrs,
			slog.String("rule", invalidTags(res.Err)),
			slog.String("err_code", logger.ErrCode(res.Err, "VALIDATION")),
		)...)
	case OutcomeCommitted:
		logger.Info(ctx, logger.CompIntake, "commit", append(attrs,
			slog.String("listing_id", res.Record.ID),
			slog.Int("position", res.Record.Position),
		)...)
	default:
		logger.Debug(ctx, logger.CompIntake, "step", attrs...)
	}
	return res
}
