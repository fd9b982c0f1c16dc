package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m3rciful/zalogbot/core/logger"
	"github.com/m3rciful/zalogbot/core/telegram/ui"
	"github.com/m3rciful/zalogbot/internal/listing"
)

var stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zalog_search_steps_total",
	Help: "Filter steps rendered by step and outcome.",
}, []string{"step", "outcome"})

// Reader is the part of the record store the wizard needs.
type Reader interface {
	FetchAll(ctx context.Context) ([]listing.Record, error)
	DistinctValues(ctx context.Context, f listing.Field) ([]string, error)
}

// Wizard renders filter steps and results.
type Wizard struct {
	store Reader
	opts  Options
}

// New returns a Wizard reading listings from store.
func New(store Reader, opts Options) *Wizard {
	opts = opts.withDefaults()
	buckets := slices.Clone(opts.PriceBuckets)
	slices.Sort(buckets)
	opts.PriceBuckets = slices.Compact(buckets)
	return &Wizard{store: store, opts: opts}
}

// Options returns the effective options.
func (w *Wizard) Options() Options { return w.opts }

// Start renders the first step.
func (w *Wizard) Start(ctx context.Context) ui.Prompt {
	return w.Advance(ctx, "")
}

// Advance renders the step that follows the choices encoded in payload, or the
// results once every step has a choice.
func (w *Wizard) Advance(ctx context.Context, payload string) ui.Prompt {
	st, p, outcome := w.advance(ctx, payload)
	stepsTotal.WithLabelValues(st.String(), outcome).Inc()
	return p
}

// selection is a decoded payload.
type selection struct {
	tokens   []string
	criteria listing.Criteria
	// records consistent with criteria; nil before the first FetchAll.
	records []listing.Record
}

func (w *Wizard) advance(ctx context.Context, payload string) (Step, ui.Prompt, string) {
	tokens, err := DecodePath(payload)
	if err != nil {
		logger.Debug(ctx, logger.CompSearch, "payload.rejected", logger.Err(err))
		return StepBrand, w.expiredPrompt(), "expired"
	}
	next := Step(len(tokens))

	if next == StepBrand {
		brands, err := w.store.DistinctValues(ctx, listing.FieldBrand)
		if err != nil {
			w.logStoreFailure(ctx, next, err)
			return next, w.storeFailurePrompt(), "failed"
		}
		return next, w.choicePrompt(next, selection{}, brands), "prompted"
	}

	all, err := w.store.FetchAll(ctx)
	if err != nil {
		w.logStoreFailure(ctx, next, err)
		return next, w.storeFailurePrompt(), "failed"
	}
	sel, err := w.resolve(ctx, tokens, all)
	if err != nil {
		logger.Debug(ctx, logger.CompSearch, "payload.rejected",
			slog.String("step", next.String()),
			logger.Err(err),
		)
		return next, w.expiredPrompt(), "expired"
	}

	switch next {
	case StepModel, StepYear, StepCity:
		return next, w.choicePrompt(next, sel, listing.Distinct(sel.records, next.field())), "prompted"
	case StepPrice, StepStatus:
		return next, w.choicePrompt(next, sel, nil), "prompted"
	}

	matched := listing.Filter(ctx, all, sel.criteria)
	logger.Info(ctx, logger.CompSearch, "results",
		append(sel.criteria.Attrs(),
			slog.Int("matched", len(matched)),
			slog.Int("total", len(all)),
		)...)
	if len(matched) == 0 {
		return StepResults, w.notFoundPrompt(sel.criteria), "not_found"
	}
	return StepResults, w.resultsPrompt(sel.criteria, matched), "results"
}

// resolve replays tokens against all, narrowing the record set step by step so
// each token is checked against exactly the values that were offered.
func (w *Wizard) resolve(ctx context.Context, tokens []string, all []listing.Record) (selection, error) {
	sel := selection{tokens: tokens, records: all}
	for i, tok := range tokens {
		st := Step(i)
		switch st {
		case StepBrand, StepModel, StepYear, StepCity:
			v, err := resolveToken(tok, listing.Distinct(sel.records, st.field()))
			if err != nil {
				return selection{}, fmt.Errorf("%s: %w", st, err)
			}
			switch st {
			case StepBrand:
				sel.criteria.Brand = v
			case StepModel:
				sel.criteria.Model = v
			case StepYear:
				if v != "" {
					sel.criteria.Year, _ = strconv.Atoi(v)
				}
			case StepCity:
				sel.criteria.City = v
			}
			sel.records = listing.Filter(ctx, sel.records, sel.criteria)
		case StepPrice:
			if tok == Any {
				continue
			}
			n, err := strconv.Atoi(tok)
			if err != nil || n <= 0 {
				return selection{}, fmt.Errorf("%w: price %q", ErrExpired, tok)
			}
			sel.criteria.MaxPrice = n
		case StepStatus:
			switch tok {
			case StatusUnpublished:
				sel.criteria.Status = listing.StatusModeUnpublished
			case StatusAll:
				sel.criteria.Status = listing.StatusModeAny
			default:
				return selection{}, fmt.Errorf("%w: status %q", ErrExpired, tok)
			}
		}
	}
	return sel, nil
}

func (w *Wizard) logStoreFailure(ctx context.Context, st Step, err error) {
	logger.Warn(ctx, logger.CompSearch, "store.failed",
		slog.String("step", st.String()),
		logger.Err(err),
		slog.String("err_code", logger.ErrCode(err, "STORE")),
	)
}
