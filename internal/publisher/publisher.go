// Package publisher posts ready listings to the channel and marks them published.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/logger"
	"github.com/m3rciful/zalogbot/internal/listing"
)

// ErrBusy is returned when a publish run is already in progress.
var ErrBusy = errors.New("publisher: run in progress")

// ErrNoChannel is returned when no channel is configured.
var ErrNoChannel = errors.New("publisher: channel not configured")

// ErrUnmarked is returned when a card reached the channel but its record
// could not be marked published. The record stays ready.
var ErrUnmarked = errors.New("publisher: posted but not marked published")

var postsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zalog_publisher_posts_total",
	Help: "Channel posts by outcome.",
}, []string{"outcome"})

// Sender delivers a message. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Store is the part of the record store the publisher needs.
type Store interface {
	FetchAll(ctx context.Context) ([]listing.Record, error)
	UpdateStatus(ctx context.Context, id string, to listing.Status) error
}

// Channel addresses a public channel by username.
type Channel string

// Recipient implements tele.Recipient.
func (c Channel) Recipient() string {
	return "@" + strings.TrimPrefix(strings.TrimSpace(string(c)), "@")
}

// Options configure a Publisher.
type Options struct {
	Channel  string        `yaml:"username" envconfig:"CHANNEL_USERNAME"`
	Interval time.Duration `yaml:"interval" envconfig:"CHANNEL_INTERVAL"`
}

// Report summarizes one publish run.
type Report struct {
	Published int
	Failed    int
}

// Publisher posts ready records one at a time.
type Publisher struct {
	store Store
	opts  Options
	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Publisher. A zero Interval means one second between posts.
func New(store Store, opts Options) *Publisher {
	if opts.Interval == 0 {
		opts.Interval = time.Second
	}
	return &Publisher{store: store, opts: opts, sleep: sleepCtx}
}

// Channel returns the configured channel username without the leading @.
func (p *Publisher) Channel() string {
	return strings.TrimPrefix(strings.TrimSpace(p.opts.Channel), "@")
}

// PublishReady posts every ready record through sender and marks it published.
// Per-record failures are logged and counted; the run continues.
func (p *Publisher) PublishReady(ctx context.Context, sender Sender) (Report, error) {
	if p.Channel() == "" {
		return Report{}, ErrNoChannel
	}
	if !p.mu.TryLock() {
		return Report{}, ErrBusy
	}
	defer p.mu.Unlock()

	start := time.Now()
	records, err := p.store.FetchAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("publisher: fetch: %w", err)
	}
	var ready []listing.Record
	for _, r := range records {
		if r.Status == listing.StatusReady {
			ready = append(ready, r)
		}
	}

	var rep Report
	to := Channel(p.opts.Channel)
	for i, r := range ready {
		if i > 0 {
			if err := p.sleep(ctx, p.opts.Interval); err != nil {
				logger.Warn(ctx, logger.CompPublisher, "publish_interrupted",
					slog.Int("published", rep.Published),
					slog.Int("remaining", len(ready)-i),
				)
				return rep, err
			}
		}
		if err := p.publishOne(ctx, sender, to, r); err != nil {
			rep.Failed++
			if errors.Is(err, ErrUnmarked) {
				postsTotal.WithLabelValues("unmarked").Inc()
				logger.Error(ctx, logger.CompPublisher, "publish_unmarked",
					slog.String("record_id", r.ID),
					slog.String("tag", r.Tag()),
					slog.String("err_code", "UNMARKED"),
					logger.Err(err),
				)
				continue
			}
			postsTotal.WithLabelValues("failed").Inc()
			logger.Warn(ctx, logger.CompPublisher, "publish_failed",
				slog.String("record_id", r.ID),
				slog.String("tag", r.Tag()),
				slog.String("err_code", logger.ErrCode(err, "PUBLISH")),
				logger.Err(err),
			)
			continue
		}
		rep.Published++
		postsTotal.WithLabelValues("published").Inc()
		logger.Debug(ctx, logger.CompPublisher, "published",
			slog.String("record_id", r.ID),
			slog.String("tag", r.Tag()),
		)
	}

	logger.Info(ctx, logger.CompPublisher, "publish_run",
		slog.String("channel", to.Recipient()),
		slog.Int("ready", len(ready)),
		slog.Int("published", rep.Published),
		slog.Int("failed", rep.Failed),
		slog.Duration("took", logger.Took(start)),
	)
	return rep, nil
}

func (p *Publisher) publishOne(ctx context.Context, sender Sender, to tele.Recipient, r listing.Record) error {
	caption := Caption(r)
	opts := []interface{}{tele.ModeHTML}
	if markup := Buttons(r); markup != nil {
		opts = append(opts, markup)
	}

	var what interface{} = caption
	if photo := r.PrimaryPhoto(); photo != "" {
		what = &tele.Photo{File: tele.FromURL(photo), Caption: caption}
	}
	if _, err := sender.Send(to, what, opts...); err != nil {
		return fmt.Errorf("send %s: %w", r.ID, err)
	}
	if err := p.markPublished(ctx, r); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnmarked, r.ID, err)
	}
	return nil
}

// markPublished retries the status update once; the post is already live.
func (p *Publisher) markPublished(ctx context.Context, r listing.Record) error {
	err := p.store.UpdateStatus(ctx, r.ID, listing.StatusPublished)
	if err == nil {
		return nil
	}
	logger.Warn(ctx, logger.CompPublisher, "mark_retry",
		slog.String("record_id", r.ID),
		slog.String("err_code", logger.ErrCode(err, "STORE")),
		logger.Err(err),
	)
	return p.store.UpdateStatus(ctx, r.ID, listing.StatusPublished)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
