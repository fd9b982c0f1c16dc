package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m3rciful/zalogbot/core/logger"
	"github.com/m3rciful/zalogbot/internal/listing"
)

var opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "zalog_store_op_duration_seconds",
	Help:    "Record store call latency by operation and status.",
	Buckets: prometheus.DefBuckets,
}, []string{"op", "status"})

// Observed records latency metrics and logs every failed call of the wrapped store.
type Observed struct {
	next Store
}

// Observe wraps next.
func Observe(next Store) *Observed {
	return &Observed{next: next}
}

func (o *Observed) done(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	took := time.Since(start)
	status := logger.Status(err)
	opDuration.WithLabelValues(op, status).Observe(took.Seconds())

	attrs = append(attrs,
		slog.String("status", status),
		slog.String("op", op),
		slog.Duration("duration", took),
	)
	if err == nil {
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.Store, slog.LevelDebug, "store.call", attrs...)
		}
		return
	}
	attrs = append(attrs, logger.Err(err), slog.String("err_code", logger.ErrCode(err, "STORE_ERROR")))
	logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "store.call", attrs...)
}

func (o *Observed) FetchAll(ctx context.Context) ([]listing.Record, error) {
	start := time.Now()
	all, err := o.next.FetchAll(ctx)
	o.done(ctx, "fetch_all", start, err, slog.Int("count", len(all)))
	return all, err
}

func (o *Observed) Append(ctx context.Context, rec listing.Record) (listing.Record, error) {
	start := time.Now()
	out, err := o.next.Append(ctx, rec)
	o.done(ctx, "append", start, err, slog.String("listing_id", out.ID), slog.Int("position", out.Position))
	return out, err
}

func (o *Observed) UpdateStatus(ctx context.Context, id string, to listing.Status) error {
	start := time.Now()
	err := o.next.UpdateStatus(ctx, id, to)
	o.done(ctx, "update_status", start, err, slog.String("listing_id", id), slog.String("to", string(to)))
	return err
}

func (o *Observed) DistinctValues(ctx context.Context, f listing.Field) ([]string, error) {
	start := time.Now()
	values, err := o.next.DistinctValues(ctx, f)
	o.done(ctx, "distinct", start, err, slog.String("field", string(f)), slog.Int("count", len(values)))
	return values, err
}
