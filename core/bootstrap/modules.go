package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/zalogbot/core/logger"
)

// Seeder loads initial data into a storage of type S.
type Seeder[S any] interface {
	Seed(ctx context.Context, storage S) (int, error)
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc[S any] func(ctx context.Context, storage S) (int, error)

// Seed executes the underlying function.
func (f SeederFunc[S]) Seed(ctx context.Context, storage S) (int, error) {
	return f(ctx, storage)
}

// Seed runs seeders in order and stops at the first failure.
func Seed[S any](ctx context.Context, storage S, seeders ...Seeder[S]) error {
	for i, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		n, err := s.Seed(ctx, storage)
		if err != nil {
			logger.SEED.Error("seed failed",
				slog.String("event", "db.seed"),
				slog.String("status", "fail"),
				slog.Int("step", i),
				logger.Err(err),
			)
			return fmt.Errorf("bootstrap: seeder %d: %w", i, err)
		}
		logger.SEED.Info("seeded",
			slog.String("event", "db.seed"),
			slog.String("status", "ok"),
			slog.Int("step", i),
			slog.Int("count", n),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}
