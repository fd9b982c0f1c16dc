package middleware

import (
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/logger"
	tghelpers "github.com/m3rciful/zalogbot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Size caps the number of tracked users; 0 means 10000.
	Size int
}

// RateLimitMiddleware enforces a minimum interval between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Size <= 0 {
		opts.Size = 10_000
	}
	lastSeen := expirable.NewLRU[int64, time.Time](opts.Size, nil, max(opts.Interval, time.Second))
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			now := time.Now()
			if last, ok := lastSeen.Get(user.ID); ok && now.Sub(last) < opts.Interval {
				logger.Warn(tghelpers.BuildContext(c), logger.CompTG, "rate_limit",
					slog.String("kind", kind),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen.Add(user.ID, now)
			return next(c)
		}
	}
}
