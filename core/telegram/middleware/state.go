package middleware

import (
	"log/slog"
	"slices"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/logger"
	tghelpers "github.com/m3rciful/zalogbot/core/telegram/helpers"
	"github.com/m3rciful/zalogbot/core/telegram/state"
)

// StateGetter is the minimal interface required from an FSM manager.
type StateGetter interface {
	GetState(userID int64) state.State
}

// State lets an update through only while the sender is in one of the expected
// states. Other updates are dropped; stale callbacks get an "expired" toast.
func State(mgr StateGetter, expected ...state.State) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			current := mgr.GetState(tghelpers.SenderID(c))
			ctx := tghelpers.BuildContext(c)
			if slices.Contains(expected, current) {
				return next(c)
			}
			logger.Debug(ctx, logger.CompTG, "fsm.skip",
				slog.String("step", string(current)),
			)
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: "Действие устарело"})
			}
			return nil
		}
	}
}
