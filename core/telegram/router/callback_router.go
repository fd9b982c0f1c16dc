package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/zalogbot/core/telegram"
	"github.com/m3rciful/zalogbot/core/telegram/callbacks"
	"github.com/m3rciful/zalogbot/core/telegram/middleware"
)

// CallbackRoute routes every callback through the registry by its unique key.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)

		h, ok := reg.GetCallback(key)
		if !ok {
			return handle(c, name, func() error {
				if fb := reg.CallbackNotFound(); fb != nil {
					return fb(c)
				}
				return nil
			}, slog.String("cb_key", key), slog.String("reason", "not_found"))
		}
		return handle(c, name, func() error {
			defer func() { _ = c.Respond() }()
			return h(c)
		}, slog.String("cb_key", key))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
