package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/zalogbot/core/telegram"
	tghelpers "github.com/m3rciful/zalogbot/core/telegram/helpers"
	"github.com/m3rciful/zalogbot/core/telegram/middleware"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextRoute dispatches plain text: an active conversation wins, then command
// aliases such as reply-keyboard labels, then the fallback. Admin-only commands
// are reachable only through their slash route.
func TextRoute(fsm FSM, reg *tg.Registry, unknown tele.HandlerFunc) tg.Route {
	handler := func(c tele.Context) error {
		if fsm != nil && fsm.InProgress(tghelpers.SenderID(c)) {
			return handle(c, "fsm", func() error { return fsm.ManagerHandler(c) })
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && !cmd.AdminOnly {
				return handle(c, normalizeHandlerName(key), func() error { return cmd.Handler(c) })
			}
		}
		if unknown == nil {
			return nil
		}
		return handle(c, "unknown_text", func() error { return unknown(c) })
	}
	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
