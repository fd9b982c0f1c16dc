package app

import (
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/logger"
	tg "github.com/m3rciful/zalogbot/core/telegram"
	"github.com/m3rciful/zalogbot/core/telegram/callbacks"
	"github.com/m3rciful/zalogbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/zalogbot/core/telegram/helpers"
	"github.com/m3rciful/zalogbot/core/telegram/keyboard"
	"github.com/m3rciful/zalogbot/core/telegram/middleware"
	"github.com/m3rciful/zalogbot/core/telegram/ui"
	"github.com/m3rciful/zalogbot/internal/intake"
	"github.com/m3rciful/zalogbot/internal/publisher"
	"github.com/m3rciful/zalogbot/internal/stats"
)

// Reply keyboard labels; each is an alias of its command.
const (
	labelFind  = "🔍 Найти авто"
	labelAdd   = "➕ Добавить авто"
	labelStats = "📊 Статистика"
	labelHelp  = "📋 Помощь"
)

// Payloads of the menu callback.
const (
	menuHome    = ""
	menuPublish = "publish"
	menuStats   = "stats"
	menuHelp    = "help"
)

const welcomeText = "🚗 <b>Добро пожаловать в ZalogAvtoUz Bot!</b>\n\n" +
	"Я помогу вам найти и опубликовать залоговые автомобили.\n\n" +
	"<b>Доступные команды:</b>\n" +
	"🔍 /find — найти автомобили по фильтрам\n" +
	"📝 /publish — добавить новый автомобиль\n" +
	"📊 /stats — статистика базы данных\n" +
	"📋 /help — справка по командам\n\n" +
	"Выберите действие:"

const helpText = "📋 <b>Справка по командам</b>\n\n" +
	"<b>Основные команды:</b>\n" +
	"🔍 /find — поиск автомобилей по марке, модели, году, городу и цене\n" +
	"📝 /publish — добавление нового автомобиля в базу данных\n" +
	"❌ /cancel — отменить добавление\n" +
	"📊 /stats — просмотр статистики базы данных\n" +
	"📋 /help — эта справка\n\n" +
	"<b>Как использовать:</b>\n" +
	"1. Для поиска используйте /find и выбирайте варианты кнопками\n" +
	"2. Для добавления автомобиля используйте /publish и отвечайте на вопросы\n" +
	"3. Подтверждённые объявления публикуются в канале администратором"

func mainKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{labelFind, labelAdd},
		[]string{labelStats, labelHelp},
	)
}

func (a *App) menuPrompt() ui.Prompt {
	key := a.search.Options().MenuKey
	return ui.Prompt{
		Text: welcomeText,
		Rows: [][]ui.Option{
			{
				{Text: labelFind, Unique: a.search.Options().CallbackKey},
				{Text: labelAdd, Unique: key, Data: menuPublish},
			},
			{
				{Text: labelStats, Unique: key, Data: menuStats},
				{Text: labelHelp, Unique: key, Data: menuHelp},
			},
		},
	}
}

func (a *App) homeRow() []ui.Option {
	return []ui.Option{{Text: "🏠 Главное меню", Unique: a.search.Options().MenuKey, Data: menuHome}}
}

// register fills the registry and binds the intake states to their handler.
func (a *App) register() error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: a.onStart, Description: "Главное меню"}},
		{"/help", commands.Command{Handler: a.onHelp, Description: "Справка по командам", Aliases: []string{labelHelp}}},
		{"/find", commands.Command{Handler: a.onFind, Description: "Найти автомобили по фильтрам", Aliases: []string{labelFind}}},
		{"/publish", commands.Command{Handler: a.onPublish, Description: "Добавить новый автомобиль", Aliases: []string{labelAdd}}},
		{"/cancel", commands.Command{Handler: a.onCancel, Description: "Отменить добавление"}},
		{"/stats", commands.Command{Handler: a.onStats, Description: "Статистика базы данных", Aliases: []string{labelStats}}},
		{"/publish_all", commands.Command{Handler: a.onPublishAll, Description: "Опубликовать готовые объявления", AdminOnly: true}},
	}
	for _, c := range cmds {
		if err := a.registry.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}

	iopts := a.intake.Options()
	cbs := map[string]tele.HandlerFunc{
		a.search.Options().CallbackKey: a.onFilter,
		a.search.Options().MenuKey:     a.onMenu,
		iopts.PickKey:                  a.onIntakePick,
		iopts.ConfirmKey:               middleware.State(a.sessions, intake.StepConfirm)(a.onIntakeConfirm),
		iopts.CancelKey:                a.onIntakeCancel,
	}
	for key, h := range cbs {
		if err := a.registry.RegisterCallback(key, h); err != nil {
			return err
		}
	}

	a.registry.SetCallbackNotFound(a.UnknownCallback())

	for _, st := range intake.States() {
		a.sessions.RegisterHandler(st, a.onIntakeText)
	}
	return nil
}

func (a *App) onStart(c tele.Context) error {
	return tghelpers.SendHTML(c, welcomeText, mainKeyboard())
}

func (a *App) onHelp(c tele.Context) error {
	return ui.Show(c, ui.Prompt{Text: helpText, Rows: [][]ui.Option{a.homeRow()}})
}

func (a *App) onFind(c tele.Context) error {
	return ui.Show(c, a.search.Start(tghelpers.BuildContext(c)))
}

func (a *App) onFilter(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return ui.Show(c, a.search.Advance(ctx, callbacks.CallbackPayload(c)))
}

func (a *App) onMenu(c tele.Context) error {
	switch callbacks.CallbackPayload(c) {
	case menuPublish:
		return a.onPublish(c)
	case menuStats:
		return a.onStats(c)
	case menuHelp:
		return a.onHelp(c)
	default:
		return ui.Show(c, a.menuPrompt())
	}
}

func (a *App) onStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	records, err := a.store.FetchAll(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompApp, "stats",
			slog.String("err_code", logger.ErrCode(err, "STORE")),
			logger.Err(err),
		)
		return tghelpers.SendText(c, "❌ Ошибка при получении статистики")
	}
	text := stats.Summarize(records).Render()
	return ui.Show(c, ui.Prompt{Text: text, Rows: [][]ui.Option{a.homeRow()}})
}

func (a *App) onPublish(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.showIntake(c, a.intake.Start(ctx, tghelpers.SenderID(c)))
}

func (a *App) onCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	res := a.intake.Cancel(ctx, tghelpers.SenderID(c))
	return tghelpers.SendHTML(c, res.Prompt.Text, mainKeyboard())
}

func (a *App) onIntakeText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.showIntake(c, a.intake.Handle(ctx, tghelpers.SenderID(c), c.Text()))
}

func (a *App) onIntakePick(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.showIntake(c, a.intake.Pick(ctx, tghelpers.SenderID(c), callbacks.CallbackPayload(c)))
}

func (a *App) onIntakeConfirm(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.showIntake(c, a.intake.Confirm(ctx, tghelpers.SenderID(c)))
}

func (a *App) onIntakeCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.showIntake(c, a.intake.Cancel(ctx, tghelpers.SenderID(c)))
}

// showIntake renders a wizard result. Suggestion picks edit their message;
// everything else, including replies to the photo confirm card, is sent fresh.
func (a *App) showIntake(c tele.Context, res intake.Result) error {
	if res.Prompt.Text == "" {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Действие устарело"})
		}
		return nil
	}
	switch res.Outcome {
	case intake.OutcomeCommitted, intake.OutcomeCancelled, intake.OutcomeFailed:
		return tghelpers.SendHTML(c, res.Prompt.Text, mainKeyboard())
	}
	if callbacks.CallbackKey(c) == a.intake.Options().PickKey {
		return ui.Show(c, res.Prompt)
	}
	return ui.Send(c, res.Prompt)
}

func (a *App) onPublishAll(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	s := a.sender()
	if s == nil {
		return errors.New("app: bot is not running")
	}
	_ = tghelpers.SendText(c, "⏳ Публикую готовые объявления…")

	rep, err := a.pub.PublishReady(ctx, s)
	switch {
	case errors.Is(err, publisher.ErrBusy):
		return tghelpers.SendText(c, "⏳ Публикация уже идёт.")
	case errors.Is(err, publisher.ErrNoChannel):
		return tghelpers.SendText(c, "⚠️ Канал для публикации не настроен.")
	case err != nil:
		_ = tghelpers.SendText(c, "❌ Ошибка при публикации.")
		return err
	case rep.Published == 0 && rep.Failed == 0:
		return tghelpers.SendText(c, "Нет объявлений, готовых к публикации.")
	}
	return tghelpers.SendHTML(c, fmt.Sprintf("✅ Опубликовано: <b>%d</b>\n❌ Ошибок: <b>%d</b>", rep.Published, rep.Failed))
}

func (a *App) onAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, "⛔ Команда доступна только администратору.")
}

func (a *App) onRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Слишком часто, подождите секунду"})
	}
	return tghelpers.SendText(c, "⏳ Слишком много запросов, подождите немного.")
}

// UnknownText implements ui.FallbackProvider.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendHTML(c, "Не понимаю. Выберите действие в меню или отправьте /help.", mainKeyboard())
	}
}

// UnknownCallback implements ui.FallbackProvider.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Кнопка устарела, откройте /start"})
	}
}

// mediaRoute feeds photos and files sent mid-intake to the wizard as their caption,
// so the current step answers with its hint instead of staying silent.
func (a *App) mediaRoute(endpoint string) tg.Route {
	h := func(c tele.Context) error {
		uid := tghelpers.SenderID(c)
		if !a.intake.Active(uid) {
			return nil
		}
		caption := ""
		if m := c.Message(); m != nil {
			caption = m.Caption
		}
		return a.showIntake(c, a.intake.Handle(tghelpers.BuildContext(c), uid, caption))
	}
	return tg.Route{
		Endpoint: endpoint,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
	}
}
