package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/zalogbot/core/logger"
	"github.com/m3rciful/zalogbot/core/telegram/state"
	"github.com/m3rciful/zalogbot/core/telegram/ui"
	"github.com/m3rciful/zalogbot/internal/listing"
)

// maxCallbackData is Telegram's limit for callback_data, in bytes.
const maxCallbackData = 64

func (w *Wizard) question(st state.State) string {
	switch st {
	case StepBrand:
		return "Введите марку автомобиля, например: Chevrolet"
	case StepModel:
		return "Введите модель автомобиля:"
	case StepYear:
		return fmt.Sprintf("Введите год выпуска (от %d до %d):", w.opts.MinYear, w.maxYear())
	case StepPrice:
		return "Введите цену, например: 135 млн"
	case StepCity:
		return "Введите город:"
	case StepPhoto:
		return "Отправьте ссылку на фото. Несколько ссылок указывайте через запятую."
	case StepPhone:
		return fmt.Sprintf("Введите номер телефона в формате %sXXXXXXXXX:", w.opts.PhonePrefix)
	case StepContact:
		return "Введите Telegram-ник продавца:"
	case StepLink:
		return "Отправьте ссылку на лот или «-», если её нет:"
	}
	return "Всё верно?"
}

// prompt renders step st with the running summary and an optional hint line.
func (w *Wizard) prompt(ctx context.Context, st state.State, p Partial, hint string) ui.Prompt {
	var b strings.Builder
	if st == StepConfirm {
		b.WriteString("📋 <b>Проверьте объявление</b>")
	} else {
		fmt.Fprintf(&b, "➕ <b>Новое объявление</b> · шаг %d из %d", index(st)+1, inputSteps)
	}
	if summary := p.Summary(); summary != "" {
		b.WriteString("\n\n" + summary)
	}
	if hint != "" {
		b.WriteString("\n\n" + hint)
	}
	b.WriteString("\n\n" + w.question(st))

	cancel := ui.Option{Text: "❌ Отменить", Unique: w.opts.CancelKey}
	if st == StepConfirm {
		return ui.Prompt{
			Text:  b.String(),
			Photo: listing.Record{PhotoURL: p.PhotoURL}.PrimaryPhoto(),
			Rows:  [][]ui.Option{{{Text: "✅ Подтвердить", Unique: w.opts.ConfirmKey}, cancel}},
		}
	}

	var picks []ui.Option
	switch st {
	case StepModel:
		picks = w.suggest(ctx, st, listing.FieldModel, listing.Criteria{Brand: p.Brand})
	case StepCity:
		picks = w.suggest(ctx, st, listing.FieldCity, listing.Criteria{})
	case StepLink:
		picks = []ui.Option{w.pick(st, "-", "Без ссылки")}
	}
	rows := ui.Grid(picks, 2)
	rows = append(rows, []ui.Option{cancel})
	return ui.Prompt{Text: b.String(), Rows: rows}
}

// suggest offers existing values of f among records matching c. Store failures
// only cost the suggestions.
func (w *Wizard) suggest(ctx context.Context, st state.State, f listing.Field, c listing.Criteria) []ui.Option {
	records, err := w.store.FetchAll(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompIntake, "suggest.failed",
			slog.String("step", short(st)),
			logger.Err(err),
		)
		return nil
	}
	var out []ui.Option
	for _, v := range listing.Distinct(listing.Filter(ctx, records, c), f) {
		if len(out) == w.opts.SuggestionCap {
			break
		}
		opt := w.pick(st, v, v)
		if len("\f"+opt.Unique+"|"+opt.Data) > maxCallbackData {
			continue
		}
		out = append(out, opt)
	}
	return out
}

func (w *Wizard) pick(st state.State, value, text string) ui.Option {
	return ui.Option{Text: text, Unique: w.opts.PickKey, Data: short(st) + ":" + value}
}
