package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/zalogbot/core/telegram/format"
	"github.com/m3rciful/zalogbot/core/telegram/ui"
	"github.com/m3rciful/zalogbot/internal/listing"
)

const perRow = 2

var stepQuestions = map[Step]string{
	StepBrand:  "🚗 Выберите марку:",
	StepModel:  "🚙 Выберите модель:",
	StepYear:   "📅 Выберите год выпуска:",
	StepCity:   "📍 Выберите город:",
	StepPrice:  "💰 Выберите максимальную цену:",
	StepStatus: "📢 Какие объявления показать?",
}

var stepFallbacks = map[Step]string{
	StepBrand: "Все марки",
	StepModel: "Все модели",
	StepYear:  "Все годы",
	StepCity:  "Все города",
	StepPrice: "Любая цена",
}

func (w *Wizard) option(text string, tokens []string, tok string) ui.Option {
	path := append(append(make([]string, 0, len(tokens)+1), tokens...), tok)
	return ui.Option{Text: text, Unique: w.opts.CallbackKey, Data: EncodePath(path)}
}

func (w *Wizard) choicePrompt(st Step, sel selection, values []string) ui.Prompt {
	var opts []ui.Option
	switch st {
	case StepPrice:
		for _, b := range w.opts.PriceBuckets {
			opts = append(opts, w.option(listing.FormatBucket(b), sel.tokens, strconv.Itoa(b)))
		}
	case StepStatus:
		opts = append(opts,
			w.option("Только неопубликованные", sel.tokens, StatusUnpublished),
			w.option("Все", sel.tokens, StatusAll),
		)
	default:
		if limit := w.opts.cap(st); len(values) > limit {
			values = values[:limit]
		}
		for _, v := range values {
			opts = append(opts, w.option(v, sel.tokens, EncodeValue(v)))
		}
	}

	rows := ui.Grid(opts, perRow)
	if fb, ok := stepFallbacks[st]; ok {
		rows = append(rows, []ui.Option{w.option(fb, sel.tokens, Any)})
	}
	rows = append(rows, []ui.Option{w.menuOption()})

	text := stepQuestions[st]
	if summary := summarize(sel.criteria, st); summary != "" {
		text = summary + "\n\n" + text
	}
	return ui.Prompt{Text: text, Rows: rows}
}

// summarize lists the choices made before step st.
func summarize(c listing.Criteria, st Step) string {
	if st == StepBrand {
		return ""
	}
	anyOr := func(v string) string {
		if v == "" {
			return "любая"
		}
		return format.Escape(v)
	}
	lines := []string{"<b>Ваш выбор</b>", "Марка: " + anyOr(c.Brand)}
	if st > StepModel {
		lines = append(lines, "Модель: "+anyOr(c.Model))
	}
	if st > StepYear {
		year := ""
		if c.Year > 0 {
			year = strconv.Itoa(c.Year)
		}
		lines = append(lines, "Год: "+anyOr(year))
	}
	if st > StepCity {
		lines = append(lines, "Город: "+anyOr(c.City))
	}
	if st > StepPrice {
		price := ""
		if c.MaxPrice > 0 {
			price = listing.FormatBucket(c.MaxPrice)
		}
		lines = append(lines, "Цена: "+anyOr(price))
	}
	return strings.Join(lines, "\n")
}

func (w *Wizard) menuOption() ui.Option {
	return ui.Option{Text: "🏠 Главное меню", Unique: w.opts.MenuKey}
}

func (w *Wizard) finalRows() [][]ui.Option {
	return [][]ui.Option{{
		{Text: "🔄 Новый поиск", Unique: w.opts.CallbackKey},
		w.menuOption(),
	}}
}

func (w *Wizard) expiredPrompt() ui.Prompt {
	return ui.Prompt{Text: "⌛ Этот выбор устарел. Начните поиск заново.", Rows: w.finalRows()}
}

func (w *Wizard) storeFailurePrompt() ui.Prompt {
	return ui.Prompt{Text: "⚠️ Не удалось загрузить объявления. Попробуйте позже.", Rows: w.finalRows()}
}

func (w *Wizard) notFoundPrompt(c listing.Criteria) ui.Prompt {
	return ui.Prompt{
		Text: summarize(c, StepResults) + "\n\n❌ По вашему запросу ничего не найдено.",
		Rows: w.finalRows(),
	}
}

func (w *Wizard) resultsPrompt(c listing.Criteria, matched []listing.Record) ui.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n🔍 <b>Найдено %d автомобилей</b>\n", summarize(c, StepResults), len(matched))
	shown := matched
	if len(shown) > w.opts.ResultLimit {
		shown = shown[:w.opts.ResultLimit]
	}
	for i, r := range shown {
		b.WriteString("\n")
		b.WriteString(formatItem(i+1, r))
	}
	if rest := len(matched) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n\n… и ещё %d не показано", rest)
	}
	return ui.Prompt{Text: b.String(), Rows: w.finalRows()}
}

func formatItem(n int, r listing.Record) string {
	head := fmt.Sprintf("%d. %s", n, format.Bold(r.Title()))
	if r.Year > 0 {
		head += fmt.Sprintf(" (%d)", r.Year)
	}
	var meta, contact []string
	if r.City != "" {
		meta = append(meta, "📍 "+format.Escape(r.City))
	}
	if r.Price != "" {
		meta = append(meta, "💰 "+format.Escape(r.Price))
	}
	if r.Phone != "" {
		contact = append(contact, "📞 "+format.Escape(r.Phone))
	}
	if r.Contact != "" {
		contact = append(contact, "@"+format.Escape(r.Contact))
	}
	status := ""
	if r.Status == listing.StatusPublished {
		status = r.Status.Label()
	}
	return format.Lines(head, indent(meta...), indent(contact...), indent(status))
}

// indent joins parts with a middle dot under a result head; empty parts yield "".
func indent(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "   " + strings.Join(kept, " · ")
}
