// Package ui holds transport-neutral prompts and renders them to Telegram.
package ui

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/zalogbot/core/telegram/helpers"
	"github.com/m3rciful/zalogbot/core/telegram/keyboard"
)

// Option is one selectable choice. URL options open a link instead of
// producing a callback.
type Option struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

// Prompt is a message with an optional photo and option grid.
// Text is HTML.
type Prompt struct {
	Text  string
	Rows  [][]Option
	Photo string
}

// Grid lays opts out in rows of perRow.
func Grid(opts []Option, perRow int) [][]Option {
	return keyboard.Chunk(opts, perRow)
}

// Options flattens the prompt's rows.
func (p Prompt) Options() []Option {
	var out []Option
	for _, r := range p.Rows {
		out = append(out, r...)
	}
	return out
}

// Markup converts the option grid to an inline keyboard, or nil when empty.
func (p Prompt) Markup() *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(p.Rows))
	for _, r := range p.Rows {
		row := make([]keyboard.InlineBtn, 0, len(r))
		for _, o := range r {
			row = append(row, keyboard.InlineBtn{Text: o.Text, Unique: o.Unique, Data: o.Data, URL: o.URL})
		}
		rows = append(rows, row)
	}
	return keyboard.InlineButtonsRows(rows...)
}

// Send delivers p as a new message.
func Send(c tele.Context, p Prompt) error {
	if p.Photo != "" {
		return tghelpers.SendPhotoHTML(c, p.Photo, p.Text, p.Markup())
	}
	return tghelpers.SendHTML(c, p.Text, p.Markup())
}

// Show edits the message behind a callback in place, or sends p when there is
// nothing to edit. Photo prompts are always sent fresh.
func Show(c tele.Context, p Prompt) error {
	if p.Photo != "" || c.Callback() == nil {
		return Send(c, p)
	}
	return tghelpers.EditOrSendHTML(c, p.Text, p.Markup())
}
