package publisher

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/telegram/format"
	"github.com/m3rciful/zalogbot/core/telegram/keyboard"
	"github.com/m3rciful/zalogbot/internal/listing"
)

// placeholderLink is the lot link that demo rows carry; it gets no button.
const placeholderLink = "https://example.com/lot"

// Caption renders the channel post text for r in HTML parse mode.
func Caption(r listing.Record) string {
	price := strings.TrimSpace(r.Price)
	if price == "" {
		price = "Цена по запросу"
	}
	lines := []string{
		fmt.Sprintf("🚗 <b>#%s - %s</b>", r.Tag(), format.Escape(r.Title())),
		"",
		fmt.Sprintf("📅 <b>Год выпуска:</b> %d", r.Year),
		"📍 <b>Город:</b> " + format.Escape(r.City),
		"💰 <b>Цена:</b> " + format.Escape(price),
	}
	if r.Phone != "" {
		lines = append(lines, "📞 <b>Телефон:</b> "+format.Escape(r.Phone))
	}
	if h := handle(r.Contact); h != "" {
		lines = append(lines, "✉️ <b>Telegram:</b> @"+format.Escape(h))
	}
	lines = append(lines,
		"",
		"🔧 <b>Состояние:</b> Проверено специалистами",
		"",
		"🚗 <b>Залоговые автомобили от банков</b>",
		"💼 <b>Официальные документы</b>",
	)
	return strings.Join(lines, "\n")
}

// Buttons returns the URL buttons of the post, or nil when r has no usable contacts.
func Buttons(r listing.Record) *tele.ReplyMarkup {
	var btns []keyboard.InlineBtn
	if link := strings.TrimSpace(r.Link); link != "" && link != placeholderLink {
		btns = append(btns, keyboard.InlineBtn{Text: "🔗 Подробнее", URL: link})
	}
	if phone := strings.TrimSpace(r.Phone); strings.HasPrefix(phone, "+") {
		btns = append(btns, keyboard.InlineBtn{Text: "📞 Позвонить", URL: "https://t.me/share/url?url=tel:" + phone})
	}
	if h := handle(r.Contact); h != "" {
		btns = append(btns, keyboard.InlineBtn{Text: "✉️ Написать", URL: "https://t.me/" + h})
	}
	return keyboard.InlineButtonsRows(keyboard.Chunk(btns, 2)...)
}

func handle(contact string) string {
	return strings.TrimPrefix(strings.TrimSpace(contact), "@")
}
