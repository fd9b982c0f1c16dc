// Package format renders text for Telegram's HTML parse mode.
package format

import (
	"html"
	"strings"
)

// Escape escapes s for HTML parse mode.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold wraps the escaped s in <b>.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// Lines joins non-empty lines with newlines.
func Lines(lines ...string) string {
	kept := lines[:0:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
