package listing

import (
	"fmt"
	"strings"
)

// Status is the publication lifecycle of a listing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReady     Status = "ready"
	StatusPublished Status = "published"
)

// ParseStatus accepts a canonical status or one of the labels the listing
// sheet used before statuses were normalised.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StatusDraft), "черновик":
		return StatusDraft, nil
	case string(StatusReady), "готово", "готово к публикации":
		return StatusReady, nil
	case string(StatusPublished), "опубликовано", "✅ опубликовано":
		return StatusPublished, nil
	}
	return "", fmt.Errorf("listing: unknown status %q", raw)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReady, StatusPublished:
		return true
	}
	return false
}

// CanTransition reports whether s may move to next. Only draft->ready and ready->published are allowed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusReady
	case StatusReady:
		return next == StatusPublished
	}
	return false
}

// Label returns the human readable form shown in the bot.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "📝 Черновик"
	case StatusReady:
		return "🕓 Готово к публикации"
	case StatusPublished:
		return "✅ Опубликовано"
	}
	return string(s)
}
