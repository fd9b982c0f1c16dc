// Package commands describes bot commands for the registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command represents a bot command with its handler, description and metadata.
// Aliases are plain texts, such as reply-keyboard labels, that trigger the same handler.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
