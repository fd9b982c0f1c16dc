package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/find", commands.Command{Handler: noop, Description: "Поиск", Aliases: []string{"🔍 Найти авто"}}); err != nil {
		t.Fatalf("RegisterCommand: %v", err)
	}
	if err := reg.RegisterCommand("/publish_all", commands.Command{Handler: noop, Description: "Публикация", AdminOnly: true}); err != nil {
		t.Fatalf("RegisterCommand: %v", err)
	}
	if err := reg.RegisterCommand("/find", commands.Command{Handler: noop, Description: "dup"}); err == nil {
		t.Fatal("duplicate command must fail")
	}
	if err := reg.RegisterCommand("find", commands.Command{Handler: noop, Description: "x"}); err == nil {
		t.Fatal("command without slash must fail")
	}

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/find" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if name, _, ok := reg.LookupCommand("🔍 найти авто"); !ok || name != "/find" {
		t.Fatalf("alias lookup = %q, %v", name, ok)
	}
	if _, _, ok := reg.LookupCommand("hello"); ok {
		t.Fatal("unexpected match for plain text")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("flt", noop); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	if err := reg.RegisterCallback("flt", noop); err == nil {
		t.Fatal("duplicate callback must fail")
	}
	if _, ok := reg.GetCallback("flt"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "flt" {
		t.Fatalf("ListCallbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler missing")
	}
}
