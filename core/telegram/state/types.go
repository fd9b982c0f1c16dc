package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session is a snapshot of one user's conversation.
type Session struct {
	State     State
	Data      map[string]any
	UpdatedAt time.Time
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	Get(userID int64) Session
	SetState(userID int64, st State)
	GetState(userID int64) State
	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	Clear(userID int64)
	// Touch renews the idle window of an existing session.
	Touch(userID int64)

	InProgress(userID int64) bool
	RegisterHandler(st State, h tele.HandlerFunc)
	ManagerHandler(c tele.Context) error
}
