package state

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/zalogbot/core/logger"
	tghelpers "github.com/m3rciful/zalogbot/core/telegram/helpers"
)

const (
	// DefaultTTL is the idle window after which a session is dropped.
	DefaultTTL = 30 * time.Minute
	// DefaultSize caps the number of concurrently tracked users.
	DefaultSize = 10_000
)

// Options tune NewMemoryManager. Zero values use the defaults.
type Options struct {
	TTL  time.Duration
	Size int
}

type memoryManager struct {
	mu       sync.Mutex
	sessions *expirable.LRU[int64, *Session]

	handlersMu sync.RWMutex
	handlers   map[State]tele.HandlerFunc
}

// NewMemoryManager returns a Manager keeping sessions in process memory.
func NewMemoryManager(opts Options) Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	onEvict := func(userID int64, s *Session) {
		if s == nil || s.State == StateIdle {
			return
		}
		logger.Debug(context.Background(), logger.CompTG, "fsm.session.dropped",
			slog.Int64("user_id", userID),
			slog.String("step", string(s.State)),
		)
	}
	return &memoryManager{
		sessions: expirable.NewLRU[int64, *Session](opts.Size, onEvict, opts.TTL),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// mutate applies fn to the user's session and re-adds it, which refreshes the TTL.
func (m *memoryManager) mutate(userID int64, fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions.Get(userID)
	if !ok {
		sess = &Session{State: StateIdle, Data: make(map[string]any)}
	}
	fn(sess)
	sess.UpdatedAt = time.Now()
	m.sessions.Add(userID, sess)
}

func (m *memoryManager) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions.Get(userID)
	if !ok {
		return Session{State: StateIdle, Data: map[string]any{}}
	}
	out := *sess
	out.Data = maps.Clone(sess.Data)
	return out
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.mutate(userID, func(s *Session) { s.State = st })
}

func (m *memoryManager) GetState(userID int64) State {
	return m.Get(userID).State
}

func (m *memoryManager) SetTemp(userID int64, key string, value any) {
	m.mutate(userID, func(s *Session) { s.Data[key] = value })
}

func (m *memoryManager) GetTemp(userID int64, key string) (any, bool) {
	v, ok := m.Get(userID).Data[key]
	return v, ok
}

func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Remove(userID)
}

func (m *memoryManager) Touch(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions.Get(userID)
	if !ok {
		return
	}
	sess.UpdatedAt = time.Now()
	m.sessions.Add(userID, sess)
}

func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// RegisterHandler binds h to text updates arriving while a user is in st.
func (m *memoryManager) RegisterHandler(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	m.handlers[st] = h
}

// ManagerHandler runs the handler registered for the sender's current state.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	ctx := tghelpers.BuildContext(c)

	m.handlersMu.RLock()
	handler, ok := m.handlers[current]
	m.handlersMu.RUnlock()

	if !ok {
		logger.Debug(ctx, logger.CompTG, "fsm.dispatch",
			slog.String("status", "skip"),
			slog.String("step", string(current)),
		)
		return nil
	}
	logger.Debug(ctx, logger.CompTG, "fsm.dispatch",
		slog.String("status", "ok"),
		slog.String("step", string(current)),
	)
	return handler(c)
}
