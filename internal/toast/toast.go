// Package toast keeps short-lived status messages such as "Copied" or
// "Activation failed" and expires them after their duration.
package toast

import (
	"cmp"
	"crypto/rand"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/histshell/internal/eventloop"
)

// Type is the severity of a toast.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
)

// DefaultDuration applies when Show is given a non-positive duration.
const DefaultDuration = 3 * time.Second

// Toast is one message.
type Toast struct {
	ID        string
	Message   string
	Type      Type
	Duration  time.Duration
	CreatedAt time.Time
}

// Handler receives toast events. Either field may be nil.
type Handler struct {
	Added   func(Toast)
	Removed func(Toast)
}

type entry struct {
	toast Toast
	timer eventloop.Timer
}

// Manager holds the active toasts. It is safe for concurrent use; handlers
// are called without the lock held.
type Manager struct {
	scheduler eventloop.Scheduler
	logger    *slog.Logger
	now       func() time.Time

	mu          sync.Mutex
	toasts      map[string]*entry
	handlers    map[int]Handler
	nextHandler int
}

// NewManager creates a manager. With a nil scheduler toasts stay until
// dismissed.
func NewManager(scheduler eventloop.Scheduler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
		toasts:    make(map[string]*entry),
		handlers:  make(map[int]Handler),
	}
}

// Subscribe registers h and returns a function that removes it.
func (m *Manager) Subscribe(h Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.nextHandler
	m.nextHandler++
	m.handlers[key] = h
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, key)
	}
}

func newID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return fmt.Sprintf("toast-%d", now.UnixNano())
	}
	return id.String()
}

// Show adds a toast and returns its id.
func (m *Manager) Show(message string, typ Type, duration time.Duration) string {
	if duration <= 0 {
		duration = DefaultDuration
	}
	now := m.now()
	t := Toast{
		ID:        newID(now),
		Message:   message,
		Type:      typ,
		Duration:  duration,
		CreatedAt: now,
	}

	e := &entry{toast: t}
	m.mu.Lock()
	m.toasts[t.ID] = e
	if m.scheduler != nil {
		e.timer = m.scheduler.AfterFunc(duration, func() { m.Dismiss(t.ID) })
	}
	handlers := m.snapshotHandlers()
	m.mu.Unlock()

	m.logger.Debug("toast shown", "id", t.ID, "type", typ, "message", message)
	for _, h := range handlers {
		if h.Added != nil {
			h.Added(t)
		}
	}
	return t.ID
}

// Success shows a success toast.
func (m *Manager) Success(message string) string { return m.Show(message, TypeSuccess, 0) }

// Error shows an error toast.
func (m *Manager) Error(message string) string { return m.Show(message, TypeError, 0) }

// Info shows an info toast.
func (m *Manager) Info(message string) string { return m.Show(message, TypeInfo, 0) }

// Warning shows a warning toast.
func (m *Manager) Warning(message string) string { return m.Show(message, TypeWarning, 0) }

// Dismiss removes a toast. Unknown ids are ignored.
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	e, ok := m.toasts[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.toasts, id)
	if e.timer != nil {
		e.timer.Stop()
	}
	handlers := m.snapshotHandlers()
	m.mu.Unlock()

	for _, h := range handlers {
		if h.Removed != nil {
			h.Removed(e.toast)
		}
	}
}

// Get returns the toast with id.
func (m *Manager) Get(id string) (Toast, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.toasts[id]
	if !ok {
		return Toast{}, false
	}
	return e.toast, true
}

// All returns the active toasts, oldest first.
func (m *Manager) All() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, 0, len(m.toasts))
	for _, e := range m.toasts {
		out = append(out, e.toast)
	}
	slices.SortFunc(out, func(a, b Toast) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (m *Manager) snapshotHandlers() []Handler {
	keys := slices.Sorted(maps.Keys(m.handlers))
	out := make([]Handler, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.handlers[k])
	}
	return out
}
