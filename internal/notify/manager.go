package notify

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/model"
)

// PopupState describes one active popup.
type PopupState struct {
	ID     uint32 `json:"id"`
	Offset int    `json:"offset"`
	Height int    `json:"height"`
	Paused bool   `json:"paused"`
}

type popup struct {
	id     uint32
	panel  Panel
	height int
	offset int

	timer  eventloop.Timer
	token  uint64
	paused bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithHeightFunc replaces the popup height heuristic.
func WithHeightFunc(f HeightFunc) Option {
	return func(m *Manager) {
		if f != nil {
			m.height = f
		}
	}
}

// Manager owns the notification history and the popup stack.
//
// All methods must be called on the event goroutine that also delivers
// source events and scheduler callbacks.
type Manager struct {
	source    Source
	presenter Presenter
	scheduler eventloop.Scheduler
	logger    *slog.Logger
	height    HeightFunc

	cfg     config.NotificationsConfig
	history *History

	// popups are kept in creation order.
	popups    []*popup
	nextToken uint64

	unsubscribe  func()
	observers    map[int]func()
	nextObserver int
	closed       bool
}

// NewManager creates a manager, seeds its history from source and subscribes
// to source events. A nil source leaves the manager in a degraded mode with
// permanently empty history. A nil presenter tracks popups without drawing
// them.
func NewManager(source Source, presenter Presenter, scheduler eventloop.Scheduler, cfg config.NotificationsConfig, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		source:    source,
		presenter: presenter,
		scheduler: scheduler,
		logger:    logger,
		height:    EstimateHeight,
		cfg:       cfg,
		history:   NewHistory(cfg.HistoryLength),
		observers: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(m)
	}

	if source == nil {
		logger.Warn("notification manager running without history", "error", ErrSourceUnavailable)
		return m
	}

	m.seed(source.Notifications())
	m.unsubscribe = source.Subscribe(SourceHandler{
		Notified: m.OnNotify,
		Resolved: m.onResolved,
	})

	logger.Debug("notification manager initialized", "history", m.history.Len())
	return m
}

func (m *Manager) seed(existing []*model.Notification) {
	if len(existing) == 0 {
		return
	}
	sorted := slices.Clone(existing)
	slices.SortStableFunc(sorted, func(a, b *model.Notification) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	for _, n := range sorted {
		m.history.Prepend(n)
	}
	m.logger.Info("loaded existing notifications", "count", len(existing), "kept", m.history.Len())
}

// OnNotify handles a notification announced by the source: it enters
// history and gets a popup, evicting the oldest popup if the stack is full.
// A notification that replaces one with the same id supersedes its history
// entry and popup.
func (m *Manager) OnNotify(id uint32) {
	if m.closed || m.source == nil {
		return
	}

	n, ok := m.source.Notification(id)
	if !ok {
		m.logger.Warn("notification not found at source", "id", id)
		return
	}

	m.logger.Debug("new notification", "id", id, "app", n.AppName, "summary", n.Summary)

	m.history.Remove(id)
	m.DismissPopup(id)
	for _, evicted := range m.history.Prepend(n) {
		m.logger.Debug("notification aged out of history", "id", evicted.ID)
	}
	m.emitHistoryChanged()

	limit := max(m.cfg.MaxVisiblePopups, 1)
	for len(m.popups) >= limit {
		m.logger.Debug("evicting oldest popup", "id", m.popups[0].id)
		m.DismissPopup(m.popups[0].id)
	}

	m.showPopup(n)
}

func (m *Manager) showPopup(n *model.Notification) {
	content := newPanelContent(n, m.cfg.ShowActions)
	content.Height = m.height(content)
	y := m.stackHeight()

	var panel Panel
	if m.presenter != nil {
		var err error
		panel, err = m.presenter.CreatePanel(content, y)
		if err != nil {
			m.logger.Error("failed to create popup", "id", n.ID, "error", err)
			return
		}
	}

	p := &popup{id: n.ID, panel: panel, height: content.Height, offset: y}
	m.popups = append(m.popups, p)
	m.arm(p)

	m.logger.Debug("popup created", "id", n.ID, "offset", y, "height", p.height)
}

func (m *Manager) stackHeight() int {
	total := 0
	for _, p := range m.popups {
		total += p.height + m.cfg.PopupSpacing
	}
	return total
}

func (m *Manager) arm(p *popup) {
	timeout := m.cfg.PopupTimeout.Duration()
	if timeout <= 0 || m.scheduler == nil {
		return
	}

	m.nextToken++
	token := m.nextToken
	id := p.id
	p.token = token
	p.timer = m.scheduler.AfterFunc(timeout, func() {
		m.expire(id, token)
	})
}

func (m *Manager) disarm(p *popup) {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.token = 0
}

// expire runs when a dismiss timer fires. Firings from a timer that was
// stopped or re-armed are ignored.
func (m *Manager) expire(id uint32, token uint64) {
	i := m.indexOf(id)
	if i < 0 || m.popups[i].token != token {
		return
	}
	m.logger.Debug("popup expired", "id", id)
	m.DismissPopup(id)
}

func (m *Manager) indexOf(id uint32) int {
	return slices.IndexFunc(m.popups, func(p *popup) bool { return p.id == id })
}

// DismissPopup hides the popup for id and closes the gap it leaves. The
// notification stays in history. Unknown ids are ignored.
func (m *Manager) DismissPopup(id uint32) {
	i := m.indexOf(id)
	if i < 0 {
		return
	}

	p := m.popups[i]
	m.disarm(p)
	if p.panel != nil && m.presenter != nil {
		m.presenter.DestroyPanel(p.panel)
	}
	m.popups = slices.Delete(m.popups, i, i+1)
	m.reflow()

	m.logger.Debug("popup dismissed", "id", id, "remaining", len(m.popups))
}

// reflow recomputes offsets in creation order and moves panels whose offset
// changed.
func (m *Manager) reflow() {
	offset := 0
	for _, p := range m.popups {
		if p.offset != offset {
			p.offset = offset
			if p.panel != nil && m.presenter != nil {
				m.presenter.Reposition(p.panel, offset)
			}
		}
		offset += p.height + m.cfg.PopupSpacing
	}
}

// SetPopupHeight records the measured height of a popup and restacks.
func (m *Manager) SetPopupHeight(id uint32, height int) {
	i := m.indexOf(id)
	if i < 0 || height <= 0 || m.popups[i].height == height {
		return
	}
	m.popups[i].height = height
	m.reflow()
}

// PausePopup suspends the dismiss timer of id while the pointer is over it.
func (m *Manager) PausePopup(id uint32) {
	i := m.indexOf(id)
	if i < 0 {
		return
	}
	p := m.popups[i]
	if p.timer == nil || p.paused {
		return
	}
	m.disarm(p)
	p.paused = true
	m.logger.Debug("popup paused", "id", id)
}

// ResumePopup restarts the full dismiss timeout of a paused popup.
func (m *Manager) ResumePopup(id uint32) {
	i := m.indexOf(id)
	if i < 0 {
		return
	}
	p := m.popups[i]
	if !p.paused {
		return
	}
	p.paused = false
	m.arm(p)
	m.logger.Debug("popup resumed", "id", id)
}

// InvokeAction forwards an action to the source and dismisses the popup.
func (m *Manager) InvokeAction(id uint32, actionKey string) {
	if m.source != nil {
		if err := m.source.Invoke(id, actionKey); err != nil {
			m.logger.Warn("failed to invoke action", "id", id, "action", actionKey, "error", err)
		}
	}
	m.DismissPopup(id)
}

func (m *Manager) onResolved(id uint32) {
	if m.closed {
		return
	}
	m.logger.Debug("notification resolved", "id", id)
	m.DismissPopup(id)
}

// RemoveFromHistory drops one entry from history. Its popup, if any, stays.
func (m *Manager) RemoveFromHistory(id uint32) {
	if m.history.Remove(id) {
		m.emitHistoryChanged()
	}
}

// DismissNotification closes a notification completely: at the source, on
// screen and in history. A source that already forgot the id is not an
// error.
func (m *Manager) DismissNotification(id uint32) {
	if m.source != nil {
		if err := m.source.Dismiss(id); err != nil {
			m.logger.Debug("source dismiss ignored", "id", id, "error", err)
		}
	}
	m.DismissPopup(id)
	m.RemoveFromHistory(id)
}

// ClearHistory empties history without touching the source.
func (m *Manager) ClearHistory() {
	if m.history.Len() == 0 {
		return
	}
	m.history.Clear()
	m.emitHistoryChanged()
}

// ClearAllHistory dismisses every history entry at the source, then empties
// history. Individual dismiss failures are ignored.
func (m *Manager) ClearAllHistory() {
	items := m.history.Clear()
	if m.source != nil {
		for _, n := range items {
			if err := m.source.Dismiss(n.ID); err != nil {
				m.logger.Debug("source dismiss ignored", "id", n.ID, "error", err)
			}
		}
	}
	m.logger.Info("cleared notification history", "count", len(items))
	m.emitHistoryChanged()
}

// Cleanup detaches from the source, cancels every timer, closes every popup
// and forgets history. It is safe to call more than once.
func (m *Manager) Cleanup() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	for _, p := range m.popups {
		m.disarm(p)
		if p.panel != nil && m.presenter != nil {
			m.presenter.DestroyPanel(p.panel)
		}
	}
	m.popups = nil
	m.history.Clear()
	m.closed = true
}

// History returns the history, newest first.
func (m *Manager) History() []*model.Notification {
	return m.history.Snapshot()
}

// ActivePopups returns the popup stack in creation order.
func (m *Manager) ActivePopups() []PopupState {
	out := make([]PopupState, len(m.popups))
	for i, p := range m.popups {
		out[i] = PopupState{ID: p.id, Offset: p.offset, Height: p.height, Paused: p.paused}
	}
	return out
}

// SubscribeHistory registers fn to run after every history change.
func (m *Manager) SubscribeHistory(fn func()) (unsubscribe func()) {
	key := m.nextObserver
	m.nextObserver++
	m.observers[key] = fn
	return func() { delete(m.observers, key) }
}

func (m *Manager) emitHistoryChanged() {
	keys := make([]int, 0, len(m.observers))
	for k := range m.observers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if fn, ok := m.observers[k]; ok {
			fn()
		}
	}
}

// UpdateConfig applies a reloaded configuration. Running timers keep their
// old duration; the history cap, popup limit and spacing apply at once.
func (m *Manager) UpdateConfig(cfg config.NotificationsConfig) {
	m.cfg = cfg

	if evicted := m.history.SetMax(cfg.HistoryLength); len(evicted) > 0 {
		m.emitHistoryChanged()
	}

	limit := max(cfg.MaxVisiblePopups, 1)
	for len(m.popups) > limit {
		m.DismissPopup(m.popups[0].id)
	}
	m.reflow()
}

// Config returns the active configuration.
func (m *Manager) Config() config.NotificationsConfig {
	return m.cfg
}
