package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/model"
)

var errGone = errors.New("notification already closed")

type fakeSource struct {
	notifications map[uint32]*model.Notification
	handler       SourceHandler

	subscribed   int
	unsubscribed int
	dismissed    []uint32
	invoked      []string
	dismissErr   map[uint32]error
}

func newFakeSource(existing ...*model.Notification) *fakeSource {
	s := &fakeSource{
		notifications: make(map[uint32]*model.Notification),
		dismissErr:    make(map[uint32]error),
	}
	for _, n := range existing {
		s.notifications[n.ID] = n
	}
	return s
}

func (s *fakeSource) Notifications() []*model.Notification {
	out := make([]*model.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}
	return out
}

func (s *fakeSource) Notification(id uint32) (*model.Notification, bool) {
	n, ok := s.notifications[id]
	return n, ok
}

func (s *fakeSource) Subscribe(h SourceHandler) func() {
	s.handler = h
	s.subscribed++
	return func() {
		s.handler = SourceHandler{}
		s.unsubscribed++
	}
}

func (s *fakeSource) Dismiss(id uint32) error {
	s.dismissed = append(s.dismissed, id)
	if err := s.dismissErr[id]; err != nil {
		return err
	}
	delete(s.notifications, id)
	return nil
}

func (s *fakeSource) Invoke(id uint32, actionKey string) error {
	s.invoked = append(s.invoked, fmt.Sprintf("%d:%s", id, actionKey))
	return nil
}

// notify stores n and announces it the way the notification server does.
func (s *fakeSource) notify(n *model.Notification) {
	s.notifications[n.ID] = n
	if s.handler.Notified != nil {
		s.handler.Notified(n.ID)
	}
}

func (s *fakeSource) resolve(id uint32) {
	delete(s.notifications, id)
	if s.handler.Resolved != nil {
		s.handler.Resolved(id)
	}
}

type fakePanel struct {
	content   PanelContent
	y         int
	destroyed bool
	moves     int
}

type fakePresenter struct {
	panels []*fakePanel
	err    error
}

func (p *fakePresenter) CreatePanel(c PanelContent, y int) (Panel, error) {
	if p.err != nil {
		return nil, p.err
	}
	panel := &fakePanel{content: c, y: y}
	p.panels = append(p.panels, panel)
	return panel, nil
}

func (p *fakePresenter) DestroyPanel(panel Panel) {
	panel.(*fakePanel).destroyed = true
}

func (p *fakePresenter) Reposition(panel Panel, y int) {
	fp := panel.(*fakePanel)
	fp.y = y
	fp.moves++
}

func (p *fakePresenter) live() []*fakePanel {
	var out []*fakePanel
	for _, panel := range p.panels {
		if !panel.destroyed {
			out = append(out, panel)
		}
	}
	return out
}

func (p *fakePresenter) panel(id uint32) *fakePanel {
	for i := len(p.panels) - 1; i >= 0; i-- {
		if p.panels[i].content.ID == id {
			return p.panels[i]
		}
	}
	return nil
}

type manualTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// manualScheduler fires timers only when told to, on the test goroutine.
type manualScheduler struct {
	timers []*manualTimer
}

var _ eventloop.Scheduler = (*manualScheduler)(nil)

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) eventloop.Timer {
	t := &manualTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) pending() []*manualTimer {
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (s *manualScheduler) fireAll() {
	for _, t := range s.pending() {
		t.fired = true
		t.fn()
	}
}

func testConfig() config.NotificationsConfig {
	return config.NotificationsConfig{
		PopupTimeout:     config.Duration(5 * time.Second),
		MaxVisiblePopups: 3,
		PopupSpacing:     8,
		ShowActions:      true,
		HistoryLength:    50,
	}
}

func note(id uint32) *model.Notification {
	n := model.NewNotification(id)
	n.AppName = "test"
	n.Summary = fmt.Sprintf("notification %d", id)
	n.Timestamp = int64(1_700_000_000 + id)
	return n
}

type harness struct {
	source    *fakeSource
	presenter *fakePresenter
	scheduler *manualScheduler
	manager   *Manager
}

func newHarness(cfg config.NotificationsConfig, opts ...Option) *harness {
	h := &harness{
		source:    newFakeSource(),
		presenter: &fakePresenter{},
		scheduler: &manualScheduler{},
	}
	h.manager = NewManager(h.source, h.presenter, h.scheduler, cfg, nil, opts...)
	return h
}

func (h *harness) activeIDs() []uint32 {
	var ids []uint32
	for _, p := range h.manager.ActivePopups() {
		ids = append(ids, p.ID)
	}
	return ids
}

func (h *harness) historyIDs() []uint32 {
	var ids []uint32
	for _, n := range h.manager.History() {
		ids = append(ids, n.ID)
	}
	return ids
}

func (h *harness) offsets() []int {
	var out []int
	for _, p := range h.manager.ActivePopups() {
		out = append(out, p.Offset)
	}
	return out
}
