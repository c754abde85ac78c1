package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/dbus"
	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/notify"
)

type fakeMenu struct {
	opened []string
	cfg    config.MenuConfig
}

func (m *fakeMenu) Open(itemID string, menuPath godbus.ObjectPath) {
	m.opened = append(m.opened, itemID+string(menuPath))
}

func (m *fakeMenu) UpdateConfig(cfg config.MenuConfig) { m.cfg = cfg }

type fakeTheme struct {
	loaded []string
	err    error
}

func (f *fakeTheme) Load(name string) error {
	f.loaded = append(f.loaded, name)
	return f.err
}

type harness struct {
	loop   *eventloop.Loop
	server *dbus.NotificationServer
	shell  *Shell
	cfg    *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	loop := eventloop.NewLoop(16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	t.Cleanup(func() {
		cancel()
		loop.Stop()
	})

	cfg := config.Default()
	cfg.Notifications.PopupTimeout = 0

	server := dbus.NewNotificationServer(nil)
	server.SetDispatcher(loop)
	manager := notify.NewManager(server, nil, nil, cfg.Notifications, nil)

	return &harness{
		loop:   loop,
		server: server,
		shell:  NewShell(loop, manager, cfg, nil),
		cfg:    cfg,
	}
}

func (h *harness) notify(summary string) uint32 {
	return h.server.NotifyInternal(&dbus.Request{AppName: "test", Summary: summary, ExpireTimeout: -1})
}

// sync waits until everything posted so far has run.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, eventloop.Invoke(context.Background(), h.loop, func() {}))
}

func TestShell_History(t *testing.T) {
	h := newHarness(t)
	first := h.notify("first")
	second := h.notify("second")
	ctx := context.Background()

	history, err := h.shell.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second, history[0].ID)
	assert.Equal(t, first, history[1].ID)

	popups, err := h.shell.ActivePopups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{first, second}, popups)

	require.NoError(t, h.shell.DismissPopup(ctx, first))
	popups, err = h.shell.ActivePopups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{second}, popups)

	require.NoError(t, h.shell.RemoveFromHistory(ctx, first))
	history, err = h.shell.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.True(t, h.server.IsActive(first), "removing from history leaves the source alone")
}

func TestShell_DismissAndClear(t *testing.T) {
	h := newHarness(t)
	a := h.notify("a")
	b := h.notify("b")
	c := h.notify("c")
	ctx := context.Background()

	require.NoError(t, h.shell.DismissNotification(ctx, a))
	assert.False(t, h.server.IsActive(a))

	require.NoError(t, h.shell.ClearHistory(ctx))
	history, err := h.shell.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.False(t, h.server.IsActive(b))
	assert.False(t, h.server.IsActive(c))
}

func TestShell_OpenMenu(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.shell.OpenMenu(ctx, ":1.7", "/MenuBar")
	assert.ErrorIs(t, err, ErrMenuUnavailable)

	menu := &fakeMenu{}
	h.shell.SetMenu(menu)
	require.NoError(t, h.shell.OpenMenu(ctx, ":1.7", "/MenuBar"))
	assert.Equal(t, []string{":1.7/MenuBar"}, menu.opened)
}

func TestShell_ContextCancelled(t *testing.T) {
	h := newHarness(t)
	block := make(chan struct{})
	h.loop.Post(func() { <-block })
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.shell.History(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShell_ApplyConfig(t *testing.T) {
	h := newHarness(t)
	menu := &fakeMenu{}
	th := &fakeTheme{}
	sent := &sentRequests{}
	h.shell.SetMenu(menu)
	h.shell.SetTheme(th)
	h.shell.SetNotifier(NewInternalNotifier(sent.send, nil))

	var seen []*config.Config
	h.shell.OnConfig(func(cfg *config.Config) { seen = append(seen, cfg) })

	next := config.Default()
	next.Notifications.MaxVisiblePopups = 1
	next.Menu.MaxDepth = 4
	h.shell.ApplyConfig(next)
	h.sync(t)

	assert.Equal(t, 1, h.shell.manager.Config().MaxVisiblePopups)
	assert.Equal(t, 4, menu.cfg.MaxDepth)
	assert.Empty(t, th.loaded, "unchanged theme is not reloaded")
	assert.Equal(t, []*config.Config{next}, seen)
	assert.Same(t, next, h.shell.Config())
	require.Len(t, sent.reqs, 1)
	assert.Equal(t, "Configuration Reloaded", sent.reqs[0].Summary)

	themed := config.Default()
	themed.Theme.Name = "minimal"
	th.err = errors.New("theme \"minimal\" not found")
	h.shell.ApplyConfig(themed)
	h.sync(t)

	assert.Equal(t, []string{"minimal"}, th.loaded)
	require.Len(t, sent.reqs, 2, "config-reload is rate-limited, the theme error is not")
	assert.Equal(t, "Theme Error", sent.reqs[1].Summary)
}

func TestShell_ApplyConfigEvictsPopups(t *testing.T) {
	h := newHarness(t)
	h.notify("a")
	b := h.notify("b")

	next := config.Default()
	next.Notifications.PopupTimeout = 0
	next.Notifications.MaxVisiblePopups = 1
	h.shell.ApplyConfig(next)
	h.sync(t)

	popups, err := h.shell.ActivePopups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint32{b}, popups)
}

func TestShell_ReportConfigError(t *testing.T) {
	h := newHarness(t)
	sent := &sentRequests{}
	h.shell.SetNotifier(NewInternalNotifier(sent.send, nil))

	h.shell.ReportConfigError(errors.New("invalid width"))
	h.sync(t)

	require.Len(t, sent.reqs, 1)
	assert.Equal(t, "Configuration Error", sent.reqs[0].Summary)
}

func TestShell_ClearHistoryLargerThanLoopDepth(t *testing.T) {
	h := newHarness(t)
	const count = 40 // above the loop's initial depth of 16, below history_length
	for range count {
		h.notify("n")
	}
	h.sync(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, h.shell.ClearHistory(ctx))
	history, err := h.shell.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	popups, err := h.shell.ActivePopups(ctx)
	require.NoError(t, err)
	assert.Empty(t, popups)
}
