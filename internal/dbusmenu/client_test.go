package dbusmenu

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	dest   string
	path   dbus.ObjectPath
	method string
	args   []any
}

type fakeCaller struct {
	mu    sync.Mutex
	calls []call
	reply []any
	err   error

	// block, when set, holds every call until it is closed.
	block chan struct{}
}

func (f *fakeCaller) Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) ([]any, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{dest: dest, path: path, method: method, args: args})
	if f.err != nil {
		return nil, f.err
	}
	if method == Interface+".GetLayout" {
		return f.reply, nil
	}
	return nil, nil
}

func (f *fakeCaller) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

const (
	testItem = ":1.50/org/ayatana/NotificationItem/nm_applet"
	testPath = dbus.ObjectPath("/org/ayatana/NotificationItem/nm_applet/Menu")
)

func sampleReply() []any {
	return []any{uint32(42), root(
		item(1, props{"label": v("_Connect")}),
		item(2, props{"type": v("separator")}),
		item(3, props{"label": v("VPN")},
			item(31, props{"label": v("Office"), "toggle-type": v("radio"), "toggle-state": v(int32(1))}),
		),
	)}
}

func TestBusName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{testItem, ":1.50"},
		{"org.kde.StatusNotifierItem-1234-1/StatusNotifierItem", "org.kde.StatusNotifierItem-1234-1"},
		{":1.7", ":1.7"},
		{"/only/path", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, BusName(tt.id))
		})
	}
}

func TestClient_LayoutRequest(t *testing.T) {
	caller := &fakeCaller{reply: sampleReply()}
	c := NewClient(caller, nil, nil)

	layout, err := c.Layout(context.Background(), testItem, testPath)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), layout.Revision)
	assert.Len(t, layout.Nodes, 3)

	calls := caller.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, ":1.50", calls[0].dest)
	assert.Equal(t, testPath, calls[0].path)
	assert.Equal(t, "com.canonical.dbusmenu.GetLayout", calls[0].method)
	assert.Equal(t, []any{int32(0), int32(-1), KnownProperties}, calls[0].args)
}

func TestClient_FetchLayoutIsStable(t *testing.T) {
	c := NewClient(&fakeCaller{reply: sampleReply()}, nil, nil)

	first := c.FetchLayout(context.Background(), testItem, testPath)
	second := c.FetchLayout(context.Background(), testItem, testPath)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	assert.Equal(t, "_Connect", first[0].Label)
	assert.True(t, first[1].IsSeparator())
	require.Len(t, first[2].Children, 1)
	assert.Equal(t, Toggle{Type: ToggleRadio, State: true}, first[2].Children[0].Toggle)
}

func TestClient_FetchLayoutFailures(t *testing.T) {
	tests := []struct {
		name   string
		caller *fakeCaller
		id     string
		path   dbus.ObjectPath
	}{
		{"call error", &fakeCaller{err: errors.New("org.freedesktop.DBus.Error.ServiceUnknown")}, testItem, testPath},
		{"short reply", &fakeCaller{reply: []any{uint32(1)}}, testItem, testPath},
		{"revision wrong type", &fakeCaller{reply: []any{int32(1), root()}}, testItem, testPath},
		{"malformed root", &fakeCaller{reply: []any{uint32(1), "root"}}, testItem, testPath},
		{"empty bus name", &fakeCaller{reply: sampleReply()}, "/no/bus", testPath},
		{"invalid path", &fakeCaller{reply: sampleReply()}, testItem, "Menu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.caller, nil, nil)

			_, err := c.Layout(context.Background(), tt.id, tt.path)
			assert.Error(t, err)
			assert.Empty(t, c.FetchLayout(context.Background(), tt.id, tt.path))
		})
	}
}

func TestClient_Activate(t *testing.T) {
	caller := &fakeCaller{}
	c := NewClient(caller, nil, nil)

	require.NoError(t, c.Activate(context.Background(), testItem, testPath, 31))

	calls := caller.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, ":1.50", calls[0].dest)
	assert.Equal(t, testPath, calls[0].path)
	assert.Equal(t, "com.canonical.dbusmenu.Event", calls[0].method)
	assert.Equal(t, []any{int32(31), "clicked", dbus.MakeVariant(int32(0)), uint32(0)}, calls[0].args)
}

func TestClient_ActivateError(t *testing.T) {
	boom := errors.New("no reply")
	caller := &fakeCaller{err: boom}
	c := NewClient(caller, nil, nil)

	err := c.Activate(context.Background(), testItem, testPath, 7)
	assert.ErrorIs(t, err, boom)

	// The fire-and-forget form swallows the error and does not retry.
	c.SendActivation(context.Background(), testItem, testPath, 7)
	assert.Len(t, caller.recorded(), 2)
}

func TestClient_UsesDecoderLimits(t *testing.T) {
	d := NewDecoder(nil)
	d.MaxNodes = 1
	c := NewClient(&fakeCaller{reply: sampleReply()}, d, nil)

	nodes := c.FetchLayout(context.Background(), testItem, testPath)
	assert.Equal(t, 1, Count(nodes))
}
