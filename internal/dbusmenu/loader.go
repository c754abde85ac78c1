package dbusmenu

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/histshell/internal/eventloop"
)

// Loader runs layout fetches off the event goroutine and hands results back
// on it. A response that arrives after Cancel, or after a newer Load, is
// decoded but dropped.
//
// Load and Cancel must be called on the event goroutine.
type Loader struct {
	client     *Client
	dispatcher eventloop.Dispatcher
	timeout    time.Duration
	logger     *slog.Logger

	generation uint64
	open       bool
}

// NewLoader creates a Loader. A zero timeout means no deadline.
func NewLoader(client *Client, d eventloop.Dispatcher, timeout time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client:     client,
		dispatcher: d,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetTimeout changes the deadline applied to later fetches.
func (l *Loader) SetTimeout(timeout time.Duration) {
	l.timeout = timeout
}

// Load starts fetching the menu of remoteID and calls deliver with the nodes
// unless the request was superseded first.
func (l *Loader) Load(remoteID string, menuPath dbus.ObjectPath, deliver func([]Node)) {
	l.generation++
	l.open = true
	gen := l.generation
	timeout := l.timeout

	go func() {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		nodes := l.client.FetchLayout(ctx, remoteID, menuPath)

		l.dispatcher.Post(func() {
			if !l.open || gen != l.generation {
				l.logger.Debug("discarding stale menu layout", "item", remoteID, "generation", gen)
				return
			}
			deliver(nodes)
		})
	}()
}

// Cancel marks any in-flight fetch as stale.
func (l *Loader) Cancel() {
	l.generation++
	l.open = false
}

// Activate sends the click event for itemID without blocking the caller.
func (l *Loader) Activate(remoteID string, menuPath dbus.ObjectPath, itemID int32) {
	timeout := l.timeout
	go func() {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		l.client.SendActivation(ctx, remoteID, menuPath, itemID)
	}()
}
