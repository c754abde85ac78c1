package dbusmenu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Caller performs one method call against a remote object and returns the
// reply body.
type Caller interface {
	Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) ([]any, error)
}

// ConnCaller is a Caller backed by a godbus connection.
type ConnCaller struct {
	conn *dbus.Conn
}

// NewConnCaller wraps conn.
func NewConnCaller(conn *dbus.Conn) *ConnCaller {
	return &ConnCaller{conn: conn}
}

// Call implements Caller.
func (c *ConnCaller) Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) ([]any, error) {
	call := c.conn.Object(dest, path).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, call.Err
	}
	return call.Body, nil
}

// Layout is one decoded GetLayout response.
type Layout struct {
	Revision uint32
	Nodes    []Node
}

// Client fetches and activates remote menus.
type Client struct {
	caller  Caller
	decoder *Decoder
	logger  *slog.Logger
}

// NewClient creates a Client. The decoder may be nil for an unlimited one.
func NewClient(caller Caller, decoder *Decoder, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if decoder == nil {
		decoder = NewDecoder(logger)
	}
	return &Client{
		caller:  caller,
		decoder: decoder,
		logger:  logger,
	}
}

// BusName returns the destination for a tray item id: the text before the
// first '/'. Item ids look like ":1.50/org/ayatana/NotificationItem/app".
func BusName(remoteID string) string {
	name, _, _ := strings.Cut(remoteID, "/")
	return name
}

// Layout fetches the whole menu tree in one GetLayout(0, -1, all) call.
func (c *Client) Layout(ctx context.Context, remoteID string, menuPath dbus.ObjectPath) (*Layout, error) {
	dest := BusName(remoteID)
	if dest == "" {
		return nil, fmt.Errorf("invalid item id %q: empty bus name", remoteID)
	}
	if !menuPath.IsValid() {
		return nil, fmt.Errorf("invalid menu path %q", menuPath)
	}

	body, err := c.caller.Call(ctx, dest, menuPath, Interface+".GetLayout",
		int32(0), int32(-1), KnownProperties)
	if err != nil {
		return nil, fmt.Errorf("failed to call GetLayout on %s%s: %w", dest, menuPath, err)
	}
	if len(body) != 2 {
		return nil, fmt.Errorf("%w: GetLayout returned %d values", ErrMalformedItem, len(body))
	}

	revision, ok := body[0].(uint32)
	if !ok {
		return nil, fmt.Errorf("%w: revision has type %T", ErrMalformedItem, body[0])
	}

	nodes, err := c.decoder.DecodeLayout(body[1])
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched menu layout",
		"bus_name", dest,
		"path", menuPath,
		"revision", revision,
		"nodes", Count(nodes),
	)
	return &Layout{Revision: revision, Nodes: nodes}, nil
}

// FetchLayout is the best-effort form of Layout used by the UI: any failure is
// logged and yields an empty menu.
func (c *Client) FetchLayout(ctx context.Context, remoteID string, menuPath dbus.ObjectPath) []Node {
	layout, err := c.Layout(ctx, remoteID, menuPath)
	if err != nil {
		c.logger.Error("failed to fetch menu layout", "item", remoteID, "path", menuPath, "error", err)
		return nil
	}
	return layout.Nodes
}

// Activate sends Event(id, "clicked", <int32 0>, 0) and returns the call error.
func (c *Client) Activate(ctx context.Context, remoteID string, menuPath dbus.ObjectPath, itemID int32) error {
	_, err := c.caller.Call(ctx, BusName(remoteID), menuPath, Interface+".Event",
		itemID, "clicked", dbus.MakeVariant(int32(0)), uint32(0))
	if err != nil {
		return fmt.Errorf("failed to send click for item %d: %w", itemID, err)
	}
	return nil
}

// SendActivation is the fire-and-forget form of Activate. Failures are logged
// with the item id and never retried.
func (c *Client) SendActivation(ctx context.Context, remoteID string, menuPath dbus.ObjectPath, itemID int32) {
	if err := c.Activate(ctx, remoteID, menuPath, itemID); err != nil {
		c.logger.Error("menu activation failed", "item", remoteID, "id", itemID, "error", err)
		return
	}
	c.logger.Debug("menu item activated", "item", remoteID, "id", itemID)
}
