package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

var errNotConnected = errors.New("not connected to D-Bus")

func (s *NotificationServer) connection() *dbus.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// EmitNotificationClosed emits NotificationClosed(id, reason).
func (s *NotificationServer) EmitNotificationClosed(id uint32, reason CloseReason) error {
	conn := s.connection()
	if conn == nil {
		return errNotConnected
	}

	if err := conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// EmitActionInvoked emits ActionInvoked(id, actionKey).
func (s *NotificationServer) EmitActionInvoked(id uint32, actionKey string) error {
	conn := s.connection()
	if conn == nil {
		return errNotConnected
	}

	if err := conn.Emit(DBusPath, DBusInterface+".ActionInvoked", id, actionKey); err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	s.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}
