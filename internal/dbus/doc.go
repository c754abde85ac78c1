// Package dbus is the shell's session bus surface. NotificationServer
// implements org.freedesktop.Notifications and serves as the notification
// source; ControlServer and ControlClient carry histshellctl requests to the
// running daemon.
package dbus
