// Package daemon wires the notification server, the popup manager and the
// tray menu together and serves the control interface on top of them.
package daemon
