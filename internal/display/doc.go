// Package display draws popups, the tray menu and toasts as GTK4 layer-shell
// windows. Everything in it runs on the GTK main thread.
package display
