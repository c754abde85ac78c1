// Package theme resolves and applies the CSS stylesheet used by popups,
// the tray menu and toasts. Themes come from the user's themes directory,
// an explicit .css path, or the bundled set.
package theme
