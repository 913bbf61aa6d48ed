//go:build !linux

package shortcut

// Diagnose reports whether global shortcuts can work on this setup.
// Registration through the OS hotkey API is the real test; here we can
// only confirm the mechanism exists.
func Diagnose() (string, error) {
	return "global shortcut support available", nil
}
