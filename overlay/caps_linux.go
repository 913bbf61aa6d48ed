package overlay

import (
	"os"
	"strings"
)

// linuxCaps distinguishes X11 from Wayland. Wayland compositors refuse
// client-side always-on-top ordering hints like skip-taskbar and no-focus
// stealing; those degrade silently. X11 honors all of them through the
// usual EWMH hints, which the toolkit sets for us.
type linuxCaps struct {
	wayland bool
}

func PlatformCapabilities() Capabilities {
	return linuxCaps{wayland: isWayland(os.Getenv)}
}

func isWayland(getenv func(string) string) bool {
	if getenv("WAYLAND_DISPLAY") != "" {
		return true
	}
	return strings.EqualFold(getenv("XDG_SESSION_TYPE"), "wayland")
}

func (c linuxCaps) Name() string {
	if c.wayland {
		return "wayland"
	}
	return "x11"
}

func (c linuxCaps) Supported(a Attr) bool {
	switch a {
	case AttrAlwaysOnTop:
		return true
	case AttrSkipTaskbar, AttrNoFocus:
		return !c.wayland
	case AttrClickThrough:
		return false
	default:
		return false
	}
}

func (c linuxCaps) Apply(_ Handle, _ Attr, _ bool) error {
	// The toolkit window carries the EWMH hints; nothing to poke natively.
	return nil
}
