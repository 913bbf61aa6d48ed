// Package overlay manages the small always-visible status window. Window
// managers differ in what they allow, so every attribute is applied on a
// best-effort basis: the controller tracks what was asked for and what
// actually took effect.
package overlay

import (
	"murmur/log"
)

type Attr int

const (
	AttrAlwaysOnTop Attr = iota
	AttrSkipTaskbar
	AttrNoFocus
	AttrClickThrough
)

func (a Attr) String() string {
	switch a {
	case AttrAlwaysOnTop:
		return "always-on-top"
	case AttrSkipTaskbar:
		return "skip-taskbar"
	case AttrNoFocus:
		return "no-focus"
	case AttrClickThrough:
		return "click-through"
	default:
		return "unknown"
	}
}

var allAttrs = []Attr{AttrAlwaysOnTop, AttrSkipTaskbar, AttrNoFocus, AttrClickThrough}

// Attributes is the window behavior the overlay wants.
type Attributes struct {
	AlwaysOnTop  bool
	SkipTaskbar  bool
	NoFocus      bool
	ClickThrough bool
}

func (a Attributes) get(attr Attr) bool {
	switch attr {
	case AttrAlwaysOnTop:
		return a.AlwaysOnTop
	case AttrSkipTaskbar:
		return a.SkipTaskbar
	case AttrNoFocus:
		return a.NoFocus
	case AttrClickThrough:
		return a.ClickThrough
	default:
		return false
	}
}

func (a *Attributes) set(attr Attr, v bool) {
	switch attr {
	case AttrAlwaysOnTop:
		a.AlwaysOnTop = v
	case AttrSkipTaskbar:
		a.SkipTaskbar = v
	case AttrNoFocus:
		a.NoFocus = v
	case AttrClickThrough:
		a.ClickThrough = v
	}
}

// Handle is a native window handle (HWND, X11 window id, NSWindow*).
type Handle uintptr

// Capabilities abstracts what the current windowing system can do.
type Capabilities interface {
	Name() string
	Supported(a Attr) bool
	Apply(win Handle, a Attr, enabled bool) error
}

// Controller reconciles desired attributes against the platform. A failed
// or unsupported attribute is logged and skipped; the rest still apply.
type Controller struct {
	caps    Capabilities
	desired Attributes
	applied Attributes
}

func NewController(caps Capabilities) *Controller {
	return &Controller{caps: caps}
}

func (c *Controller) SetDesired(a Attributes) {
	c.desired = a
}

func (c *Controller) Desired() Attributes { return c.desired }

func (c *Controller) Applied() Attributes { return c.applied }

// Sync pushes the desired attributes to the window and records which ones
// took effect.
func (c *Controller) Sync(win Handle) Attributes {
	var applied Attributes
	for _, attr := range allAttrs {
		want := c.desired.get(attr)
		if !want {
			continue
		}
		if !c.caps.Supported(attr) {
			log.Infof("overlay: %s not supported on %s, degrading", attr, c.caps.Name())
			continue
		}
		if err := c.caps.Apply(win, attr, true); err != nil {
			log.Warnf("overlay: applying %s failed: %v", attr, err)
			continue
		}
		applied.set(attr, true)
	}
	c.applied = applied
	return applied
}
