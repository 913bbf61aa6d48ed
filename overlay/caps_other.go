//go:build !linux && !darwin && !windows

package overlay

type otherCaps struct{}

func PlatformCapabilities() Capabilities {
	return otherCaps{}
}

func (otherCaps) Name() string { return "generic" }

func (otherCaps) Supported(a Attr) bool { return a == AttrAlwaysOnTop }

func (otherCaps) Apply(_ Handle, _ Attr, _ bool) error { return nil }
