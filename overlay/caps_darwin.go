package overlay

// macOS windows get floating level and no-focus-on-show from the toolkit
// at creation; click-through would need an NSWindow ignoresMouseEvents
// call we do not make.
type darwinCaps struct{}

func PlatformCapabilities() Capabilities {
	return darwinCaps{}
}

func (darwinCaps) Name() string { return "macos" }

func (darwinCaps) Supported(a Attr) bool {
	return a != AttrClickThrough
}

func (darwinCaps) Apply(_ Handle, _ Attr, _ bool) error {
	return nil
}
