package overlay

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

const (
	gwlExStyle = -20 & 0xFFFFFFFF // GWL_EXSTYLE as the DWORD the API expects

	wsExTopmost     = 0x00000008
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExLayered     = 0x00080000
	wsExNoActivate  = 0x08000000

	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpNoActivate = 0x0010
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	getWindowLongPtr = user32.NewProc("GetWindowLongPtrW")
	setWindowLongPtr = user32.NewProc("SetWindowLongPtrW")
	setWindowPos     = user32.NewProc("SetWindowPos")
	hwndTopmost      = ^uintptr(0) // (HWND)-1
)

type windowsCaps struct{}

func PlatformCapabilities() Capabilities {
	return windowsCaps{}
}

func (windowsCaps) Name() string { return "windows" }

func (windowsCaps) Supported(Attr) bool { return true }

func (windowsCaps) Apply(win Handle, a Attr, enabled bool) error {
	if win == 0 {
		return fmt.Errorf("no native window handle")
	}
	switch a {
	case AttrAlwaysOnTop:
		ret, _, err := setWindowPos.Call(uintptr(win), hwndTopmost,
			0, 0, 0, 0, swpNoMove|swpNoSize|swpNoActivate)
		if ret == 0 {
			return fmt.Errorf("SetWindowPos: %w", callErr(err))
		}
		return nil
	case AttrSkipTaskbar:
		return setExStyle(win, wsExToolWindow, enabled)
	case AttrNoFocus:
		return setExStyle(win, wsExNoActivate, enabled)
	case AttrClickThrough:
		return setExStyle(win, wsExLayered|wsExTransparent, enabled)
	default:
		return fmt.Errorf("unknown attribute %d", a)
	}
}

func setExStyle(win Handle, bits uintptr, enabled bool) error {
	style, _, _ := getWindowLongPtr.Call(uintptr(win), gwlExStyle)
	if enabled {
		style |= bits
	} else {
		style &^= bits
	}
	ret, _, err := setWindowLongPtr.Call(uintptr(win), gwlExStyle, style)
	if ret == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return fmt.Errorf("SetWindowLongPtr: %w", errno)
		}
	}
	return nil
}

func callErr(err error) error {
	if errno, ok := err.(syscall.Errno); ok && errno == 0 {
		return fmt.Errorf("unknown failure")
	}
	return err
}
