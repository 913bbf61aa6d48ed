//go:build linux

package shortcut

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Global shortcuts on Linux read evdev directly: it works identically
// under X11 and Wayland, at the cost of requiring membership in the
// 'input' group.
const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0

	codeLCtrl  = 29
	codeRCtrl  = 97
	codeLShift = 42
	codeRShift = 54
	codeLAlt   = 56
	codeRAlt   = 100
	codeLMeta  = 125
	codeRMeta  = 126
)

const inputEventSize = 24

var evdevKeyCodes = map[string]uint16{
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	"space": 57,
	"f1":    59, "f2": 60, "f3": 61, "f4": 62, "f5": 63,
	"f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"f11": 87, "f12": 88,
}

type evdevTrigger struct {
	binding Binding
	keyCode uint16
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func platformTrigger(b Binding) Trigger {
	return &evdevTrigger{
		binding: b,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (t *evdevTrigger) Register() error {
	code, ok := evdevKeyCodes[t.binding.Key]
	if !ok {
		return fmt.Errorf("%w: key %q not mapped", ErrInvalidBinding, t.binding.Key)
	}
	t.keyCode = code

	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	t.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		t.files = append(t.files, f)
		go t.readEvents(f)
	}

	if len(t.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

func (t *evdevTrigger) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var ctrlHeld, shiftHeld, altHeld, metaHeld, keyHeld bool

	for {
		select {
		case <-t.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}

			pressed := evValue == keyPress
			released := evValue == keyRelease

			switch evCode {
			case codeLCtrl, codeRCtrl:
				ctrlHeld = pressed || (!released && ctrlHeld)
			case codeLShift, codeRShift:
				shiftHeld = pressed || (!released && shiftHeld)
			case codeLAlt, codeRAlt:
				altHeld = pressed || (!released && altHeld)
			case codeLMeta, codeRMeta:
				metaHeld = pressed || (!released && metaHeld)
			case t.keyCode:
				if pressed && !keyHeld && t.modifiersHeld(ctrlHeld, shiftHeld, altHeld, metaHeld) {
					keyHeld = true
					select {
					case t.keydown <- struct{}{}:
					default:
					}
				} else if released && keyHeld {
					keyHeld = false
					select {
					case t.keyup <- struct{}{}:
					default:
					}
				}
			}
		}
	}
}

func (t *evdevTrigger) modifiersHeld(ctrl, shift, alt, meta bool) bool {
	b := t.binding
	return ctrl == b.Ctrl && shift == b.Shift && alt == b.Alt && meta == b.Cmd
}

func (t *evdevTrigger) Unregister() {
	t.once.Do(func() {
		if t.stop != nil {
			close(t.stop)
		}
		for _, f := range t.files {
			f.Close()
		}
	})
}

func (t *evdevTrigger) Keydown() <-chan struct{} { return t.keydown }
func (t *evdevTrigger) Keyup() <-chan struct{}   { return t.keyup }

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose reports whether global shortcuts can work at all on this setup.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
