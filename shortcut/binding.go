package shortcut

import (
	"fmt"
	"runtime"
	"strings"
)

// Binding is a parsed key combination. Key is a normalized lowercase
// token: a letter, a digit, "space", or "f1".."f12".
type Binding struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Cmd   bool
	Key   string
}

func (b Binding) String() string {
	var parts []string
	if b.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if b.Cmd {
		parts = append(parts, "Cmd")
	}
	if b.Alt {
		parts = append(parts, "Alt")
	}
	if b.Shift {
		parts = append(parts, "Shift")
	}
	key := b.Key
	if len(key) == 1 {
		key = strings.ToUpper(key)
	} else if key != "" {
		key = strings.ToUpper(key[:1]) + key[1:]
	}
	parts = append(parts, key)
	return strings.Join(parts, "+")
}

// ParseBinding parses combinations like "Ctrl+Shift+Space" or
// "CmdOrCtrl+Alt+D". Exactly one non-modifier key is required.
// "CmdOrCtrl" resolves to Cmd on macOS and Ctrl elsewhere.
func ParseBinding(spec string) (Binding, error) {
	var b Binding
	tokens := strings.Split(spec, "+")
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			return Binding{}, fmt.Errorf("%w: %q", ErrInvalidBinding, spec)
		}
		switch tok {
		case "ctrl", "control":
			b.Ctrl = true
		case "shift":
			b.Shift = true
		case "alt", "option", "opt":
			b.Alt = true
		case "cmd", "command", "super", "meta", "win":
			b.Cmd = true
		case "cmdorctrl", "commandorcontrol":
			if runtime.GOOS == "darwin" {
				b.Cmd = true
			} else {
				b.Ctrl = true
			}
		default:
			if b.Key != "" {
				return Binding{}, fmt.Errorf("%w: %q has multiple keys", ErrInvalidBinding, spec)
			}
			if !validKey(tok) {
				return Binding{}, fmt.Errorf("%w: unknown key %q", ErrInvalidBinding, tok)
			}
			b.Key = tok
		}
	}
	if b.Key == "" {
		return Binding{}, fmt.Errorf("%w: %q has no key", ErrInvalidBinding, spec)
	}
	if !b.Ctrl && !b.Shift && !b.Alt && !b.Cmd {
		return Binding{}, fmt.Errorf("%w: %q needs at least one modifier", ErrInvalidBinding, spec)
	}
	return b, nil
}

func validKey(key string) bool {
	if len(key) == 1 {
		c := key[0]
		return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	if key == "space" {
		return true
	}
	if len(key) >= 2 && key[0] == 'f' {
		switch key[1:] {
		case "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12":
			return true
		}
	}
	return false
}
