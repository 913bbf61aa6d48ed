package shortcut

import (
	"errors"
	"testing"
)

func TestParseBinding(t *testing.T) {
	b, err := ParseBinding("Ctrl+Shift+Space")
	if err != nil {
		t.Fatalf("ParseBinding: %v", err)
	}
	if !b.Ctrl || !b.Shift || b.Alt || b.Cmd || b.Key != "space" {
		t.Fatalf("parsed %+v", b)
	}
	if got := b.String(); got != "Ctrl+Shift+Space" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseBindingCaseAndAliases(t *testing.T) {
	b, err := ParseBinding("control+OPTION+d")
	if err != nil {
		t.Fatalf("ParseBinding: %v", err)
	}
	if !b.Ctrl || !b.Alt || b.Key != "d" {
		t.Fatalf("parsed %+v", b)
	}
}

func TestParseBindingCmdOrCtrl(t *testing.T) {
	b, err := ParseBinding("CmdOrCtrl+Shift+S")
	if err != nil {
		t.Fatalf("ParseBinding: %v", err)
	}
	// Resolves to exactly one of the two, depending on platform.
	if b.Ctrl == b.Cmd {
		t.Fatalf("CmdOrCtrl resolved to ctrl=%v cmd=%v", b.Ctrl, b.Cmd)
	}
	if b.Key != "s" {
		t.Fatalf("key = %q", b.Key)
	}
}

func TestParseBindingFunctionKeys(t *testing.T) {
	b, err := ParseBinding("Alt+F5")
	if err != nil {
		t.Fatalf("ParseBinding: %v", err)
	}
	if b.Key != "f5" {
		t.Fatalf("key = %q", b.Key)
	}
}

func TestParseBindingRejects(t *testing.T) {
	bad := []string{
		"",
		"Space",            // no modifier
		"Ctrl+Shift",       // no key
		"Ctrl+A+B",         // two keys
		"Ctrl+Hyper+Space", // unknown token
		"Ctrl++Space",      // empty token
		"Ctrl+F13",         // out of range
	}
	for _, spec := range bad {
		if _, err := ParseBinding(spec); !errors.Is(err, ErrInvalidBinding) {
			t.Errorf("ParseBinding(%q) err = %v, want ErrInvalidBinding", spec, err)
		}
	}
}
