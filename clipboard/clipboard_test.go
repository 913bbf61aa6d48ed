package clipboard

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBoard struct {
	mu       sync.Mutex
	contents string
	copies   []string
	pastes   int
	pasteErr error
}

func (f *fakeBoard) install(t *testing.T) {
	t.Helper()
	origCopy, origRead, origPaste := copyFn, readFn, pasteFn
	copyFn = func(text string) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.contents = text
		f.copies = append(f.copies, text)
		return nil
	}
	readFn = func() (string, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.contents, nil
	}
	pasteFn = func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.pastes++
		return f.pasteErr
	}
	t.Cleanup(func() {
		copyFn, readFn, pasteFn = origCopy, origRead, origPaste
	})
}

func (f *fakeBoard) snapshot() (string, []string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contents, append([]string(nil), f.copies...), f.pastes
}

func TestDeliverDisabled(t *testing.T) {
	fb := &fakeBoard{contents: "before"}
	fb.install(t)

	if err := Deliver("hello", Options{AutoCopy: false}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	contents, copies, pastes := fb.snapshot()
	if contents != "before" || len(copies) != 0 || pastes != 0 {
		t.Fatalf("disabled delivery touched the clipboard: %q %v %d", contents, copies, pastes)
	}
}

func TestDeliverEmptyText(t *testing.T) {
	fb := &fakeBoard{contents: "before"}
	fb.install(t)

	if err := Deliver("", Options{AutoCopy: true, AutoPaste: true}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	contents, _, pastes := fb.snapshot()
	if contents != "before" || pastes != 0 {
		t.Fatalf("empty delivery touched the clipboard: %q", contents)
	}
}

func TestDeliverCopyOnlyKeepsText(t *testing.T) {
	fb := &fakeBoard{contents: "before"}
	fb.install(t)

	if err := Deliver("hello", Options{AutoCopy: true}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	contents, _, pastes := fb.snapshot()
	if contents != "hello" {
		t.Fatalf("clipboard = %q, want transcript to stay", contents)
	}
	if pastes != 0 {
		t.Fatalf("pasted %d times without AutoPaste", pastes)
	}
}

func TestDeliverPasteRestoresPrior(t *testing.T) {
	fb := &fakeBoard{contents: "before"}
	fb.install(t)

	opts := Options{AutoCopy: true, AutoPaste: true, RestoreDelay: 10 * time.Millisecond}
	if err := Deliver("hello", opts); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if _, _, pastes := fb.snapshot(); pastes != 1 {
		t.Fatalf("pastes = %d, want 1", pastes)
	}

	deadline := time.Now().Add(time.Second)
	for {
		contents, _, _ := fb.snapshot()
		if contents == "before" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("prior clipboard never restored, contents = %q", contents)
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, copies, _ := fb.snapshot()
	if len(copies) != 2 || copies[0] != "hello" || copies[1] != "before" {
		t.Fatalf("copy sequence = %v", copies)
	}
}

func TestDeliverPasteFailureLeavesText(t *testing.T) {
	fb := &fakeBoard{contents: "before", pasteErr: errors.New("no uinput")}
	fb.install(t)

	opts := Options{AutoCopy: true, AutoPaste: true, RestoreDelay: time.Millisecond}
	if err := Deliver("hello", opts); err != nil {
		t.Fatalf("Deliver should swallow paste failure, got %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	contents, _, _ := fb.snapshot()
	if contents != "hello" {
		t.Fatalf("clipboard = %q, want transcript kept for manual paste", contents)
	}
}

func TestVerifyRoundtrip(t *testing.T) {
	fb := &fakeBoard{contents: "before"}
	fb.install(t)

	if err := Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	contents, _, _ := fb.snapshot()
	if contents != "before" {
		t.Fatalf("Verify did not restore prior contents: %q", contents)
	}
}
