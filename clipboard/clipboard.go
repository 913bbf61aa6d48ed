// Package clipboard delivers finished transcripts to the rest of the
// desktop: copy to the system clipboard and optionally a simulated paste
// into the focused window, restoring whatever the user had on the
// clipboard afterwards.
package clipboard

import (
	"fmt"
	"time"

	cb "github.com/atotto/clipboard"

	"murmur/log"
)

// Swappable for tests.
var (
	copyFn  = cb.WriteAll
	readFn  = cb.ReadAll
	pasteFn = sendPaste
)

func Copy(text string) error {
	return copyFn(text)
}

func Read() (string, error) {
	return readFn()
}

// Paste simulates the platform paste keystroke into the focused window.
func Paste() error {
	return pasteFn()
}

// DefaultRestoreDelay gives the focused application time to consume the
// paste before the previous clipboard contents come back.
const DefaultRestoreDelay = 600 * time.Millisecond

// Options controls what happens to a finished transcript.
type Options struct {
	AutoCopy     bool
	AutoPaste    bool
	RestoreDelay time.Duration // zero means DefaultRestoreDelay
}

// Deliver sends text to the clipboard per opts. With AutoPaste the prior
// clipboard contents are restored after a short delay; with copy-only the
// transcript intentionally stays on the clipboard.
func Deliver(text string, opts Options) error {
	if !opts.AutoCopy || text == "" {
		return nil
	}

	var prev string
	if opts.AutoPaste {
		prev, _ = Read()
	}

	if err := Copy(text); err != nil {
		return fmt.Errorf("clipboard copy: %w", err)
	}

	if !opts.AutoPaste {
		return nil
	}

	if err := Paste(); err != nil {
		// Copy already succeeded; the user can paste by hand.
		log.Warnf("paste failed, text left on clipboard: %v", err)
		return nil
	}

	if prev != "" {
		delay := opts.RestoreDelay
		if delay == 0 {
			delay = DefaultRestoreDelay
		}
		go func() {
			time.Sleep(delay)
			if err := Copy(prev); err != nil {
				log.Warnf("clipboard restore failed: %v", err)
			}
		}()
	}
	return nil
}

// Verify does a copy/read roundtrip, used by diagnostics.
func Verify() error {
	const probe = "murmur-clipboard-check"
	prev, _ := Read()
	if err := Copy(probe); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	got, err := Read()
	if err != nil {
		return fmt.Errorf("clipboard read: %w", err)
	}
	if got != probe {
		return fmt.Errorf("clipboard roundtrip mismatch")
	}
	if prev != "" {
		Copy(prev)
	}
	return nil
}
