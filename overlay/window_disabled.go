//go:build !gui

package overlay

import (
	"errors"

	"murmur/session"
	"murmur/whisper"
)

var ErrDisabled = errors.New("built without overlay support (rebuild with -tags gui)")

// Window is a no-op placeholder in overlay-less builds.
type Window struct{}

func NewWindow(func()) *Window { return &Window{} }

func (w *Window) Run(func()) error { return ErrDisabled }

func (w *Window) Quit() {}

func (w *Window) Show() {}

func (w *Window) Hide() {}

func (w *Window) StatusChanged(session.Status) {}

func (w *Window) AudioLevel(float64) {}

func (w *Window) Partial(string) {}

func (w *Window) Final(string, whisper.Result) {}

func (w *Window) Silence(session.SilenceEvent) {}

func (w *Window) PermissionRequired([]string) {}

func (w *Window) SessionError(error) {}
