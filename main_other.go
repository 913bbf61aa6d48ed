//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// The overlay toolkit and the hotkey library both want the main
	// thread; the overlay wins and hotkeys run from its event loop.
	for _, arg := range os.Args[1:] {
		if arg == "-overlay" {
			runOverlay()
			return
		}
	}
	mainthread.Init(run)
}
