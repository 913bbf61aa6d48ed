//go:build linux

package main

import "os"

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-overlay" {
			// The window toolkit owns the main thread.
			runOverlay()
			return
		}
	}
	run()
}
