// Package doctor runs non-interactive system diagnostics: microphone
// permission and devices, GPU acceleration, model files, clipboard, and
// the global shortcut. Suitable for scripting; exits 0 only when every
// required check passes.
package doctor

import (
	"fmt"
	"time"

	"murmur/audio"
	"murmur/clipboard"
	"murmur/config"
	"murmur/gpu"
	"murmur/permissions"
	"murmur/shortcut"
	"murmur/whisper"
)

// Run executes all checks against cfg and returns an exit code
// (0 = all pass, 1 = any fail).
func Run(cfg config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("murmur doctor - system diagnostics")
	fmt.Println("==================================")

	allPass := true
	for _, check := range []func(config.Config) bool{
		checkPermission,
		checkDevices,
		checkGPU,
		checkModels,
		checkClipboard,
		checkShortcut,
	} {
		if !check(cfg) {
			allPass = false
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkPermission(config.Config) bool {
	fmt.Println()
	fmt.Println("[1/6] Microphone permission")

	st := permissions.Check()
	if st == permissions.Authorized {
		fmt.Println("  PASS: microphone access authorized")
		return true
	}
	fmt.Printf("  FAIL: microphone access %s\n", st)
	for _, step := range permissions.Remediation() {
		fmt.Printf("    - %s\n", step)
	}
	return false
}

func checkDevices(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[2/6] Capture devices")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	for _, d := range devices {
		tag := ""
		if audio.IsBluetooth(d.Name) {
			tag = " (bluetooth - reduced quality while recording)"
		}
		fmt.Printf("  - %s%s\n", d.Name, tag)
	}
	if cfg.Device != "" {
		found := false
		for _, d := range devices {
			if d.ID == cfg.Device || d.Name == cfg.Device {
				found = true
				break
			}
		}
		if !found {
			fmt.Printf("  FAIL: configured device %q not present\n", cfg.Device)
			return false
		}
	}
	fmt.Printf("  PASS: %d capture device(s)\n", len(devices))
	return true
}

func checkGPU(config.Config) bool {
	fmt.Println()
	fmt.Println("[3/6] GPU acceleration")

	report := gpu.Probe()
	if report.Accelerated {
		extra := ""
		if report.VulkanVersion != "" {
			extra = fmt.Sprintf(" (Vulkan %s)", report.VulkanVersion)
		}
		fmt.Printf("  PASS: %s%s\n", report.Best, extra)
		return true
	}

	// CPU-only is not a failure, just slower.
	fmt.Println("  WARN: no GPU backend found, transcription runs on CPU")
	if report.Guide != nil {
		fmt.Printf("  %s\n", report.Guide.Title)
		for _, cmd := range report.Guide.Commands {
			fmt.Printf("    $ %s\n", cmd)
		}
	}
	return true
}

func checkModels(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[4/6] Model files")

	available := whisper.Available(cfg.ModelsDir)
	if len(available) == 0 {
		fmt.Printf("  FAIL: no models under %s\n", cfg.ModelsDir)
		fmt.Printf("    expected e.g. %s\n", whisper.Filename(cfg.Model, cfg.Quantization))
		return false
	}
	for _, m := range available {
		fmt.Printf("  - %s (%s)\n", m.ID, m.Quant)
	}

	want := whisper.ModelPath(cfg.ModelsDir, cfg.Model, cfg.Quantization)
	for _, m := range available {
		if m.ID == cfg.Model {
			fmt.Printf("  PASS: configured model %q present\n", cfg.Model)
			return true
		}
	}
	fmt.Printf("  FAIL: configured model not found at %s\n", want)
	return false
}

func checkClipboard(config.Config) bool {
	fmt.Println()
	fmt.Println("[5/6] Clipboard")

	// Run with a timeout: clipboard helpers can hang when no compositor
	// or display is reachable.
	ch := make(chan error, 1)
	go func() { ch <- clipboard.Verify() }()

	select {
	case err := <-ch:
		if err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (no display/compositor access?)")
		return false
	}
}

func checkShortcut(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[6/6] Global shortcut")

	if _, err := shortcut.ParseBinding(cfg.Shortcut.Binding); err != nil {
		fmt.Printf("  FAIL: binding %q: %v\n", cfg.Shortcut.Binding, err)
		return false
	}

	msg, err := shortcut.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if msg != "" {
		fmt.Printf("  %s\n", msg)
	}
	fmt.Printf("  PASS: binding %q usable\n", cfg.Shortcut.Binding)
	return true
}
