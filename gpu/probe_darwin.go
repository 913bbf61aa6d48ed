//go:build darwin

package gpu

import (
	"os/exec"
	"strings"
)

// Metal ships with macOS, so the probe never degrades to CPU here.
func probeBackend() Backend {
	return Metal
}

func vulkanVersion() string {
	return ""
}

func detectOS() OSInfo {
	info := OSInfo{Platform: "darwin"}
	out, err := exec.Command("sw_vers", "-productVersion").Output()
	if err == nil {
		info.Version = strings.TrimSpace(string(out))
	}
	return info
}
