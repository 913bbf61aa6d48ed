//go:build !linux && !darwin && !windows

package gpu

import "runtime"

func probeBackend() Backend {
	return CPU
}

func vulkanVersion() string {
	return ""
}

func detectOS() OSInfo {
	return OSInfo{Platform: runtime.GOOS}
}
