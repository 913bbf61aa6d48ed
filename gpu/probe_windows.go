//go:build windows

package gpu

import (
	"os"
	"os/exec"
)

func probeBackend() Backend {
	if cudaAvailable() {
		return CUDA
	}
	if vulkanAvailable() {
		return Vulkan
	}
	return CPU
}

func cudaAvailable() bool {
	return exec.Command("nvidia-smi").Run() == nil
}

func vulkanAvailable() bool {
	if exec.Command("vulkaninfo", "--summary").Run() == nil {
		return true
	}
	_, err := os.Stat(`C:\Windows\System32\vulkan-1.dll`)
	return err == nil
}

func vulkanVersion() string {
	out, err := exec.Command("vulkaninfo", "--summary").Output()
	if err != nil {
		return ""
	}
	return parseVulkanVersion(string(out))
}

func detectOS() OSInfo {
	return OSInfo{Platform: "windows"}
}
