//go:build linux

package gpu

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

var vulkanLibraryPaths = []string{
	"/usr/lib/x86_64-linux-gnu/libvulkan.so.1",
	"/usr/lib/x86_64-linux-gnu/libvulkan.so",
	"/usr/lib64/libvulkan.so.1",
	"/usr/lib64/libvulkan.so",
	"/usr/lib/libvulkan.so",
}

func probeBackend() Backend {
	if cudaAvailable() {
		return CUDA
	}
	if hipblasAvailable() {
		return HIPBlas
	}
	if vulkanAvailable() {
		return Vulkan
	}
	return CPU
}

func cudaAvailable() bool {
	return exec.Command("nvidia-smi").Run() == nil
}

func hipblasAvailable() bool {
	if _, err := os.Stat("/opt/rocm"); err != nil {
		return false
	}
	err := exec.Command("rocminfo").Run()
	if err == nil {
		return true
	}
	// rocminfo missing entirely: the install directory alone counts.
	return errors.Is(err, exec.ErrNotFound)
}

func vulkanAvailable() bool {
	if exec.Command("vulkaninfo", "--summary").Run() == nil {
		return true
	}
	for _, p := range vulkanLibraryPaths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func vulkanVersion() string {
	out, err := exec.Command("vulkaninfo", "--summary").Output()
	if err != nil {
		return ""
	}
	return parseVulkanVersion(string(out))
}

func detectOS() OSInfo {
	info := OSInfo{Platform: "linux"}
	if content, err := os.ReadFile("/etc/os-release"); err == nil {
		info.Distribution, info.Version = parseOSRelease(string(content))
	}
	if info.Distribution == "" {
		for _, probe := range []struct{ path, id string }{
			{"/etc/debian_version", "debian"},
			{"/etc/fedora-release", "fedora"},
			{"/etc/arch-release", "arch"},
			{"/etc/SuSE-release", "opensuse"},
		} {
			if _, err := os.Stat(probe.path); err == nil {
				info.Distribution = probe.id
				break
			}
		}
	}
	return info
}

func parseOSRelease(content string) (id, version string) {
	for _, line := range strings.Split(content, "\n") {
		if v, ok := strings.CutPrefix(line, "ID="); ok {
			id = strings.ToLower(strings.Trim(v, `"`))
		}
		if v, ok := strings.CutPrefix(line, "VERSION_ID="); ok {
			version = strings.Trim(v, `"`)
		}
	}
	return id, version
}
