// Package gpu detects which acceleration backend the local transcription
// engine can use on this machine. Detection shells out to vendor tools
// (nvidia-smi, rocminfo, vulkaninfo) and checks well-known install paths;
// it never requires the GPU runtime to be linked in. The probe result is
// cached for the lifetime of the process.
package gpu

import (
	"sync"

	"murmur/log"
)

// Backend identifies an acceleration path for inference.
type Backend int

const (
	CPU Backend = iota
	Metal
	CUDA
	HIPBlas
	Vulkan
)

func (b Backend) String() string {
	switch b {
	case Metal:
		return "Metal"
	case CUDA:
		return "CUDA"
	case HIPBlas:
		return "HIPBlas (ROCm)"
	case Vulkan:
		return "Vulkan"
	default:
		return "CPU"
	}
}

// Description returns a one-line human explanation for diagnostics output.
func (b Backend) Description() string {
	switch b {
	case Metal:
		return "Apple Metal GPU acceleration (macOS)"
	case CUDA:
		return "NVIDIA CUDA GPU acceleration"
	case HIPBlas:
		return "AMD ROCm/HIPBlas GPU acceleration (Linux)"
	case Vulkan:
		return "Vulkan cross-platform GPU acceleration"
	default:
		return "CPU-only processing (no GPU acceleration)"
	}
}

// OSInfo describes the host for install-guide selection.
type OSInfo struct {
	Platform     string // "linux", "darwin", "windows"
	Version      string // empty when not detectable
	Distribution string // linux only: "ubuntu", "fedora", "arch", ...
}

// Report is the result of probing the machine once at startup.
type Report struct {
	// Best is the strongest backend the probe found; CPU when no GPU
	// path is usable.
	Best Backend
	// Accelerated is false when Best == CPU.
	Accelerated bool
	// VulkanVersion is filled only when the Vulkan path was confirmed.
	VulkanVersion string
	OS            OSInfo
	// Guide is non-nil when no GPU path was found on a platform where
	// one could be installed.
	Guide *InstallGuide
}

var (
	probeOnce   sync.Once
	probeResult Report
)

// Probe detects the best available backend. The underlying system checks
// run once; later calls return the cached report.
func Probe() Report {
	probeOnce.Do(func() {
		probeResult = runProbe()
		log.Infof("gpu probe: platform=%s backend=%s accelerated=%v",
			probeResult.OS.Platform, probeResult.Best, probeResult.Accelerated)
	})
	return probeResult
}

// Select resolves the backend to request from the engine. forceCPU wins
// over everything; otherwise the probe's best backend is used.
func Select(forceCPU bool) Backend {
	if forceCPU {
		return CPU
	}
	return Probe().Best
}

func runProbe() Report {
	osInfo := detectOS()
	best := probeBackend()

	r := Report{
		Best:        best,
		Accelerated: best != CPU,
		OS:          osInfo,
	}
	if best == Vulkan {
		r.VulkanVersion = vulkanVersion()
	}
	if best == CPU && osInfo.Platform != "darwin" {
		g := installGuide(osInfo)
		r.Guide = &g
	}
	return r
}
