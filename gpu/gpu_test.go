package gpu

import (
	"strings"
	"testing"
)

func TestBackendStrings(t *testing.T) {
	cases := []struct {
		backend Backend
		want    string
	}{
		{CPU, "CPU"},
		{Metal, "Metal"},
		{CUDA, "CUDA"},
		{HIPBlas, "HIPBlas (ROCm)"},
		{Vulkan, "Vulkan"},
	}
	for _, c := range cases {
		if got := c.backend.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.backend, got, c.want)
		}
		if c.backend.Description() == "" {
			t.Errorf("%s has empty description", c.want)
		}
	}
}

func TestSelectForceCPU(t *testing.T) {
	if got := Select(true); got != CPU {
		t.Fatalf("Select(forceCPU) = %s, want CPU", got)
	}
}

func TestProbeIsCached(t *testing.T) {
	first := Probe()
	second := Probe()
	if first != second {
		t.Fatalf("Probe not cached: %+v vs %+v", first, second)
	}
	if first.Accelerated != (first.Best != CPU) {
		t.Fatalf("Accelerated=%v inconsistent with Best=%s", first.Accelerated, first.Best)
	}
}

func TestInstallGuideWindows(t *testing.T) {
	g := installGuide(OSInfo{Platform: "windows"})
	if len(g.Downloads) == 0 {
		t.Fatal("windows guide should carry driver download links")
	}
	if len(g.Commands) != 0 {
		t.Fatal("windows guide should not carry terminal commands")
	}
}

func TestInstallGuideLinuxDistros(t *testing.T) {
	cases := []struct {
		distro string
		expect string
	}{
		{"ubuntu", "apt"},
		{"debian", "apt"},
		{"fedora", "dnf"},
		{"arch", "pacman"},
		{"opensuse", "zypper"},
		{"gentoo", "apt"}, // unknown distro gets the generic multi-distro guide
	}
	for _, c := range cases {
		g := installGuide(OSInfo{Platform: "linux", Distribution: c.distro})
		if len(g.Commands) == 0 {
			t.Fatalf("%s: guide has no commands", c.distro)
		}
		joined := strings.Join(g.Commands, "\n")
		if !strings.Contains(joined, c.expect) {
			t.Errorf("%s: commands %q missing %q", c.distro, joined, c.expect)
		}
		if len(g.Downloads) != 0 {
			t.Errorf("%s: linux guide should not carry download links", c.distro)
		}
	}
}

func TestParseVulkanVersion(t *testing.T) {
	out := "==========\nVULKANINFO\n==========\n\nVulkan Instance Version: 1.3.275\n"
	if got := parseVulkanVersion(out); got != "1.3.275" {
		t.Fatalf("parseVulkanVersion = %q, want 1.3.275", got)
	}
	if got := parseVulkanVersion("no vulkan here"); got != "" {
		t.Fatalf("parseVulkanVersion on garbage = %q, want empty", got)
	}
}
