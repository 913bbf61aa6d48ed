package gpu

import "strings"

// InstallGuide tells the user how to get a GPU path working when the probe
// found none. On Linux it carries package-manager commands; on Windows it
// carries driver download links.
type InstallGuide struct {
	Title       string
	Description string
	Steps       []string
	Downloads   []DownloadLink
	Commands    []string
}

type DownloadLink struct {
	Name string
	URL  string
}

func installGuide(os OSInfo) InstallGuide {
	switch os.Platform {
	case "windows":
		return windowsGuide()
	case "linux":
		return linuxGuide(os.Distribution)
	default:
		return InstallGuide{
			Title:       "GPU Acceleration",
			Description: "GPU acceleration is not available on this platform; CPU mode will be used.",
			Steps:       []string{"No action required"},
		}
	}
}

func windowsGuide() InstallGuide {
	return InstallGuide{
		Title:       "Install Vulkan on Windows",
		Description: "Modern GPU drivers include Vulkan. Update your graphics drivers to enable acceleration.",
		Steps: []string{
			"Download the latest drivers for your graphics card",
			"Install the drivers and restart",
			"Relaunch murmur",
		},
		Downloads: []DownloadLink{
			{Name: "NVIDIA GeForce Drivers", URL: "https://www.nvidia.com/Download/index.aspx"},
			{Name: "AMD Radeon Drivers", URL: "https://www.amd.com/en/support"},
			{Name: "Intel Graphics Drivers", URL: "https://www.intel.com/content/www/us/en/download-center/home.html"},
		},
	}
}

func linuxGuide(distribution string) InstallGuide {
	var title string
	var commands []string

	switch distribution {
	case "ubuntu", "debian", "linuxmint", "pop":
		title = "Install Vulkan on Ubuntu/Debian"
		commands = []string{
			"sudo apt update",
			"sudo apt install -y libvulkan1 vulkan-tools mesa-vulkan-drivers",
		}
	case "fedora", "rhel", "centos", "rocky", "almalinux":
		title = "Install Vulkan on Fedora/RHEL"
		commands = []string{"sudo dnf install -y vulkan-loader vulkan-tools mesa-vulkan-drivers"}
	case "arch", "manjaro", "endeavouros":
		title = "Install Vulkan on Arch Linux"
		commands = []string{"sudo pacman -S vulkan-icd-loader vulkan-tools mesa"}
	case "opensuse", "suse", "opensuse-tumbleweed", "opensuse-leap":
		title = "Install Vulkan on openSUSE"
		commands = []string{"sudo zypper install libvulkan1 vulkan-tools Mesa-vulkan-drivers"}
	default:
		title = "Install Vulkan on Linux"
		commands = []string{
			"# Debian/Ubuntu:",
			"sudo apt install -y libvulkan1 vulkan-tools mesa-vulkan-drivers",
			"# Fedora:",
			"sudo dnf install -y vulkan-loader vulkan-tools mesa-vulkan-drivers",
		}
	}

	return InstallGuide{
		Title:       title,
		Description: "Install Vulkan packages using your package manager.",
		Steps: []string{
			"Open a terminal",
			"Run the commands below",
			"Relaunch murmur",
		},
		Commands: commands,
	}
}

// parseVulkanVersion extracts the instance version from `vulkaninfo --summary`.
func parseVulkanVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "Vulkan Instance Version:") || strings.Contains(line, "apiVersion") {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				return fields[len(fields)-1]
			}
		}
	}
	return ""
}
