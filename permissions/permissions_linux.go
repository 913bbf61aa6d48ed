//go:build linux

package permissions

import (
	"os"
	"os/exec"
	"strings"

	"murmur/log"
)

// Linux has no permission dialog. Access is decided by /dev/snd device
// nodes, the legacy 'audio' group, or the PipeWire/PulseAudio session;
// the last cannot be checked ahead of time, so the check is optimistic
// and capture errors carry the real answer.
func checkMicrophone() Status {
	entries, err := os.ReadDir("/dev/snd")
	if err != nil {
		log.Warnf("cannot access /dev/snd: %v", err)
		return notDeterminedFromGroups()
	}

	hasCapture := false
	for _, e := range entries {
		if isCaptureNode(e.Name()) {
			hasCapture = true
			if _, err := os.Stat("/dev/snd/" + e.Name()); err == nil {
				return Authorized
			}
		}
	}
	if !hasCapture {
		log.Warn("no audio capture devices found in /dev/snd")
		return NotDetermined
	}
	return notDeterminedFromGroups()
}

// Capture PCM nodes are named pcmC<card>D<device>c.
func isCaptureNode(name string) bool {
	return strings.HasPrefix(name, "pcm") && strings.HasSuffix(name, "c")
}

func notDeterminedFromGroups() Status {
	out, err := exec.Command("id", "-Gn").Output()
	if err == nil && userInAudioGroup(string(out)) {
		return Authorized
	}
	// Modern PipeWire setups grant access dynamically; let capture try.
	return Authorized
}

func userInAudioGroup(groups string) bool {
	for _, g := range strings.Fields(groups) {
		if g == "audio" {
			return true
		}
	}
	return false
}

func requestMicrophone() (bool, error) {
	if checkMicrophone() == Authorized {
		return true, nil
	}
	// No dialog to raise; report possible and let the capture layer
	// produce the precise error.
	return true, nil
}

func remediationSteps() []string {
	return []string{
		"Ensure your user is in the 'audio' group: sudo usermod -aG audio $USER",
		"Check PipeWire/PulseAudio is running: systemctl --user status pipewire",
		"Verify audio devices exist: ls -l /dev/snd/",
		"List capture devices: arecord -l",
	}
}
