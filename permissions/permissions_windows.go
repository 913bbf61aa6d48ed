//go:build windows

package permissions

import (
	"os/exec"

	"murmur/audio"
	"murmur/log"
)

// Windows exposes microphone privacy as a per-app toggle. Device
// enumeration succeeding is the best proxy available without WinRT.
func checkMicrophone() Status {
	ctx, err := audio.NewContext()
	if err != nil {
		return NotDetermined
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		return Denied
	}
	if len(devices) == 0 {
		return NotDetermined
	}
	return Authorized
}

func requestMicrophone() (bool, error) {
	if checkMicrophone() == Authorized {
		return true, nil
	}
	if err := OpenSettings(); err != nil {
		log.Warnf("cannot open microphone settings: %v", err)
	}
	return false, ErrPermissionDenied
}

// OpenSettings opens the Windows microphone privacy page.
func OpenSettings() error {
	return exec.Command("cmd", "/C", "start", "ms-settings:privacy-microphone").Start()
}

func remediationSteps() []string {
	return []string{
		"Open Settings → Privacy & security → Microphone",
		"Enable 'Let desktop apps access your microphone'",
		"Plug in or enable a recording device if none is listed",
	}
}
