//go:build darwin

package permissions

import (
	"murmur/audio"
)

// macOS gates the microphone behind TCC. Without linking AVFoundation the
// status cannot be read directly; opening a capture device is the probe,
// and the first attempt raises the system permission dialog.
func checkMicrophone() Status {
	ctx, err := audio.NewContext()
	if err != nil {
		return NotDetermined
	}
	defer ctx.Close()

	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return Denied
	}
	dev.Close()
	return Authorized
}

func requestMicrophone() (bool, error) {
	ctx, err := audio.NewContext()
	if err != nil {
		return false, err
	}
	defer ctx.Close()

	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return false, ErrPermissionDenied
	}
	// Starting the stream is what triggers the TCC prompt on first run.
	if err := dev.Start(); err != nil {
		dev.Close()
		return false, ErrPermissionDenied
	}
	dev.Stop()
	dev.Close()
	return true, nil
}

func remediationSteps() []string {
	return []string{
		"Open System Settings → Privacy & Security → Microphone",
		"Enable microphone access for your terminal or for murmur",
		"Restart murmur after changing the setting",
	}
}
