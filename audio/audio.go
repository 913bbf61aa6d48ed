package audio

import (
	"errors"
	"strings"
)

// Whisper operates on 16 kHz mono PCM; everything upstream captures in
// that format so no resampling is needed at transcription time.
const (
	SampleRate = 16000
	Channels   = 1
)

var (
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrNoInputDevice     = errors.New("no capture devices found")
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses whether a capture device is a Bluetooth headset.
// BT microphones drop to a low-bitrate codec while recording, which hurts
// recognition quality, so the UI warns when one is selected.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

// CaptureDevice is a single acquired microphone stream. Stop and Close are
// idempotent; Close always releases the underlying device, including on
// error paths, so a crashed session never leaves the input locked.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}
