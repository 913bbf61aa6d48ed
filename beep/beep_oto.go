//go:build !linux && !darwin

package beep

import (
	"bytes"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoCtx       *oto.Context
	startSamples []byte
	stopSamples  []byte
	errorSamples []byte
	soundOnce    sync.Once
)

func initSound() {
	var ready chan struct{}
	var err error
	otoCtx, ready, err = oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		otoCtx = nil
		return
	}
	<-ready

	startSamples = toBytes(render(startTone, 0.03))
	stopSamples = toBytes(render(stopTone, 0.05))
	errorSamples = toBytes(renderDouble(errorTone, 0.08, 0.05))
}

func playBytes(samples []byte) {
	if otoCtx == nil || len(samples) == 0 {
		return
	}
	player := otoCtx.NewPlayer(bytes.NewReader(samples))
	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
	}()
}

func Init() {
	soundOnce.Do(initSound)
}

func PlayStart() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	playBytes(startSamples)
}

func PlayEnd() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	playBytes(stopSamples)
}

func PlayError() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	playBytes(errorSamples)
}
