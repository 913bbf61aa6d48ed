// Package beep plays short audio cues for session transitions: a tick when
// listening starts, a lower tick when it stops, and a double-beep on error.
// Playback is fire-and-forget and never blocks the session.
package beep

import "math"

var disabled bool

// Disable turns all cues off.
func Disable() { disabled = true }

const sampleRate = 44100

type tone struct {
	freq   float64
	volume float64
	decay  float64
}

var (
	startTone = tone{freq: 1200, volume: 0.5, decay: 60}
	stopTone  = tone{freq: 900, volume: 0.5, decay: 40}
	errorTone = tone{freq: 350, volume: 0.6, decay: 30}
)

// render produces mono samples with an exponential decay envelope.
func render(t tone, duration float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		ts := float64(i) / sampleRate
		envelope := math.Exp(-ts * t.decay)
		samples[i] = int16(math.Sin(2*math.Pi*t.freq*ts) * 32767 * t.volume * envelope)
	}
	return samples
}

// renderDouble is two renders of the same tone with a gap between, used
// for the error cue.
func renderDouble(t tone, beepDur, gapDur float64) []int16 {
	b := render(t, beepDur)
	gap := make([]int16, int(sampleRate*gapDur))
	out := make([]int16, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	out = append(out, b...)
	return out
}

func toBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

func toStereo(samples []int16) []int16 {
	out := make([]int16, len(samples)*2)
	for i, s := range samples {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}
