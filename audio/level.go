package audio

import (
	"encoding/binary"
	"math"
)

// Meter converts raw PCM blocks into a normalized 0..1 loudness value for
// the live level display. Loudness perception is logarithmic, so the RMS
// amplitude is mapped through a dB scale: -40 dB reads as 0, -10 dB as 1.
// The only state carried across blocks is a short exponential smoothing of
// the displayed value; the meter is never authoritative for anything.
type Meter struct {
	smoothed float64
}

const (
	meterFloorDB = -40.0
	meterRangeDB = 30.0
	meterSmooth  = 0.4 // weight of the newest block
)

func NewMeter() *Meter {
	return &Meter{}
}

// Process consumes one block of S16LE mono PCM and returns the smoothed
// display level in [0,1].
func (m *Meter) Process(data []byte) float64 {
	raw := RMS(data)
	level := 0.0
	if raw > 0.001 {
		db := 20 * math.Log10(raw)
		level = (db - meterFloorDB) / meterRangeDB
		if level < 0 {
			level = 0
		} else if level > 1 {
			level = 1
		}
	}
	m.smoothed = meterSmooth*level + (1-meterSmooth)*m.smoothed
	return m.smoothed
}

// Reset clears smoothing state between sessions.
func (m *Meter) Reset() {
	m.smoothed = 0
}

// RMS computes the root-mean-square amplitude of an S16LE block,
// normalized to [0,1].
func RMS(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}
	var sumSquares float64
	n := 0
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
		n++
	}
	return math.Sqrt(sumSquares / float64(n))
}
