// Package whisper adapts local whisper.cpp inference behind a small engine
// interface. One model is resident at a time; transcription is synchronous
// and callers serialize through the session layer.
package whisper

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"runtime"
	"time"

	"murmur/gpu"
)

var (
	ErrNotLoaded           = errors.New("model not loaded")
	ErrModelMissing        = errors.New("model file not found")
	ErrInvalidAudio        = errors.New("invalid audio data")
	ErrBackendInit         = errors.New("backend initialization failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// Segment is one timed span of recognized text.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Result is a completed transcription.
type Result struct {
	Text     string
	Segments []Segment
	Model    string
	Backend  string
	Duration time.Duration
}

// LoadResult reports how the model ended up loaded.
type LoadResult struct {
	UsingGPU     bool
	Backend      gpu.Backend
	FallbackUsed bool
}

// PartialFunc receives early text while a transcription is still running.
type PartialFunc func(text string)

// Engine is the transcription backend. Load replaces any resident model;
// Transcribe blocks until the audio is decoded or ctx is canceled.
type Engine interface {
	Load(modelPath string, backend gpu.Backend, forceCPU bool) (LoadResult, error)
	Unload()
	Loaded() bool
	Status() LoadResult
	Transcribe(ctx context.Context, samples []float32, lang string, onPartial PartialFunc) (Result, error)
}

// OptimalThreads returns 75% of available CPUs, minimum 1, leaving headroom
// for the UI and the capture callback.
func OptimalThreads() uint {
	cpus := runtime.NumCPU()
	if cpus < 1 {
		cpus = 4
	}
	threads := int(math.Ceil(float64(cpus) * 0.75))
	if threads < 1 {
		threads = 1
	}
	return uint(threads)
}

// SamplesFromPCM converts S16LE mono bytes to normalized float32 samples.
func SamplesFromPCM(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// nearSilence reports whether the audio never rises above the peak gate.
// Feeding pure silence to the model wastes seconds and tends to hallucinate
// text, so such buffers are answered with an empty result instead.
const silencePeakGate = 0.01

func nearSilence(samples []float32) bool {
	for _, s := range samples {
		if s > silencePeakGate || s < -silencePeakGate {
			return false
		}
	}
	return true
}
