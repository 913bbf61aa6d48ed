package whisper

import (
	"context"
	"sync"
	"time"

	"murmur/gpu"
)

// Fake is a scripted engine for session tests.
type Fake struct {
	mu sync.Mutex

	Text      string
	Partial   string
	LoadErr   error
	Err       error
	Delay     time.Duration
	GPUResult LoadResult
	loaded    bool
	Calls     int // Transcribe invocations observed
	LastLang  string
	LastLen   int
}

func NewFake(text string) *Fake {
	return &Fake{Text: text}
}

func (f *Fake) Load(modelPath string, backend gpu.Backend, forceCPU bool) (LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoadErr != nil {
		return LoadResult{}, f.LoadErr
	}
	f.loaded = true
	if f.GPUResult == (LoadResult{}) {
		f.GPUResult = LoadResult{UsingGPU: backend != gpu.CPU && !forceCPU, Backend: backend}
	}
	return f.GPUResult, nil
}

func (f *Fake) Unload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = false
}

func (f *Fake) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

func (f *Fake) Status() LoadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.GPUResult
}

func (f *Fake) Transcribe(ctx context.Context, samples []float32, lang string, onPartial PartialFunc) (Result, error) {
	f.mu.Lock()
	if !f.loaded {
		f.mu.Unlock()
		return Result{}, ErrNotLoaded
	}
	f.Calls++
	f.LastLang = lang
	f.LastLen = len(samples)
	text, partial, errOut, delay := f.Text, f.Partial, f.Err, f.Delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if errOut != nil {
		return Result{}, errOut
	}
	if onPartial != nil && partial != "" {
		onPartial(partial)
	}
	r := Result{Text: text, Model: "fake", Backend: "CPU", Duration: delay}
	if text != "" {
		r.Segments = []Segment{{Text: text, Start: 0, End: time.Second}}
	}
	return r, nil
}
