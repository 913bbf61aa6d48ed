package whisper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	wcpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"murmur/gpu"
	"murmur/log"
)

// CppEngine runs whisper.cpp through its Go bindings. A single model is
// resident; Load releases the previous model before acquiring the new one
// so peak memory stays at one model.
type CppEngine struct {
	mu      sync.Mutex
	model   wcpp.Model
	modelID string
	status  LoadResult
	threads uint
}

func NewCppEngine() *CppEngine {
	return &CppEngine{threads: OptimalThreads()}
}

func (e *CppEngine) Load(modelPath string, backend gpu.Backend, forceCPU bool) (LoadResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := os.Stat(modelPath); err != nil {
		return LoadResult{}, fmt.Errorf("%w: %s", ErrModelMissing, modelPath)
	}

	// Release before acquire: with multi-GB models, holding old and new at
	// once can OOM the machine.
	if e.model != nil {
		e.model.Close()
		e.model = nil
		e.status = LoadResult{}
	}

	wantGPU := backend != gpu.CPU && !forceCPU
	log.Infof("loading model %s (backend=%s forceCPU=%v)", modelPath, backend, forceCPU)

	model, err := wcpp.New(modelPath)
	fallback := false
	if err != nil && wantGPU {
		// A broken GPU runtime can poison initialization. Exactly one
		// retry; whisper.cpp runs CPU-only once the failed backend is
		// marked unusable.
		log.Warnf("model load failed with %s, retrying on CPU: %v", backend, err)
		fallback = true
		model, err = wcpp.New(modelPath)
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("%w: %v", ErrBackendInit, err)
	}

	e.model = model
	e.modelID = modelIDFromPath(modelPath)
	e.status = LoadResult{
		UsingGPU:     wantGPU && !fallback,
		Backend:      backend,
		FallbackUsed: fallback,
	}
	if !e.status.UsingGPU {
		e.status.Backend = gpu.CPU
	}
	log.Infof("model %s loaded (backend=%s fallback=%v)", e.modelID, e.status.Backend, fallback)
	return e.status, nil
}

func (e *CppEngine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		e.model.Close()
		e.model = nil
	}
	e.modelID = ""
	e.status = LoadResult{}
}

func (e *CppEngine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model != nil
}

func (e *CppEngine) Status() LoadResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *CppEngine) Transcribe(ctx context.Context, samples []float32, lang string, onPartial PartialFunc) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return Result{}, ErrNotLoaded
	}
	if len(samples) == 0 {
		return Result{}, ErrInvalidAudio
	}

	start := time.Now()
	result := Result{
		Model:   e.modelID,
		Backend: e.status.Backend.String(),
	}

	if nearSilence(samples) {
		result.Duration = time.Since(start)
		return result, nil
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		log.Warnf("language %q rejected, using auto: %v", lang, err)
		wctx.SetLanguage("auto")
	}
	wctx.SetTranslate(false)
	wctx.SetThreads(e.threads)

	var segments []Segment
	partialSent := false

	encoderBegin := func() bool {
		return ctx.Err() == nil
	}
	onSegment := func(seg wcpp.Segment) {
		segments = append(segments, Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
		})
		if onPartial != nil && !partialSent {
			partialSent = true
			onPartial(joinSegments(segments))
		}
	}

	if err := wctx.Process(samples, encoderBegin, onSegment, nil); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	result.Segments = segments
	result.Text = joinSegments(segments)
	result.Duration = time.Since(start)
	return result, nil
}

func joinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}
