package whisper

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"murmur/gpu"
)

func TestOptimalThreadsAtLeastOne(t *testing.T) {
	if got := OptimalThreads(); got < 1 {
		t.Fatalf("OptimalThreads() = %d, want >= 1", got)
	}
}

func TestSamplesFromPCM(t *testing.T) {
	// 0x7FFF -> ~1.0, 0x8000 -> -1.0, 0x0000 -> 0.
	pcm := []byte{0xFF, 0x7F, 0x00, 0x80, 0x00, 0x00}
	samples := SamplesFromPCM(pcm)
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if math.Abs(float64(samples[0])-1.0) > 0.001 {
		t.Errorf("samples[0] = %v, want ~1.0", samples[0])
	}
	if samples[1] != -1.0 {
		t.Errorf("samples[1] = %v, want -1.0", samples[1])
	}
	if samples[2] != 0 {
		t.Errorf("samples[2] = %v, want 0", samples[2])
	}
}

func TestNearSilence(t *testing.T) {
	quiet := make([]float32, 1600)
	for i := range quiet {
		quiet[i] = 0.002
	}
	if !nearSilence(quiet) {
		t.Fatal("quiet buffer should gate as silence")
	}
	quiet[800] = -0.3
	if nearSilence(quiet) {
		t.Fatal("buffer with a speech peak should not gate")
	}
}

func TestModelFilename(t *testing.T) {
	if got := Filename("small", "q5_0"); got != "ggml-small-q5_0.bin" {
		t.Fatalf("Filename = %q", got)
	}
	if got := Filename("large-v3-turbo", "q5_0"); got != "ggml-large-v3-turbo-q5_0.bin" {
		t.Fatalf("Filename = %q", got)
	}
}

func TestModelIDFromPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/models/ggml-small-q5_0.bin", "small"},
		{"/models/ggml-large-v3-turbo-q5_0.bin", "large-v3-turbo"},
		{"/models/ggml-base.bin", "base"},
		{"/models/custom.bin", "custom"},
	}
	for _, c := range cases {
		if got := modelIDFromPath(c.path); got != c.want {
			t.Errorf("modelIDFromPath(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestAvailableListsOnlyPresentFiles(t *testing.T) {
	dir := t.TempDir()
	path := ModelPath(dir, "small", "q5_0")
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := Available(dir)
	if len(got) != 1 || got[0].ID != "small" {
		t.Fatalf("Available = %+v, want just small", got)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("ModelPath placed file outside dir: %s", path)
	}
}

func TestCppEngineLoadMissingModel(t *testing.T) {
	e := NewCppEngine()
	_, err := e.Load(filepath.Join(t.TempDir(), "nope.bin"), gpu.CPU, false)
	if !errors.Is(err, ErrModelMissing) {
		t.Fatalf("err = %v, want ErrModelMissing", err)
	}
	if e.Loaded() {
		t.Fatal("engine should not report loaded after failed load")
	}
}

func TestCppEngineTranscribeUnloaded(t *testing.T) {
	e := NewCppEngine()
	_, err := e.Transcribe(context.Background(), make([]float32, 1600), "en", nil)
	if !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("err = %v, want ErrNotLoaded", err)
	}
}

func TestFakeEngineScript(t *testing.T) {
	f := NewFake("hello world")
	f.Partial = "hello"

	if _, err := f.Transcribe(context.Background(), nil, "en", nil); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("unloaded fake: err = %v, want ErrNotLoaded", err)
	}

	if _, err := f.Load("x", gpu.Metal, false); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var partials []string
	r, err := f.Transcribe(context.Background(), make([]float32, 8000), "en", func(text string) {
		partials = append(partials, text)
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if r.Text != "hello world" {
		t.Fatalf("Text = %q", r.Text)
	}
	if len(partials) != 1 || partials[0] != "hello" {
		t.Fatalf("partials = %v", partials)
	}
	if f.Calls != 1 || f.LastLang != "en" || f.LastLen != 8000 {
		t.Fatalf("call bookkeeping: calls=%d lang=%q len=%d", f.Calls, f.LastLang, f.LastLen)
	}

	f.Unload()
	if f.Loaded() {
		t.Fatal("fake still loaded after Unload")
	}
}
