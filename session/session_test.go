package session

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"murmur/audio"
	"murmur/gpu"
	"murmur/history"
	"murmur/permissions"
	"murmur/whisper"
)

// collectSink records every event for later inspection.
type collectSink struct {
	mu        sync.Mutex
	statuses  []Status
	levels    int
	partials  []string
	finals    []string
	silences  []SilenceEvent
	permSteps [][]string
	errs      []error
}

func (c *collectSink) StatusChanged(s Status) {
	c.mu.Lock()
	c.statuses = append(c.statuses, s)
	c.mu.Unlock()
}

func (c *collectSink) AudioLevel(float64) {
	c.mu.Lock()
	c.levels++
	c.mu.Unlock()
}

func (c *collectSink) Partial(text string) {
	c.mu.Lock()
	c.partials = append(c.partials, text)
	c.mu.Unlock()
}

func (c *collectSink) Final(text string, _ whisper.Result) {
	c.mu.Lock()
	c.finals = append(c.finals, text)
	c.mu.Unlock()
}

func (c *collectSink) Silence(ev SilenceEvent) {
	c.mu.Lock()
	c.silences = append(c.silences, ev)
	c.mu.Unlock()
}

func (c *collectSink) PermissionRequired(steps []string) {
	c.mu.Lock()
	c.permSteps = append(c.permSteps, steps)
	c.mu.Unlock()
}

func (c *collectSink) SessionError(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []history.Record
}

func (f *fakeRecorder) Append(_ context.Context, r history.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

func tonePCM(durationMs int) []byte {
	n := audio.SampleRate * durationMs / 1000
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		sample := int16(16000 * math.Sin(2*math.Pi*440*float64(i)/audio.SampleRate))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}

func loadedFake(t *testing.T, text string) *whisper.Fake {
	t.Helper()
	eng := whisper.NewFake(text)
	if _, err := eng.Load("fake.bin", gpu.CPU, true); err != nil {
		t.Fatalf("fake load: %v", err)
	}
	return eng
}

func newTestMachine(t *testing.T, pcm []byte, eng *whisper.Fake, sink EventSink, opts Options) *Machine {
	t.Helper()
	m, err := New(audio.NewFakePCMContext(pcm, false), eng, sink, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.checkPermission = func() permissions.Status { return permissions.Authorized }
	return m
}

func TestStartStopDeliversTranscript(t *testing.T) {
	eng := loadedFake(t, "hello world")
	eng.Partial = "hello"
	sink := &collectSink{}
	rec := &fakeRecorder{}

	var deliveredMu sync.Mutex
	var delivered []string
	opts := Options{
		History: rec,
		Deliver: func(text string) error {
			deliveredMu.Lock()
			delivered = append(delivered, text)
			deliveredMu.Unlock()
			return nil
		},
	}

	m := newTestMachine(t, tonePCM(1000), eng, sink, opts)

	if err := m.Start(ModePushToTalk); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.Status() != StatusListening {
		t.Fatalf("status after Start = %v, want listening", m.Status())
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if m.Status() != StatusIdle {
		t.Fatalf("status after Stop = %v, want idle", m.Status())
	}
	sink.mu.Lock()
	if len(sink.finals) != 1 || sink.finals[0] != "hello world" {
		t.Fatalf("finals = %v, want [hello world]", sink.finals)
	}
	if len(sink.partials) != 1 || sink.partials[0] != "hello" {
		t.Fatalf("partials = %v, want [hello]", sink.partials)
	}
	if sink.levels == 0 {
		t.Fatal("expected audio level events while listening")
	}
	sink.mu.Unlock()

	deliveredMu.Lock()
	if len(delivered) != 1 || delivered[0] != "hello world" {
		t.Fatalf("delivered = %v", delivered)
	}
	deliveredMu.Unlock()

	rec.mu.Lock()
	if len(rec.records) != 1 || rec.records[0].Text != "hello world" {
		t.Fatalf("history records = %+v", rec.records)
	}
	if rec.records[0].DurationMS < 900 {
		t.Fatalf("recorded duration %dms, want about 1000", rec.records[0].DurationMS)
	}
	rec.mu.Unlock()
}

func TestShortCaptureSkipsEngine(t *testing.T) {
	eng := loadedFake(t, "should not appear")
	sink := &collectSink{}
	m := newTestMachine(t, tonePCM(100), eng, sink, Options{MinDuration: 2 * time.Second})

	if err := m.Start(ModePushToTalk); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if eng.Calls != 0 {
		t.Fatalf("engine called %d times for a sub-minimum capture", eng.Calls)
	}
	sink.mu.Lock()
	if len(sink.finals) != 1 || sink.finals[0] != "" {
		t.Fatalf("finals = %v, want one empty transcript", sink.finals)
	}
	sink.mu.Unlock()
	if m.Status() != StatusIdle {
		t.Fatalf("status = %v, want idle", m.Status())
	}
}

func TestStopWithoutStart(t *testing.T) {
	m := newTestMachine(t, nil, loadedFake(t, "x"), nil, Options{})
	if err := m.Stop(); !errors.Is(err, ErrNotListening) {
		t.Fatalf("Stop from idle = %v, want ErrNotListening", err)
	}
}

func TestDoubleStart(t *testing.T) {
	m := newTestMachine(t, tonePCM(600), loadedFake(t, "x"), nil, Options{})
	if err := m.Start(ModePushToTalk); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(ModePushToTalk); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("second Start = %v, want ErrNotIdle", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func waitStatus(t *testing.T, m *Machine, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status = %v, want %v", m.Status(), want)
}

func TestCloseDuringListening(t *testing.T) {
	m := newTestMachine(t, tonePCM(800), loadedFake(t, "x"), nil, Options{})
	if err := m.Start(ModePushToTalk); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Close()
	if m.Status() != StatusIdle {
		t.Fatalf("status after Close = %v, want idle", m.Status())
	}
	if err := m.Stop(); !errors.Is(err, ErrNotListening) {
		t.Fatalf("Stop after Close = %v, want ErrNotListening", err)
	}
	// A second Close must not double-close the watcher channel.
	m.Close()
}

func TestCloseWaitsForStop(t *testing.T) {
	eng := loadedFake(t, "slow one")
	eng.Delay = 200 * time.Millisecond
	m := newTestMachine(t, tonePCM(1000), eng, nil, Options{})

	if err := m.Start(ModeToggle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopErr := make(chan error, 1)
	go func() { stopErr <- m.Stop() }()
	waitStatus(t, m, StatusProcessing)

	// Close while transcription is in flight must wait it out, not tear
	// the capture away from under Stop.
	m.Close()
	if err := <-stopErr; err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.Status() != StatusIdle {
		t.Fatalf("status = %v, want idle", m.Status())
	}
}

func TestBusyWhileProcessing(t *testing.T) {
	eng := loadedFake(t, "long form answer")
	eng.Delay = 250 * time.Millisecond
	m := newTestMachine(t, tonePCM(1000), eng, nil, Options{})

	if err := m.Start(ModeToggle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopErr := make(chan error, 1)
	go func() { stopErr <- m.Stop() }()
	waitStatus(t, m, StatusProcessing)

	if err := m.Start(ModeToggle); !errors.Is(err, ErrBusy) {
		t.Fatalf("Start while processing = %v, want ErrBusy", err)
	}
	if err := m.Stop(); !errors.Is(err, ErrBusy) {
		t.Fatalf("Stop while processing = %v, want ErrBusy", err)
	}

	if err := <-stopErr; err != nil {
		t.Fatalf("first Stop: %v", err)
	}

	// The rejected triggers must not have wedged the machine.
	if err := m.Start(ModeToggle); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
	if eng.Calls != 2 {
		t.Fatalf("engine calls = %d, want 2", eng.Calls)
	}
}

func TestPermissionDenied(t *testing.T) {
	sink := &collectSink{}
	m := newTestMachine(t, tonePCM(600), loadedFake(t, "x"), sink, Options{})
	m.checkPermission = func() permissions.Status { return permissions.Denied }

	err := m.Start(ModePushToTalk)
	if !errors.Is(err, permissions.ErrPermissionDenied) {
		t.Fatalf("Start = %v, want ErrPermissionDenied", err)
	}
	sink.mu.Lock()
	if len(sink.permSteps) != 1 {
		t.Fatalf("expected one permission-required event, got %d", len(sink.permSteps))
	}
	sink.mu.Unlock()
	if m.Status() != StatusIdle {
		t.Fatalf("status = %v, want idle after denied start", m.Status())
	}
}

func TestRecoverableTranscribeError(t *testing.T) {
	eng := loadedFake(t, "x")
	eng.Err = errors.New("decode blew up")
	sink := &collectSink{}
	m := newTestMachine(t, tonePCM(1000), eng, sink, Options{})

	if err := m.Start(ModePushToTalk); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(); err == nil {
		t.Fatal("expected transcription error from Stop")
	}

	if m.Status() != StatusIdle {
		t.Fatalf("status = %v, want idle after recoverable error", m.Status())
	}
	sink.mu.Lock()
	if len(sink.errs) != 1 {
		t.Fatalf("expected one error event, got %d", len(sink.errs))
	}
	sink.mu.Unlock()
}

func TestModelGoneIsFatal(t *testing.T) {
	eng := loadedFake(t, "x")
	eng.Err = whisper.ErrModelMissing
	sink := &collectSink{}
	m := newTestMachine(t, tonePCM(1000), eng, sink, Options{})

	if err := m.Start(ModePushToTalk); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(); !errors.Is(err, whisper.ErrModelMissing) {
		t.Fatalf("Stop = %v, want ErrModelMissing", err)
	}
	if m.Status() != StatusError {
		t.Fatalf("status = %v, want error", m.Status())
	}

	if err := m.Start(ModePushToTalk); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("Start from error state = %v, want ErrNotIdle", err)
	}

	m.Reset()
	if m.Status() != StatusIdle {
		t.Fatalf("status after Reset = %v, want idle", m.Status())
	}
}

func TestSessionRestartsAfterStop(t *testing.T) {
	eng := loadedFake(t, "again")
	sink := &collectSink{}
	m := newTestMachine(t, tonePCM(700), eng, sink, Options{})

	for i := 0; i < 2; i++ {
		if err := m.Start(ModeToggle); err != nil {
			t.Fatalf("Start #%d: %v", i+1, err)
		}
		if err := m.Stop(); err != nil {
			t.Fatalf("Stop #%d: %v", i+1, err)
		}
	}
	if eng.Calls != 2 {
		t.Fatalf("engine calls = %d, want 2", eng.Calls)
	}
}
