// Package session runs one push-to-talk cycle at a time: acquire the
// microphone, buffer audio while listening, then hand the capture to the
// transcription engine and deliver the text.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"murmur/audio"
	"murmur/encoder"
	"murmur/history"
	"murmur/log"
	"murmur/permissions"
	"murmur/whisper"
)

type Status int

const (
	StatusIdle Status = iota
	StatusListening
	StatusProcessing
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusListening:
		return "listening"
	case StatusProcessing:
		return "processing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type Mode int

const (
	ModePushToTalk Mode = iota
	ModeToggle
	ModeVoice
)

var (
	ErrBusy         = errors.New("another transition is in flight")
	ErrNotIdle      = errors.New("session already running")
	ErrNotListening = errors.New("no session to stop")
)

// EventSink receives everything the display layer needs. Implementations
// must not block; slow consumers should buffer internally.
type EventSink interface {
	StatusChanged(s Status)
	AudioLevel(level float64)
	Partial(text string)
	Final(text string, res whisper.Result)
	Silence(ev SilenceEvent)
	PermissionRequired(steps []string)
	SessionError(err error)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) StatusChanged(Status) {}

func (NopSink) AudioLevel(float64) {}

func (NopSink) Partial(string) {}

func (NopSink) Final(string, whisper.Result) {}

func (NopSink) Silence(SilenceEvent) {}

func (NopSink) PermissionRequired([]string) {}

func (NopSink) SessionError(error) {}

// Recorder is the transcript log boundary; history.Store satisfies it.
type Recorder interface {
	Append(ctx context.Context, r history.Record) error
}

type Options struct {
	Language        string
	Device          *audio.DeviceInfo
	MinDuration     time.Duration // captures shorter than this yield an empty transcript
	ProcessingDelay time.Duration // pause before teardown so the state flip is visible
	KeepRecordings  bool
	RecordingsDir   string

	History Recorder                // optional
	Deliver func(text string) error // optional, usually clipboard delivery

	// HandsFree overrides the mode-based silence auto-close decision.
	// Useful when hold-vs-tap is only classified after the session starts.
	HandsFree func() bool
}

// Machine is the session state machine. All transitions are serialized
// through a single-flight token; a trigger arriving mid-transition is
// rejected with ErrBusy rather than queued.
type Machine struct {
	audio  audio.Context
	engine whisper.Engine
	sink   EventSink
	opts   Options

	checkPermission func() permissions.Status

	token chan struct{}

	mu       sync.Mutex
	status   Status
	mode     Mode
	capture  audio.CaptureDevice
	buf      []byte
	meter    *audio.Meter
	vad      *vadProcessor
	stopTick chan struct{}
	tickDone chan struct{}
}

func New(actx audio.Context, engine whisper.Engine, sink EventSink, opts Options) (*Machine, error) {
	if sink == nil {
		sink = NopSink{}
	}
	if opts.MinDuration <= 0 {
		opts.MinDuration = 500 * time.Millisecond
	}
	if opts.ProcessingDelay <= 0 {
		opts.ProcessingDelay = 50 * time.Millisecond
	}
	vad, err := newVADProcessor()
	if err != nil {
		return nil, fmt.Errorf("init voice detector: %w", err)
	}
	return &Machine{
		audio:           actx,
		engine:          engine,
		sink:            sink,
		opts:            opts,
		checkPermission: permissions.Check,
		token:           make(chan struct{}, 1),
		meter:           audio.NewMeter(),
		vad:             vad,
	}, nil
}

func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetDevice changes the capture device used by future sessions. A
// session already listening keeps its device until it ends.
func (m *Machine) SetDevice(dev *audio.DeviceInfo) {
	m.mu.Lock()
	m.opts.Device = dev
	m.mu.Unlock()
}

// Start begins listening. Valid only from Idle.
func (m *Machine) Start(mode Mode) error {
	select {
	case m.token <- struct{}{}:
	default:
		return ErrBusy
	}
	defer func() { <-m.token }()

	m.mu.Lock()
	if m.status != StatusIdle {
		m.mu.Unlock()
		return ErrNotIdle
	}
	m.mu.Unlock()

	if st := m.checkPermission(); st != permissions.Authorized {
		m.sink.PermissionRequired(permissions.Remediation())
		return fmt.Errorf("microphone access %s: %w", st, permissions.ErrPermissionDenied)
	}

	m.mu.Lock()
	dev := m.opts.Device
	m.mu.Unlock()

	cap, err := m.audio.NewCapture(dev, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		err = fmt.Errorf("acquire capture device: %w", err)
		m.fail(err)
		return err
	}

	handsFree := m.opts.HandsFree
	if handsFree == nil {
		hf := mode != ModePushToTalk
		handsFree = func() bool { return hf }
	}
	monitor := newSilenceMonitor(handsFree)

	m.mu.Lock()
	m.mode = mode
	m.capture = cap
	m.buf = m.buf[:0]
	m.meter.Reset()
	m.vad.Reset()
	m.stopTick = make(chan struct{})
	m.tickDone = make(chan struct{})
	stop, done := m.stopTick, m.tickDone
	m.mu.Unlock()

	cap.SetCallback(m.onData)
	if err := cap.Start(); err != nil {
		cap.Close()
		m.mu.Lock()
		m.capture = nil
		m.stopTick, m.tickDone = nil, nil
		m.mu.Unlock()
		err = fmt.Errorf("start capture: %w", err)
		m.fail(err)
		return err
	}

	m.setStatus(StatusListening)
	go m.watch(monitor, stop, done)
	return nil
}

// Stop ends listening and runs transcription to completion. Valid only
// from Listening.
func (m *Machine) Stop() error {
	select {
	case m.token <- struct{}{}:
	default:
		return ErrBusy
	}
	defer func() { <-m.token }()

	m.mu.Lock()
	if m.status != StatusListening || m.capture == nil {
		m.mu.Unlock()
		return ErrNotListening
	}
	m.status = StatusProcessing
	cap := m.capture
	m.capture = nil
	stop, done := m.stopTick, m.tickDone
	m.stopTick, m.tickDone = nil, nil
	m.mu.Unlock()

	m.sink.StatusChanged(StatusProcessing)

	// Detach first so audio arriving after the trigger is not buffered,
	// then give the display a beat to show the state flip.
	cap.ClearCallback()
	close(stop)
	<-done
	time.Sleep(m.opts.ProcessingDelay)
	cap.Stop()
	cap.Close()

	m.mu.Lock()
	pcm := make([]byte, len(m.buf))
	copy(pcm, m.buf)
	m.buf = m.buf[:0]
	m.mu.Unlock()

	captured := time.Duration(len(pcm)/2) * time.Second / audio.SampleRate
	if captured < m.opts.MinDuration {
		log.Infof("capture too short (%s), skipping transcription", captured)
		m.sink.Final("", whisper.Result{})
		m.setStatus(StatusIdle)
		return nil
	}

	samples := whisper.SamplesFromPCM(pcm)
	res, err := m.engine.Transcribe(context.Background(), samples, m.opts.Language, m.sink.Partial)
	if err != nil {
		if errors.Is(err, whisper.ErrNotLoaded) || errors.Is(err, whisper.ErrModelMissing) {
			m.fail(err)
			return err
		}
		// Decode failures are recoverable; the next trigger starts fresh.
		m.sink.SessionError(err)
		m.setStatus(StatusIdle)
		return err
	}

	m.finish(res, pcm, captured)
	m.setStatus(StatusIdle)
	return nil
}

// Reset returns the machine to Idle after a failure.
func (m *Machine) Reset() {
	select {
	case m.token <- struct{}{}:
	default:
		return
	}
	defer func() { <-m.token }()

	m.mu.Lock()
	if m.status != StatusError {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.setStatus(StatusIdle)
}

// Close releases any live capture and leaves the machine Idle. It holds
// the transition token while tearing down, so a Stop running concurrently
// finishes first and a Stop arriving afterwards sees no session.
func (m *Machine) Close() {
	m.token <- struct{}{}
	defer func() { <-m.token }()

	m.mu.Lock()
	cap := m.capture
	m.capture = nil
	stop, done := m.stopTick, m.tickDone
	m.stopTick, m.tickDone = nil, nil
	if m.status == StatusListening {
		m.status = StatusIdle
	}
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	if cap != nil {
		cap.ClearCallback()
		cap.Stop()
		cap.Close()
	}
}

func (m *Machine) onData(data []byte, _ uint32) {
	m.mu.Lock()
	m.buf = append(m.buf, data...)
	m.mu.Unlock()

	m.sink.AudioLevel(m.meter.Process(data))
	m.vad.Process(data)
}

func (m *Machine) watch(monitor *silenceMonitor, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ev := monitor.Tick(m.vad.HasSpeechTick())
			if ev == SilenceNone {
				continue
			}
			m.sink.Silence(ev)
			if ev == SilenceAutoClose {
				go func() {
					if err := m.Stop(); err != nil &&
						!errors.Is(err, ErrBusy) && !errors.Is(err, ErrNotListening) {
						log.Warnf("silence auto-close: %v", err)
					}
				}()
				return
			}
		}
	}
}

func (m *Machine) finish(res whisper.Result, pcm []byte, captured time.Duration) {
	if res.Text != "" {
		if m.opts.Deliver != nil {
			if err := m.opts.Deliver(res.Text); err != nil {
				log.Warnf("text delivery failed: %v", err)
			}
		}
		if m.opts.History != nil {
			rec := history.Record{
				Text:       res.Text,
				Model:      res.Model,
				Backend:    res.Backend,
				DurationMS: captured.Milliseconds(),
			}
			if err := m.opts.History.Append(context.Background(), rec); err != nil {
				log.Warnf("history append failed: %v", err)
			}
		}
		if m.opts.KeepRecordings && m.opts.RecordingsDir != "" {
			if _, err := encoder.Save(m.opts.RecordingsDir, pcm); err != nil {
				log.Warnf("recording archive failed: %v", err)
			}
		}
	}
	m.sink.Final(res.Text, res)
}

func (m *Machine) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	m.sink.StatusChanged(s)
}

func (m *Machine) fail(err error) {
	m.setStatus(StatusError)
	m.sink.SessionError(err)
}
