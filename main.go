package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/doctor"
	"murmur/gpu"
	"murmur/history"
	"murmur/log"
	"murmur/overlay"
	"murmur/session"
	"murmur/shortcut"
	"murmur/whisper"
)

var version = "dev"

var (
	machine      *session.Machine
	engine       *whisper.CppEngine
	historyStore *history.Store
	dispatcher   *shortcut.Dispatcher
	overlayWin   *overlay.Window

	finalCount atomic.Int64

	// handsFreeOverride marks sessions started by an overlay click, which
	// end on the next click or on silence rather than on key release.
	handsFreeOverride atomic.Bool

	// voiceMode makes every session voice-activated: recording ends on
	// sustained silence no matter how the shortcut key was used.
	voiceMode bool

	overlayStartChan = make(chan struct{}, 1)
	overlayStopMu    sync.Mutex
	overlayStopChan  chan struct{}

	deviceSelectChan = make(chan struct{}, 1)

	// sessionEnded wakes the trigger loop when a session closes on its
	// own (silence auto-close, fatal error) instead of via a trigger.
	sessionEnded = make(chan struct{}, 1)

	devMu         sync.Mutex
	currentDevice *audio.DeviceInfo
	preferredName string
)

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if n := finalCount.Load(); n > 0 {
			log.SessionEnd(int(n))
		}
		if machine != nil {
			machine.Close()
		}
		if dispatcher != nil {
			dispatcher.Close()
		}
		if engine != nil {
			engine.Unload()
		}
		if historyStore != nil {
			historyStore.Close()
		}
		log.Close()
		if overlayWin != nil {
			overlayWin.Quit()
		}
		tuiQuit()
		os.Exit(0)
	})
}

// runOverlay hands the main thread to the window toolkit and runs the
// rest of the app in a goroutine once the toolkit is up.
func runOverlay() {
	overlayWin = overlay.NewWindow(func() {
		if machine != nil && machine.Status() == session.StatusListening {
			fireOverlayStop()
			return
		}
		select {
		case overlayStartChan <- struct{}{}:
		default:
		}
	})
	if err := overlayWin.Run(func() { go run() }); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newOverlayStop() <-chan struct{} {
	overlayStopMu.Lock()
	overlayStopChan = make(chan struct{})
	ch := overlayStopChan
	overlayStopMu.Unlock()
	return ch
}

func fireOverlayStop() {
	overlayStopMu.Lock()
	if overlayStopChan != nil {
		select {
		case overlayStopChan <- struct{}{}:
		default:
		}
	}
	overlayStopMu.Unlock()
}

// mergeStop returns a channel that closes when any source fires.
func mergeStop(sources ...<-chan struct{}) chan struct{} {
	out := make(chan struct{})
	var once sync.Once
	for _, s := range sources {
		if s == nil {
			continue
		}
		go func(ch <-chan struct{}) {
			select {
			case <-ch:
				once.Do(func() { close(out) })
			case <-out:
			}
		}(s)
	}
	return out
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT - reduced quality)"
		}
	}
	return "mic: " + name + suffix + " (ctrl+g to change)"
}

func modeLineText(cfg config.Config, res whisper.LoadResult) string {
	lang := cfg.Language
	if lang == "" {
		lang = "auto"
	}
	backend := res.Backend.String()
	if res.FallbackUsed {
		backend += " -> cpu"
	}
	return fmt.Sprintf("[%s %s | %s | %s]", cfg.Model, cfg.Quantization, backend, lang)
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	langFlag := flag.String("lang", "", "Language code for transcription (e.g. en, es). Empty = auto-detect")
	modelFlag := flag.String("model", "", "Model id override (e.g. small, large-v3-turbo)")
	cpuFlag := flag.Bool("cpu", false, "Force CPU inference even when a GPU backend is available")
	configFlag := flag.String("config", "", "Config file path (default: "+config.DefaultPath()+")")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Bool("overlay", false, "Show the floating overlay window (requires a -tags gui build)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g. localhost:6060)")
	longPressFlag := flag.Duration("longpress", 0, "Hold threshold separating tap-toggle from push-to-talk")
	voiceFlag := flag.Bool("voice", false, "Voice-activated sessions: recording ends after sustained silence")
	flag.Parse()
	voiceMode = *voiceFlag

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		if _, err := os.Stat(config.DefaultPath()); err == nil {
			cfgPath = config.DefaultPath()
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if *cpuFlag {
		cfg.Engine.ForceCPU = true
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if cfg.Delivery.AutoPaste {
		if err := clipboard.Init(); err != nil {
			fmt.Printf("Warning: paste init failed: %v\n", err)
			fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		}
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Device != "" {
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == cfg.Device || devices[i].ID == cfg.Device {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			log.Warnf("configured device %q not found, using system default", cfg.Device)
			fmt.Printf("Warning: device %q not found, using system default\n", cfg.Device)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed, using system default: %v\n", err)
			selectedDevice = nil
		}
	}

	backend := gpu.Select(cfg.Engine.ForceCPU)
	modelPath := whisper.ModelPath(cfg.ModelsDir, cfg.Model, cfg.Quantization)
	engine = whisper.NewCppEngine()
	loadRes, err := engine.Load(modelPath, backend, cfg.Engine.ForceCPU)
	if err != nil {
		log.Errorf("model load error: %v", err)
		fmt.Printf("Error loading model: %v\n", err)
		if errors.Is(err, whisper.ErrModelMissing) {
			fmt.Printf("Expected model file: %s\n", modelPath)
			fmt.Println("Run with -doctor to list available models.")
		}
		os.Exit(1)
	}
	if loadRes.FallbackUsed {
		log.Warnf("%s initialization failed, running on CPU", backend)
		fmt.Printf("Warning: %s initialization failed, falling back to CPU\n", backend)
	}
	log.SessionStart(cfg.Model, loadRes.Backend.String(), cfg.Language)

	historyStore, err = history.Open(context.Background(), cfg.History.Path, cfg.History.MaxEntries)
	if err != nil {
		log.Warnf("history unavailable: %v", err)
		historyStore = nil
	}

	dispatcher = shortcut.NewDispatcher()
	specs := append([]string{cfg.Shortcut.Binding}, cfg.Shortcut.Fallbacks...)
	shortcutHelp := "no global shortcut"
	if binding, err := dispatcher.RebindFirst(specs); err != nil {
		log.Warnf("no usable global shortcut, overlay/TUI triggers only: %v", err)
		fmt.Printf("Warning: no usable global shortcut: %v\n", err)
	} else {
		shortcutHelp = binding.String()
	}

	longPress := time.Duration(cfg.Shortcut.LongPressMS) * time.Millisecond
	if *longPressFlag > 0 {
		longPress = *longPressFlag
	}
	hy := shortcut.NewHybrid(dispatcher, longPress)

	sinks := multiSink{appSink{}}
	if overlayWin != nil {
		sinks = append(sinks, overlayWin)
	}
	if *tuiFlag {
		sinks = append(sinks, tuiSink{})
	}

	var rec session.Recorder
	if historyStore != nil {
		rec = historyStore
	}
	deliver := func(text string) error {
		return clipboard.Deliver(text, clipboard.Options{
			AutoCopy:     cfg.Delivery.AutoCopy,
			AutoPaste:    cfg.Delivery.AutoPaste,
			RestoreDelay: time.Duration(cfg.Delivery.RestoreDelayMS) * time.Millisecond,
		})
	}
	machine, err = session.New(actx, engine, sinks, session.Options{
		Language:       cfg.Language,
		Device:         selectedDevice,
		KeepRecordings: cfg.Recordings.Keep,
		RecordingsDir:  cfg.Recordings.Dir,
		History:        rec,
		Deliver:        deliver,
		HandsFree: func() bool {
			return voiceMode || handsFreeOverride.Load() || hy.IsToggle()
		},
	})
	if err != nil {
		log.Errorf("session init error: %v", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	devMu.Lock()
	currentDevice = selectedDevice
	if selectedDevice != nil {
		preferredName = selectedDevice.Name
	}
	devMu.Unlock()

	if *tuiFlag {
		tuiStart()
	}
	tuiSend(modeLineMsg(modeLineText(cfg, loadRes)))
	tuiSend(deviceLineMsg(deviceLineText(selectedDevice)))
	tuiSend(helpLineMsg(shortcutHelp))

	go watchDevices(actx)

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	go beep.Init()

	for {
		select {
		case <-hy.Start():
			log.Info("trigger_shortcut")
			runSession(startMode(), false, hy.StopChan())
		case <-overlayStartChan:
			log.Info("trigger_overlay")
			runSession(startMode(), true, hy.StopChan())
		case <-deviceSelectChan:
			handleDeviceSwitch(actx)
		}
	}
}

// startMode picks the session mode for a new trigger. Hold-vs-tap is
// only classified after the session starts, so hybrid triggers begin as
// toggle and the HandsFree callback settles the difference live.
func startMode() session.Mode {
	if voiceMode {
		return session.ModeVoice
	}
	return session.ModeToggle
}

// runSession drives one full listen/transcribe cycle and blocks until it
// ends. Stop can come from the hotkey, an overlay click, or the machine
// closing itself (silence auto-close, fatal error).
func runSession(mode session.Mode, fromOverlay bool, extraStops ...<-chan struct{}) {
	if machine.Status() == session.StatusError {
		machine.Reset()
	}

	// Drain stale events left over from a session that closed itself.
	select {
	case <-sessionEnded:
	default:
	}
	for _, s := range extraStops {
		select {
		case <-s:
		default:
		}
	}

	handsFreeOverride.Store(fromOverlay)
	if err := machine.Start(mode); err != nil {
		if !errors.Is(err, session.ErrBusy) && !errors.Is(err, session.ErrNotIdle) {
			log.Errorf("session start error: %v", err)
		}
		return
	}

	stops := append([]<-chan struct{}{newOverlayStop(), sessionEnded}, extraStops...)
	<-mergeStop(stops...)

	// Transcription errors were already reported through the event sink;
	// only state-mismatch errors (machine stopped itself) are expected here.
	if err := machine.Stop(); err != nil &&
		!errors.Is(err, session.ErrNotListening) && !errors.Is(err, session.ErrBusy) {
		log.Errorf("session stop error: %v", err)
	}
}

func handleDeviceSwitch(actx audio.Context) {
	tuiReleaseTerminal()
	dev, err := audio.SelectDevice(actx)
	tuiRestoreTerminal()

	if err != nil {
		log.Warnf("device selection failed: %v", err)
		return
	}
	setCurrentDevice(dev, true)
}

func setCurrentDevice(dev *audio.DeviceInfo, preferred bool) {
	devMu.Lock()
	currentDevice = dev
	if preferred && dev != nil {
		preferredName = dev.Name
	}
	devMu.Unlock()

	machine.SetDevice(dev)
	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	log.Info("device_switch: " + name)
	tuiSend(deviceLineMsg(deviceLineText(dev)))
}

// watchDevices polls for hotplug changes: the active device disappearing
// falls back to the system default, the preferred device reappearing
// reconnects automatically.
func watchDevices(actx audio.Context) {
	var last []string
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		devices, err := actx.Devices()
		if err != nil {
			continue
		}
		names := make([]string, len(devices))
		for i := range devices {
			names[i] = devices[i].Name
		}
		if slices.Equal(last, names) {
			continue
		}
		last = names

		devMu.Lock()
		cur := currentDevice
		pref := preferredName
		devMu.Unlock()

		if cur != nil && !slices.Contains(names, cur.Name) {
			log.Info("device_disconnected: " + cur.Name)
			setCurrentDevice(nil, false)
		} else if cur == nil && pref != "" && slices.Contains(names, pref) {
			for i := range devices {
				if devices[i].Name == pref {
					log.Info("device_reconnected: " + pref)
					setCurrentDevice(&devices[i], false)
					break
				}
			}
		}
	}
}

// appSink handles the display-independent side effects of session events:
// audio cues, logging, and waking the trigger loop when a session ends.
type appSink struct{}

func (appSink) StatusChanged(s session.Status) {
	switch s {
	case session.StatusListening:
		log.Info("session_listening")
		go beep.PlayStart()
	case session.StatusProcessing:
		go beep.PlayEnd()
	case session.StatusIdle, session.StatusError:
		select {
		case sessionEnded <- struct{}{}:
		default:
		}
	}
}

func (appSink) AudioLevel(float64) {}

func (appSink) Partial(string) {}

func (appSink) Final(text string, res whisper.Result) {
	if text == "" {
		log.Info("no_speech")
		return
	}
	finalCount.Add(1)
	log.TranscriptionText(text)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	audioLen := 0.0
	if n := len(res.Segments); n > 0 {
		audioLen = res.Segments[n-1].End.Seconds()
	}
	log.TranscriptionMetrics(log.Metrics{
		AudioLengthS:  audioLen,
		TranscribeMs:  float64(res.Duration.Milliseconds()),
		Model:         res.Model,
		Backend:       res.Backend,
		FallbackUsed:  engine != nil && engine.Status().FallbackUsed,
		MemoryAllocMB: float64(ms.Alloc) / (1 << 20),
		MemoryPeakMB:  float64(ms.Sys) / (1 << 20),
	})
}

func (appSink) Silence(ev session.SilenceEvent) {
	switch ev {
	case session.SilenceWarn:
		log.Info("no_voice_warning")
		go beep.PlayError()
	case session.SilenceRepeat:
		log.Info("silence_during_warning")
		go beep.PlayError()
	case session.SilenceAutoClose:
		log.Info("silence_auto_close")
	}
}

func (appSink) PermissionRequired(steps []string) {
	log.Error("microphone permission missing")
	fmt.Fprintln(os.Stderr, "Microphone access is not authorized:")
	for _, s := range steps {
		fmt.Fprintf(os.Stderr, "  - %s\n", s)
	}
}

func (appSink) SessionError(err error) {
	log.Errorf("session error: %v", err)
	go beep.PlayError()
}

// multiSink fans one event stream out to several consumers.
type multiSink []session.EventSink

func (m multiSink) StatusChanged(s session.Status) {
	for _, sink := range m {
		sink.StatusChanged(s)
	}
}

func (m multiSink) AudioLevel(level float64) {
	for _, sink := range m {
		sink.AudioLevel(level)
	}
}

func (m multiSink) Partial(text string) {
	for _, sink := range m {
		sink.Partial(text)
	}
}

func (m multiSink) Final(text string, res whisper.Result) {
	for _, sink := range m {
		sink.Final(text, res)
	}
}

func (m multiSink) Silence(ev session.SilenceEvent) {
	for _, sink := range m {
		sink.Silence(ev)
	}
}

func (m multiSink) PermissionRequired(steps []string) {
	for _, sink := range m {
		sink.PermissionRequired(steps)
	}
}

func (m multiSink) SessionError(err error) {
	for _, sink := range m {
		sink.SessionError(err)
	}
}
