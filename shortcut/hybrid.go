package shortcut

import (
	"sync/atomic"
	"time"
)

// KeySource is the read side of a trigger; both Trigger and Dispatcher
// satisfy it.
type KeySource interface {
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Hybrid layers tap-to-toggle and hold-to-talk behavior on one key
// combination. It emits on Start when recording should begin and on
// StopChan when recording should end in either mode.
type Hybrid struct {
	startCh chan struct{}
	stopCh  chan struct{}
	toggle  atomic.Bool
}

// NewHybrid builds a Hybrid controller on top of an existing key source.
// longPress is the hold threshold separating a tap from push-to-talk.
func NewHybrid(t KeySource, longPress time.Duration) *Hybrid {
	h := &Hybrid{
		startCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}, 1),
	}
	go h.run(t, longPress)
	return h
}

// Start returns a channel signaled when recording should begin.
func (h *Hybrid) Start() <-chan struct{} { return h.startCh }

// StopChan returns a channel signaled when recording should stop.
func (h *Hybrid) StopChan() <-chan struct{} { return h.stopCh }

// IsToggle reports whether the current recording was started by a tap
// (toggle) rather than a hold (push-to-talk).
func (h *Hybrid) IsToggle() bool { return h.toggle.Load() }

type hybridState int

const (
	stIdle hybridState = iota
	stToggleRecording
)

func (h *Hybrid) run(t KeySource, longPress time.Duration) {
	state := stIdle
	for {
		switch state {
		case stIdle:
			// Any press starts immediately; hold duration only decides
			// how the recording ends.
			<-t.Keydown()
			h.toggle.Store(false)
			h.startCh <- struct{}{}
			timer := time.NewTimer(longPress)
			select {
			case <-timer.C:
				// Held past the threshold: stop on release.
				<-t.Keyup()
				select {
				case h.stopCh <- struct{}{}:
				default:
				}
				state = stIdle
			case <-t.Keyup():
				// Short tap: toggled on; next press stops.
				h.toggle.Store(true)
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				state = stToggleRecording
			}
		case stToggleRecording:
			<-t.Keydown()
			<-t.Keyup()
			select {
			case h.stopCh <- struct{}{}:
			default:
			}
			state = stIdle
		default:
			state = stIdle
		}
	}
}
