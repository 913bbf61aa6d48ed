// Package shortcut owns the global key binding that drives recording. A
// Trigger is one registered key combination; the Dispatcher keeps exactly
// one Trigger alive and survives rebinds without dropping events.
package shortcut

import (
	"errors"
	"fmt"
	"sync"

	"murmur/log"
)

var (
	ErrInvalidBinding = errors.New("invalid binding")
	ErrBindingInUse   = errors.New("binding already in use")
)

// DefaultBindings is the registration preference order used at startup.
// When the primary combination is taken by another application the next
// one is tried; running without a shortcut is allowed.
var DefaultBindings = []string{
	"CmdOrCtrl+Shift+Space",
	"CmdOrCtrl+Alt+Space",
	"CmdOrCtrl+Shift+S",
}

type Trigger interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Dispatcher forwards key events from the current Trigger to stable
// channels so consumers never observe a rebind.
type Dispatcher struct {
	mu      sync.Mutex
	binding Binding
	trig    Trigger
	stop    chan struct{}

	keydown chan struct{}
	keyup   chan struct{}

	// newTrigger is swappable for tests.
	newTrigger func(Binding) Trigger
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		keydown:    make(chan struct{}, 1),
		keyup:      make(chan struct{}, 1),
		newTrigger: platformTrigger,
	}
}

func (d *Dispatcher) Keydown() <-chan struct{} { return d.keydown }
func (d *Dispatcher) Keyup() <-chan struct{}   { return d.keyup }

// Binding returns the currently registered combination, or the zero
// Binding when nothing is registered.
func (d *Dispatcher) Binding() Binding {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.binding
}

// Rebind parses a new combination and swaps it in. At most one binding
// is registered with the OS at any moment: the old trigger is dropped
// before the new one is registered. When the OS rejects the new
// combination the previous binding is re-registered and ErrBindingInUse
// is returned, so a failed rebind never leaves the app shortcut-less.
func (d *Dispatcher) Rebind(spec string) error {
	b, err := ParseBinding(spec)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Rebinding to the combination already held is a no-op; cycling the
	// OS registration here would only invite a spurious in-use failure.
	if d.trig != nil && b == d.binding {
		return nil
	}

	var prev *Binding
	if d.trig != nil {
		p := d.binding
		prev = &p
		d.trig.Unregister()
		close(d.stop)
		d.trig = nil
	}

	nt := d.newTrigger(b)
	if err := nt.Register(); err != nil {
		if prev != nil {
			d.restore(*prev)
		}
		return fmt.Errorf("%w: %s: %v", ErrBindingInUse, spec, err)
	}
	d.attach(nt, b)
	return nil
}

// attach wires a freshly registered trigger to the stable channels.
// Callers hold d.mu.
func (d *Dispatcher) attach(t Trigger, b Binding) {
	d.trig = t
	d.binding = b
	d.stop = make(chan struct{})
	d.pump(t, d.stop)
	log.Infof("shortcut registered: %s", b)
}

// restore re-registers the previous binding after a failed rebind.
// Callers hold d.mu.
func (d *Dispatcher) restore(b Binding) {
	t := d.newTrigger(b)
	if err := t.Register(); err != nil {
		log.Errorf("could not restore shortcut %s: %v", b, err)
		d.binding = Binding{}
		return
	}
	d.attach(t, b)
}

// RebindFirst walks specs in order and keeps the first one that
// registers. Exhausting the list is not fatal for the caller: the app
// can run shortcut-less.
func (d *Dispatcher) RebindFirst(specs []string) (Binding, error) {
	var lastErr error
	for _, spec := range specs {
		if err := d.Rebind(spec); err != nil {
			log.Warnf("shortcut %s unavailable: %v", spec, err)
			lastErr = err
			continue
		}
		return d.Binding(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no bindings given", ErrInvalidBinding)
	}
	return Binding{}, lastErr
}

// Close unregisters the current trigger.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.trig != nil {
		d.trig.Unregister()
		close(d.stop)
		d.trig = nil
		d.binding = Binding{}
	}
}

func (d *Dispatcher) pump(t Trigger, stop chan struct{}) {
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-t.Keydown():
				select {
				case d.keydown <- struct{}{}:
				default:
				}
			}
		}
	}()
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-t.Keyup():
				select {
				case d.keyup <- struct{}{}:
				default:
				}
			}
		}
	}()
}
