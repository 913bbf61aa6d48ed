//go:build darwin || windows

package shortcut

import (
	"fmt"

	"golang.design/x/hotkey"
)

type xTrigger struct {
	binding Binding
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
}

func platformTrigger(b Binding) Trigger {
	return &xTrigger{
		binding: b,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (t *xTrigger) Register() error {
	key, ok := keyTable[t.binding.Key]
	if !ok {
		return fmt.Errorf("%w: key %q not mapped", ErrInvalidBinding, t.binding.Key)
	}
	t.hk = hotkey.New(modifiersFor(t.binding), key)
	if err := t.hk.Register(); err != nil {
		return err
	}
	t.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-t.stop:
				return
			case <-t.hk.Keydown():
				select {
				case t.keydown <- struct{}{}:
				default:
				}
			}
		}
	}()
	go func() {
		for {
			select {
			case <-t.stop:
				return
			case <-t.hk.Keyup():
				select {
				case t.keyup <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

func (t *xTrigger) Unregister() {
	if t.hk != nil {
		t.hk.Unregister()
		close(t.stop)
		t.hk = nil
	}
}

func (t *xTrigger) Keydown() <-chan struct{} { return t.keydown }
func (t *xTrigger) Keyup() <-chan struct{}   { return t.keyup }

var keyTable = map[string]hotkey.Key{
	"space": hotkey.KeySpace,
	"a":     hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}
