//go:build darwin

package shortcut

import "golang.design/x/hotkey"

func modifiersFor(b Binding) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if b.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if b.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if b.Alt {
		mods = append(mods, hotkey.ModOption)
	}
	if b.Cmd {
		mods = append(mods, hotkey.ModCmd)
	}
	return mods
}
