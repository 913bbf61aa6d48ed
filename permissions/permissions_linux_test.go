//go:build linux

package permissions

import "testing"

func TestIsCaptureNode(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"pcmC0D0c", true},
		{"pcmC1D2c", true},
		{"pcmC0D0p", false}, // playback
		{"controlC0", false},
		{"timer", false},
	}
	for _, c := range cases {
		if got := isCaptureNode(c.name); got != c.want {
			t.Errorf("isCaptureNode(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestUserInAudioGroup(t *testing.T) {
	if !userInAudioGroup("wheel audio video\n") {
		t.Error("should find audio group")
	}
	if userInAudioGroup("wheel video\n") {
		t.Error("should not find audio group")
	}
	if userInAudioGroup("audiovisual wheel\n") {
		t.Error("substring must not match")
	}
}
