package overlay

import "math"

// dragThresholdPx separates a click from a window drag. Presses that move
// less than this before release count as clicks.
const dragThresholdPx = 4.0

// dragTracker classifies a press-move-release sequence. It is pure state;
// the window layer feeds it pointer events and acts on the outcome.
type dragTracker struct {
	pressed  bool
	dragging bool
	startX   float64
	startY   float64
}

func (d *dragTracker) Press(x, y float64) {
	d.pressed = true
	d.dragging = false
	d.startX, d.startY = x, y
}

// Move reports whether this motion crosses into a drag. It returns true
// exactly once, on the transition.
func (d *dragTracker) Move(x, y float64) bool {
	if !d.pressed || d.dragging {
		return false
	}
	dx := x - d.startX
	dy := y - d.startY
	if math.Sqrt(dx*dx+dy*dy) > dragThresholdPx {
		d.dragging = true
		return true
	}
	return false
}

// Release ends the gesture and reports whether it was a click.
func (d *dragTracker) Release() (click bool) {
	click = d.pressed && !d.dragging
	d.pressed = false
	d.dragging = false
	return click
}
