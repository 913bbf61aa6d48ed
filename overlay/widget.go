//go:build gui

package overlay

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"murmur/session"
)

const (
	meterCells = 14
	cellPx     = 9
	cellGapPx  = 2
	orbPadPx   = 6
)

var (
	cellOff     = color.RGBA{48, 48, 48, 255}
	cellWarn    = color.RGBA{255, 215, 0, 255}
	cellProcess = color.RGBA{255, 175, 0, 255}
	cellError   = color.RGBA{215, 0, 0, 255}
)

// levelColor shades the meter green through red as it fills.
func levelColor(i int) color.Color {
	t := float64(i) / float64(meterCells-1)
	switch {
	case t < 0.6:
		return color.RGBA{80, 220, 100, 255}
	case t < 0.85:
		return color.RGBA{255, 215, 0, 255}
	default:
		return color.RGBA{255, 60, 60, 255}
	}
}

// orbWidget is the level meter shown in the overlay. A click toggles the
// session; dragging past the jitter threshold moves the window instead.
type orbWidget struct {
	widget.BaseWidget

	mu      sync.Mutex
	status  session.Status
	level   float64
	warning bool
	frame   int
	stopCh  chan struct{}

	onTap  func()
	onDrag func(dx, dy float64)

	drag       dragTracker
	accX, accY float64
}

func newOrbWidget(onTap func(), onDrag func(dx, dy float64)) *orbWidget {
	o := &orbWidget{
		stopCh: make(chan struct{}),
		onTap:  onTap,
		onDrag: onDrag,
	}
	o.ExtendBaseWidget(o)
	go o.animate()
	return o
}

func (o *orbWidget) SetStatus(s session.Status) {
	o.mu.Lock()
	o.status = s
	if s != session.StatusListening {
		o.level = 0
	}
	o.mu.Unlock()
}

func (o *orbWidget) SetLevel(l float64) {
	o.mu.Lock()
	if o.status == session.StatusListening {
		// Fast attack, slow decay, same feel as the terminal meter.
		if l > o.level {
			o.level = o.level*0.2 + l*0.8
		} else {
			o.level = o.level*0.7 + l*0.3
		}
	}
	o.mu.Unlock()
}

func (o *orbWidget) SetWarning(v bool) {
	o.mu.Lock()
	o.warning = v
	o.mu.Unlock()
}

func (o *orbWidget) Stop() {
	select {
	case <-o.stopCh:
	default:
		close(o.stopCh)
	}
}

func (o *orbWidget) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.mu.Lock()
			o.frame++
			o.mu.Unlock()
			fyne.Do(func() {
				o.Refresh()
			})
		}
	}
}

func (o *orbWidget) Tapped(*fyne.PointEvent) {
	if o.onTap != nil {
		o.onTap()
	}
}

func (o *orbWidget) Dragged(ev *fyne.DragEvent) {
	if !o.drag.pressed {
		o.drag.Press(0, 0)
		o.accX, o.accY = 0, 0
	}
	o.accX += float64(ev.Dragged.DX)
	o.accY += float64(ev.Dragged.DY)
	if o.drag.Move(o.accX, o.accY) || o.drag.dragging {
		if o.onDrag != nil {
			o.onDrag(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
		}
	}
}

func (o *orbWidget) DragEnd() {
	o.drag.Release()
}

func (o *orbWidget) MinSize() fyne.Size {
	w := meterCells*(cellPx+cellGapPx) - cellGapPx + 2*orbPadPx
	h := cellPx*2 + 2*orbPadPx
	return fyne.NewSize(float32(w), float32(h))
}

func (o *orbWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &orbRenderer{orb: o}
	r.cells = make([]*canvas.Rectangle, meterCells)
	for i := range r.cells {
		r.cells[i] = canvas.NewRectangle(cellOff)
	}
	return r
}

type orbRenderer struct {
	orb   *orbWidget
	cells []*canvas.Rectangle
}

func (r *orbRenderer) Layout(size fyne.Size) {
	cellW := (size.Width - 2*orbPadPx + cellGapPx) / meterCells
	cellH := size.Height - 2*orbPadPx
	for i, c := range r.cells {
		c.Move(fyne.NewPos(orbPadPx+float32(i)*cellW, orbPadPx))
		c.Resize(fyne.NewSize(cellW-cellGapPx, cellH))
	}
}

func (r *orbRenderer) MinSize() fyne.Size {
	return r.orb.MinSize()
}

func (r *orbRenderer) Refresh() {
	r.orb.mu.Lock()
	status := r.orb.status
	level := r.orb.level
	warning := r.orb.warning
	frame := r.orb.frame
	r.orb.mu.Unlock()

	for i, c := range r.cells {
		c.FillColor = r.cellColor(i, status, level, warning, frame)
		c.Refresh()
	}
}

func (r *orbRenderer) cellColor(i int, status session.Status, level float64, warning bool, frame int) color.Color {
	switch status {
	case session.StatusListening:
		if warning {
			// Pulse the whole strip while no voice is coming in.
			if math.Sin(float64(frame)*0.25) > 0 {
				return cellWarn
			}
			return cellOff
		}
		breathe := math.Sin(float64(frame)*0.15) * 0.04
		lit := int((level + breathe) * meterCells)
		if i < lit {
			return levelColor(i)
		}
		return cellOff
	case session.StatusProcessing:
		// Sweeping dot while the model runs.
		if i == (frame/2)%meterCells {
			return cellProcess
		}
		return cellOff
	case session.StatusError:
		if math.Sin(float64(frame)*0.2) > 0 {
			return cellError
		}
		return cellOff
	default:
		return cellOff
	}
}

func (r *orbRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, len(r.cells))
	for i, c := range r.cells {
		objs[i] = c
	}
	return objs
}

func (r *orbRenderer) Destroy() {
	r.orb.Stop()
}
