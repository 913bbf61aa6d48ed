//go:build gui

package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"

	"murmur/session"
	"murmur/whisper"
)

// Window is the floating status indicator. It implements session.EventSink
// so the state machine can drive it directly.
type Window struct {
	fyneApp fyne.App
	window  fyne.Window
	orb     *orbWidget
	ctrl    *Controller
	posX    int
	posY    int
}

func NewWindow(onToggle func()) *Window {
	w := &Window{ctrl: NewController(PlatformCapabilities())}
	w.ctrl.SetDesired(Attributes{AlwaysOnTop: true, SkipTaskbar: true, NoFocus: true})
	w.orb = newOrbWidget(onToggle, w.moveBy)
	return w
}

// Run starts the event loop and blocks until quit. onReady runs on its own
// goroutine once the loop is live.
func (w *Window) Run(onReady func()) error {
	w.fyneApp = app.NewWithID("io.murmur.overlay")
	w.fyneApp.Settings().SetTheme(&overlayTheme{})

	if desk, ok := w.fyneApp.(desktop.App); ok {
		icon := fyne.NewStaticResource("tray.png", renderTrayIcon(22))
		menu := fyne.NewMenu("murmur",
			fyne.NewMenuItem("Quit", func() {
				w.fyneApp.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(icon)
	}

	var screenW, screenH int
	monitor := glfw.GetPrimaryMonitor()
	if monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080 // fallback
	}

	// Frameless splash window so no decorations fight the attributes.
	if drv, ok := w.fyneApp.Driver().(desktop.Driver); ok {
		w.window = drv.CreateSplashWindow()
	} else {
		w.window = w.fyneApp.NewWindow("murmur")
	}

	w.window.SetContent(w.orb)
	w.window.SetFixedSize(true)
	w.window.SetPadded(false)

	size := w.orb.MinSize()
	w.window.Resize(size)

	// Bottom-center, clear of the dock/taskbar.
	w.posX = (screenW - int(size.Width)) / 2
	w.posY = screenH - int(size.Height) - 20

	go onReady()

	// Loop runs with the window hidden until the first session starts.
	w.fyneApp.Run()
	return nil
}

func (w *Window) Quit() {
	if w.fyneApp != nil {
		w.fyneApp.Quit()
	}
}

func (w *Window) Show() {
	fyne.Do(func() {
		if w.window == nil {
			return
		}
		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			glfwWin.SetPos(w.posX, w.posY)
			glfwWin.SetAttrib(glfw.FocusOnShow, glfw.False)
			glfwWin.SetAttrib(glfw.Floating, glfw.True)
			glfwWin.Show()
		} else {
			w.window.Show()
		}
		w.ctrl.Sync(0)
	})
}

func (w *Window) Hide() {
	fyne.Do(func() {
		if w.window != nil {
			w.window.Hide()
		}
	})
}

func (w *Window) moveBy(dx, dy float64) {
	fyne.Do(func() {
		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			x, y := glfwWin.GetPos()
			w.posX = x + int(dx)
			w.posY = y + int(dy)
			glfwWin.SetPos(w.posX, w.posY)
		}
	})
}

func (w *Window) StatusChanged(s session.Status) {
	w.orb.SetStatus(s)
	switch s {
	case session.StatusListening, session.StatusError:
		w.Show()
	case session.StatusIdle:
		w.Hide()
	}
}

func (w *Window) AudioLevel(level float64) {
	w.orb.SetLevel(level)
}

func (w *Window) Partial(string) {}

func (w *Window) Final(string, whisper.Result) {
	w.Hide()
}

func (w *Window) Silence(ev session.SilenceEvent) {
	switch ev {
	case session.SilenceWarn, session.SilenceRepeat:
		w.orb.SetWarning(true)
	case session.SilenceWarnClear:
		w.orb.SetWarning(false)
	}
}

func (w *Window) PermissionRequired([]string) {}

func (w *Window) SessionError(error) {}

// renderTrayIcon draws the red-dot tray icon in code so no asset file is
// needed.
func renderTrayIcon(size int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cx, cy := float64(size)/2, float64(size)/2
	outer := float64(size)/2 - 1
	dot := float64(size) / 6.5
	red := color.RGBA{R: 255, G: 59, B: 48, A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			switch {
			case d <= dot:
				img.Set(x, y, red)
			case d <= outer:
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("render tray icon: " + err.Error())
	}
	return buf.Bytes()
}
