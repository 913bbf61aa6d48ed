package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"murmur/log"
	"murmur/session"
	"murmur/whisper"
)

// TUI message types
type statusMsg session.Status
type levelMsg float64
type partialMsg string
type finalMsg struct {
	Text    string
	Model   string
	Backend string
	Took    time.Duration
}
type silenceMsg session.SilenceEvent
type permissionMsg []string
type sessionErrMsg struct{ Err error }
type deviceLineMsg string
type modeLineMsg string
type helpLineMsg string
type tickMsg time.Time

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

func tuiStart() {
	tuiMu.Lock()
	tuiProgram = tea.NewProgram(tuiModel{}, tea.WithAltScreen())
	tuiMu.Unlock()

	go func() {
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		gracefulShutdown()
	}()

	<-tuiReady
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiQuit() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func tuiReleaseTerminal() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.ReleaseTerminal()
	}
}

func tuiRestoreTerminal() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.RestoreTerminal()
	}
}

// tuiSink forwards session events into the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) StatusChanged(s session.Status) { tuiSend(statusMsg(s)) }

func (tuiSink) AudioLevel(level float64) { tuiSend(levelMsg(level)) }

func (tuiSink) Partial(text string) { tuiSend(partialMsg(text)) }

func (tuiSink) Final(text string, res whisper.Result) {
	tuiSend(finalMsg{Text: text, Model: res.Model, Backend: res.Backend, Took: res.Duration})
}

func (tuiSink) Silence(ev session.SilenceEvent) { tuiSend(silenceMsg(ev)) }

func (tuiSink) PermissionRequired(steps []string) { tuiSend(permissionMsg(steps)) }

func (tuiSink) SessionError(err error) { tuiSend(sessionErrMsg{Err: err}) }

type tuiModel struct {
	status        session.Status
	frame         int
	started       time.Time
	level         float64
	warning       bool
	partial       string
	lastText      string
	lastMeta      string
	msgCount      int
	errText       string
	permSteps     []string
	deviceLine    string
	modeLine      string
	helpLine      string
	width, height int
}

func tuiTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+g":
			select {
			case deviceSelectChan <- struct{}{}:
			default:
			}
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case statusMsg:
		m.status = session.Status(msg)
		switch m.status {
		case session.StatusListening:
			m.started = time.Now()
			m.level = 0
			m.warning = false
			m.partial = ""
			m.errText = ""
			m.permSteps = nil
		case session.StatusIdle:
			m.level = 0
			m.warning = false
		}

	case levelMsg:
		if m.status == session.StatusListening {
			m.level = m.level*0.6 + float64(msg)*0.4
		}

	case partialMsg:
		m.partial = string(msg)

	case finalMsg:
		m.partial = ""
		if msg.Text != "" {
			m.msgCount++
			m.lastText = msg.Text
			m.lastMeta = fmt.Sprintf("%s | %s | %.0fms", msg.Model, msg.Backend,
				float64(msg.Took.Milliseconds()))
		} else {
			m.lastText = "(no speech detected)"
			m.lastMeta = ""
		}

	case silenceMsg:
		switch session.SilenceEvent(msg) {
		case session.SilenceWarn, session.SilenceRepeat:
			m.warning = true
		case session.SilenceWarnClear:
			m.warning = false
		}

	case permissionMsg:
		m.permSteps = []string(msg)

	case sessionErrMsg:
		m.errText = msg.Err.Error()

	case deviceLineMsg:
		m.deviceLine = string(msg)

	case modeLineMsg:
		m.modeLine = string(msg)

	case helpLineMsg:
		m.helpLine = string(msg)
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string

	title := lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true).
		Render("murmur " + version)
	lines = append(lines, title, "")

	switch m.status {
	case session.StatusListening:
		status := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).
			Render(fmt.Sprintf("● REC %.1fs", time.Since(m.started).Seconds()))
		lines = append(lines, status)
		lines = append(lines, levelBar(m.level, 24))
		if m.warning {
			warn := lipgloss.NewStyle().Foreground(lipgloss.Color("208")).
				Render("⚠ no voice detected")
			lines = append(lines, warn)
		}
	case session.StatusProcessing:
		dots := strings.Repeat(".", m.frame%4)
		status := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).
			Render("◌ PROCESSING" + dots)
		lines = append(lines, status)
		if m.partial != "" {
			partial := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true).
				Render(m.partial)
			lines = append(lines, partial)
		}
	case session.StatusError:
		status := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).
			Render("✕ ERROR")
		lines = append(lines, status)
	default:
		status := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
			Render("○ STANDBY")
		lines = append(lines, status)
	}
	lines = append(lines, "")

	wrapWidth := m.width - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	if m.errText != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		for _, line := range wrapText("error: "+m.errText, wrapWidth) {
			lines = append(lines, errStyle.Render(line))
		}
		lines = append(lines, "")
	}

	if len(m.permSteps) > 0 {
		permStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
		lines = append(lines, permStyle.Render("Microphone access is not authorized:"))
		for _, step := range m.permSteps {
			lines = append(lines, permStyle.Render("  - "+step))
		}
		lines = append(lines, "")
	}

	if m.lastText != "" {
		header := lipgloss.NewStyle().Foreground(lipgloss.Color("246")).
			Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount))
		lines = append(lines, header)
		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		for _, line := range wrapText(m.lastText, wrapWidth) {
			lines = append(lines, textStyle.Render(line))
		}
		if m.lastMeta != "" {
			meta := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).
				Render(m.lastMeta)
			lines = append(lines, meta)
		}
	} else {
		placeholder := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
			Render("No transcriptions yet")
		lines = append(lines, placeholder)
	}
	lines = append(lines, "")

	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.modeLine != "" {
		lines = append(lines, infoStyle.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		lines = append(lines, infoStyle.Render(m.deviceLine))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	help := boldStyle.Render(m.helpLine) +
		helpStyle.Render(" hold to talk, tap to toggle, ctrl+c quits")
	lines = append(lines, help)

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

var levelColors = []string{"28", "34", "40", "46", "190", "226", "220", "208", "202", "196"}

// levelBar renders a horizontal meter; color runs green to red with level.
func levelBar(level float64, width int) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level * float64(width))
	if filled > width {
		filled = width
	}
	colorIdx := int(level * float64(len(levelColors)-1))
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(levelColors[colorIdx])).
		Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(lipgloss.Color("236")).
		Render(strings.Repeat("░", width-filled))
	return bar + rest
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
