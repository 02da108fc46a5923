package uplink

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"dronecourier/internal/config"
	"dronecourier/internal/mission"
	"dronecourier/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// eventMsg carries one mission event for the log viewport.
type eventMsg struct{ row telemetry.EventRow }

// summaryMsg carries the final mission outcome.
type summaryMsg struct{ row telemetry.SummaryRow }

// TUIWriter renders mission progress using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.Mission) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(row telemetry.EventRow) error {
	w.program.Send(eventMsg{row: row})
	return nil
}

// WriteSummary implements SummaryWriter.
func (w *TUIWriter) WriteSummary(row telemetry.SummaryRow) error {
	w.program.Send(summaryMsg{row: row})
	return nil
}

// Close stops the TUI without signalling the process.
func (w *TUIWriter) Close() {
	w.sendSignal.Store(false)
	if p, ok := w.program.(*tea.Program); ok {
		p.Quit()
		<-w.done
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	phaseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	batteryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	forcedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	borderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type tuiModel struct {
	cfg     *config.Mission
	vp      viewport.Model
	lines   []string
	phase   string
	battery float64
	summary string
	width   int
	ready   bool
}

func newTUIModel(cfg *config.Mission) tuiModel {
	return tuiModel{cfg: cfg, phase: string(mission.PhasePreflightCheck)}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		headerHeight := 4
		m.vp = viewport.New(msg.Width-2, msg.Height-headerHeight-2)
		m.ready = true
		m.refresh()
	case eventMsg:
		m.phase = msg.row.Phase
		m.battery = msg.row.Battery
		m.lines = append(m.lines, m.renderEvent(msg.row))
		m.refresh()
	case summaryMsg:
		verdict := "DELIVERED"
		style := okStyle
		switch {
		case msg.row.Aborted:
			verdict, style = "ABORTED", failStyle
		case !msg.row.Delivered:
			verdict, style = "NOT DELIVERED", forcedStyle
		}
		m.summary = style.Render(fmt.Sprintf("mission %s: %s (battery %.0f%%, %d events)",
			msg.row.MissionID, verdict, msg.row.BatteryEnd, msg.row.Events))
		m.refresh()
	}
	return m, nil
}

func (m *tuiModel) renderEvent(row telemetry.EventRow) string {
	style := okStyle
	switch row.Outcome {
	case mission.OutcomeFailure:
		style = failStyle
	case mission.OutcomeDegraded:
		style = batteryStyle
	case mission.OutcomeForced:
		style = forcedStyle
	}
	line := fmt.Sprintf("[%s] %s/%s %s %s",
		row.Timestamp.Format(time.TimeOnly), row.Phase, row.Action, style.Render(row.Outcome), row.Detail)
	if m.width > 2 {
		line = wordwrap.String(line, m.width-2)
	}
	return line
}

func (m *tuiModel) refresh() {
	if !m.ready {
		return
	}
	content := ""
	for i, l := range m.lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	m.vp.SetContent(content)
	m.vp.GotoBottom()
}

func (m tuiModel) View() string {
	if !m.ready {
		return "starting..."
	}
	header := titleStyle.Render("dronecourier "+m.cfg.Name) + "  " +
		phaseStyle.Render("phase: "+m.phase) + "  " +
		batteryStyle.Render(fmt.Sprintf("battery: %.0f%%", m.battery))
	if m.summary != "" {
		header += "\n" + m.summary
	}
	return header + "\n" + borderStyle.Render(m.vp.View())
}
