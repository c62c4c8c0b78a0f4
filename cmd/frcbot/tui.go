package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/frcbot/pkg/loop"
)

const (
	headerHeight = 3 // title + status + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Series plotted on the chart. Distances reset at every step, so the chart
// shows each step's progress toward its target.
const (
	seriesLeft    = "left ft"
	seriesRight   = "right ft"
	seriesHeading = "heading/4"
)

var seriesColors = []struct {
	name  string
	color string
}{
	{seriesLeft, "46"},     // green
	{seriesRight, "51"},    // cyan
	{seriesHeading, "208"}, // orange
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	stageStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type autoModel struct {
	ctrl     *loop.Controller
	sink     *loop.LogSink
	title    string
	chart    *streamlinechart.Model
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	state    loop.State
	quitting bool
}

func (m *autoModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg loop.State
type logMsg string

func waitForState(ctrl *loop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(sink *loop.LogSink) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-sink.Lines())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *autoModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *autoModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialAutoModel(ctrl *loop.Controller, sink *loop.LogSink, title string) autoModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-20, 20),
	)
	for _, s := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color))
		chart.SetDataSetStyles(s.name, runes.ThinLineStyle, style)
	}

	return autoModel{
		ctrl:  ctrl,
		sink:  sink,
		title: title,
		chart: &chart,
	}
}

func (m autoModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.sink),
	)
}

func (m autoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		m.state = loop.State(msg)
		m.chart.PushDataSet(seriesLeft, m.state.LeftFeet)
		m.chart.PushDataSet(seriesRight, m.state.RightFeet)
		m.chart.PushDataSet(seriesHeading, m.state.Heading/4)
		m.chart.DrawAll()
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.sink)
	}

	return m, nil
}

func (m autoModel) View() string {
	if m.quitting {
		return "Autonomous stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString(fmt.Sprintf(" - %d Hz - %s", m.ctrl.Hz(), m.ctrl.Selection()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m autoModel) renderStatus() string {
	s := m.state
	status := fmt.Sprintf("%s  step %d/%d/%d/%d  arm %s  wedge %s (%s)  %.1fs/%.0fs",
		stageStyle.Render(s.Stage.String()),
		s.Counters.Main, s.Counters.Obstacle, s.Counters.Goal, s.Counters.Score,
		s.Region, s.Wedge, s.WedgeMotion,
		s.Elapsed.Seconds(), m.ctrl.Period().Seconds(),
	)
	if s.Error != nil {
		status += "  " + errorStyle.Render(s.Error.Error())
	}
	return status
}

func renderLegend() string {
	var items []string
	for _, s := range seriesColors {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color)).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+s.name)
	}
	return strings.Join(items, "  ")
}

func runTUI(ctrl *loop.Controller, sink *loop.LogSink, title string) error {
	p := tea.NewProgram(initialAutoModel(ctrl, sink, title), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
