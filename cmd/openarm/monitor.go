package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/openarm-community/openarm-go/pkg/monitor"
)

type MonitorCommand struct {
	Config string   `long:"config" description:"Path to the configuration file"`
	Hz     int      `long:"hz" description:"Command rate (default from config)"`
	Kp     *float64 `long:"kp" description:"Stiffness gain (default from config)"`
	Kd     *float64 `long:"kd" description:"Damping gain (default from config)"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

const (
	positionSet = "position"
	targetSet   = "target"
)

var seriesColors = map[string]string{
	positionSet: "46",  // green
	targetSet:   "226", // yellow
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type monitorModel struct {
	ctrl     *monitor.Controller
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	last     monitor.State
	quitting bool
}

func (m *monitorModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg monitor.State
type logMsg string

func waitForState(ctrl *monitor.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *monitor.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *monitorModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialMonitorModel(ctrl *monitor.Controller) monitorModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, 1),
	)

	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return monitorModel{
		ctrl:  ctrl,
		chart: &chart,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		case " ":
			m.ctrl.Toggle()
		case "o":
			m.ctrl.SetTarget(0)
		case "c":
			m.ctrl.SetTarget(1)
		}

	case stateMsg:
		state := monitor.State(msg)
		m.last = state
		if state.Known {
			m.chart.PushDataSet(positionSet, state.Position)
		}
		m.chart.PushDataSet(targetSet, state.Target)
		m.chart.DrawAll()
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("OpenArm Monitor"))
	sb.WriteString(fmt.Sprintf(" - %d Hz, target %.2f", m.ctrl.Hz(), m.ctrl.Target()))
	if m.last.Known {
		sb.WriteString(fmt.Sprintf(", position %.3f", m.last.Position))
	}
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
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("space toggles, o opens, c closes, q quits")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, name := range []string{positionSet, targetSet} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func (c *MonitorCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	hz, kp, kd := cfg.Gripper.RateHz, *cfg.Gripper.Kp, *cfg.Gripper.Kd
	if c.Hz > 0 {
		hz = c.Hz
	}
	if c.Kp != nil {
		kp = *c.Kp
	}
	if c.Kd != nil {
		kd = *c.Kd
	}

	a, err := openArm(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := monitor.NewController(monitor.Config{
		Arm:    a,
		Kp:     kp,
		Kd:     kd,
		Hz:     hz,
		Target: 1,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	p := tea.NewProgram(initialMonitorModel(ctrl), tea.WithAltScreen())
	_, runErr := p.Run()

	// Let the controller finish disabling the motors before the
	// deferred Close tears the driver down.
	cancel()
	<-done

	if runErr != nil {
		log.Fatalf("Error running program: %v", runErr)
	}
	return nil
}
