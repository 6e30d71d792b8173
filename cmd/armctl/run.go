package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/armctl/pkg/actuator"
	"github.com/gwillem/armctl/pkg/kinematics"
	"github.com/gwillem/armctl/pkg/robot"
)

type RunCommand struct {
	Mode    string  `long:"mode" choice:"full_teleop" choice:"elbow_teleop" choice:"autonomous" description:"Control mode (default from config)"`
	DryRun  bool    `long:"dry-run" description:"Replace the follower arm with a loopback that echoes commands"`
	Hz      int     `long:"hz" description:"Control loop frequency (default from config)"`
	Speed   float64 `long:"speed" description:"Gripper tip speed limit in m/s (default from config)"`
	Mirror  bool    `long:"mirror" description:"Mirror mode: invert leader shoulder_pan and wrist_roll"`
	Verbose bool    `short:"v" long:"verbose" description:"Show debug logs"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	poseHeight   = 2 // pose row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border

	nudgeStep      = 0.01 // m
	nudgeWristStep = 5.0  // degrees
)

// Motor colors - distinct colors for each motor
var motorColors = map[robot.MotorName]string{
	robot.ShoulderPan:  "196", // red
	robot.ShoulderLift: "208", // orange
	robot.ElbowFlex:    "226", // yellow
	robot.WristFlex:    "46",  // green
	robot.WristRoll:    "51",  // cyan
	robot.Gripper:      "201", // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	closeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	farStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type runModel struct {
	ctrl          *actuator.Controller
	logCh         logSink
	home          actuator.Request
	chart         *streamlinechart.Model
	width         int      // terminal width
	height        int      // terminal height
	logs          []string // last N log messages
	quitting      bool
	state         actuator.State
	lastPositions map[robot.MotorName]float64 // track previous positions to detect movement
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any motor position has changed from the last state
func (m *runModel) hasMovement(positions map[robot.MotorName]float64) bool {
	if m.lastPositions == nil {
		return true
	}
	for name, pos := range positions {
		if lastPos, ok := m.lastPositions[name]; !ok || pos != lastPos {
			return true
		}
	}
	return false
}

// Messages from the controller
type stateMsg actuator.State
type logMsg string

func waitForState(ctrl *actuator.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(logs logSink) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-logs)
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - poseHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *runModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func newRunModel(ctrl *actuator.Controller, logs logSink, home actuator.Request) runModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-180, 180),
	)

	for _, name := range robot.AllMotors() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(motorColors[name]))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return runModel{
		ctrl:  ctrl,
		logCh: logs,
		home:  home,
		chart: &chart,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.logCh),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if m.ctrl.Mode() != actuator.Autonomous {
			return m, nil
		}
		if req, ok := nudge(m.ctrl.Request(), key, m.home); ok {
			if err := m.ctrl.RequestPosition(req); err != nil {
				m.addLog(err.Error())
			}
		}
		return m, nil

	case stateMsg:
		m.state = actuator.State(msg)
		if m.state.Positions != nil && m.hasMovement(m.state.Positions) {
			// freeze the chart while the arm is idle
			for name, pos := range m.state.Positions {
				m.chart.PushDataSet(string(name), pos)
			}
			m.chart.DrawAll()
			m.lastPositions = m.state.Positions
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.logCh)
	}

	return m, nil
}

// nudge applies a dashboard key to a position request.
func nudge(req actuator.Request, key string, home actuator.Request) (actuator.Request, bool) {
	switch key {
	case "up":
		req.X += nudgeStep
	case "down":
		req.X -= nudgeStep
	case "left":
		req.Y += nudgeStep
	case "right":
		req.Y -= nudgeStep
	case "w":
		req.Z += nudgeStep
	case "s":
		req.Z -= nudgeStep
	case "]":
		req.WristAngle += kinematics.Deg2Rad(nudgeWristStep)
	case "[":
		req.WristAngle -= kinematics.Deg2Rad(nudgeWristStep)
	case "g":
		if req.Gripper < 0.5 {
			req.Gripper = 1
		} else {
			req.Gripper = 0
		}
	case "h":
		return home, true
	default:
		return req, false
	}
	return req, true
}

func (m runModel) View() string {
	if m.quitting {
		return "Control loop stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("armctl " + m.ctrl.Mode().String()))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderLegend())
	sb.WriteString("\n")
	sb.WriteString(m.renderPose())
	sb.WriteString("\n\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render(m.help())
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m runModel) help() string {
	if m.ctrl.Mode() == actuator.Autonomous {
		return "arrows x/y, w/s z, [ ] wrist, g gripper, h home, q quit"
	}
	return "Press 'q' to quit"
}

func (m runModel) renderPose() string {
	if m.state.Error != nil {
		return farStyle.Render("error: " + m.state.Error.Error())
	}
	line := "tip " + formatMM(m.state.Pose)
	if m.ctrl.Mode() != actuator.Autonomous {
		return line
	}

	line += "   target " + formatMM(m.state.Target)
	if m.state.CloseToTarget {
		return line + "   " + closeStyle.Render("close")
	}
	return line + "   " + farStyle.Render("moving")
}

func formatMM(v r3.Vector) string {
	return fmt.Sprintf("(%6.1f, %6.1f, %6.1f) mm", v.X*1000, v.Y*1000, v.Z*1000)
}

func renderLegend() string {
	var items []string
	for _, name := range robot.AllMotors() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(motorColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+string(name))
	}
	return strings.Join(items, "  ")
}

// loadRunConfig reads the config file and applies command line overrides.
// A dry run works without a config file.
func (c *RunCommand) loadRunConfig() (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if err != nil {
		if !c.DryRun || !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "load %s (run 'armctl setup' first)", opts.Config)
		}
		cfg = &robot.Config{}
	}
	if c.Mode != "" {
		cfg.Control.Mode = c.Mode
	}
	if c.Hz != 0 {
		cfg.Control.Hz = c.Hz
	}
	if c.Speed != 0 {
		cfg.Control.SpeedLimit = c.Speed
	}
	if c.Mirror {
		cfg.Control.Mirror = true
	}
	return cfg, nil
}

func openArm(name string, arm robot.ArmConfig) (*robot.Arm, error) {
	if arm.Port == "" {
		return nil, errors.Errorf("%s arm not configured, run 'armctl setup' first", name)
	}
	if !arm.IsCalibrated() {
		return nil, errors.Errorf("%s arm not calibrated, run 'armctl setup' first", name)
	}
	a, err := robot.NewArm(arm.Port, arm.Calibration)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s arm", name)
	}
	return a, nil
}

func closeAll(devices ...any) {
	for _, d := range devices {
		if closer, ok := d.(io.Closer); ok {
			closer.Close()
		}
	}
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := c.loadRunConfig()
	if err != nil {
		return err
	}
	ctrlCfg, err := actuator.ConfigFrom(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	level := zapcore.InfoLevel
	if c.Verbose {
		level = zapcore.DebugLevel
	}
	logs := make(logSink, 10)
	logger := newSinkLogger(logs, level)

	var follower actuator.Robot
	if c.DryRun {
		follower = robot.NewLoopback(ctrlCfg.RestPose)
	} else {
		arm, err := openArm("follower", cfg.Follower)
		if err != nil {
			return err
		}
		follower = arm
	}

	var leader actuator.InputDevice
	if ctrlCfg.Mode.UsesInput() {
		arm, err := openArm("leader", cfg.Leader)
		if err != nil {
			closeAll(follower)
			return err
		}
		leader = arm
	}

	ctrl, err := actuator.New(ctrlCfg, follower, leader, logger)
	if err != nil {
		closeAll(follower, leader)
		return err
	}

	return serve(ctrl, logger, func() error {
		p := tea.NewProgram(newRunModel(ctrl, logs, ctrlCfg.Home), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return errors.Wrap(err, "run dashboard")
		}
		return nil
	})
}

// serve runs the control loop for as long as ui blocks. The arms are closed
// only after the loop has finished its shutdown.
func serve(ctrl *actuator.Controller, logger *zap.Logger, ui func() error) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("control loop exited", zap.Error(err))
		}
	}()

	err := ui()
	cancel()
	<-done
	return multierr.Append(err, ctrl.Close())
}
