package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/gwillem/armctl/pkg/actuator"
	"github.com/gwillem/armctl/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// errAborted is returned when the user leaves a prompt.
var errAborted = errors.New("setup aborted")

type SetupCommand struct {
	FollowerOnly bool `long:"follower-only" description:"Configure only the follower arm (autonomous use)"`
	Verbose      bool `short:"v" long:"verbose" description:"Show debug logs"`
}

func (c *SetupCommand) Execute(args []string) error {
	logger := newConsoleLogger(c.Verbose)
	defer logger.Sync() //nolint:errcheck

	fmt.Println(headerStyle.Render("armctl setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	// keep control and kinematics settings from an earlier setup
	config, err := robot.LoadConfigFrom(opts.Config)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		config = &robot.Config{}
	}

	leaderPort, followerPort, err := c.scanForArms(logger)
	if err != nil {
		return err
	}
	config.Leader.Port = leaderPort
	config.Follower.Port = followerPort

	if leaderPort != "" {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Calibrating Leader Arm ━━━"))
		fmt.Println()
		if err := calibrateArm(logger, &config.Leader, "leader"); err != nil {
			return err
		}
		if err := config.SaveTo(opts.Config); err != nil {
			return errors.Wrap(err, "save config")
		}
	}

	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Follower Arm ━━━"))
	fmt.Println()
	if err := calibrateArm(logger, &config.Follower, "follower"); err != nil {
		return err
	}

	mode, err := chooseMode(config.Control.Mode, leaderPort != "")
	if err != nil {
		return err
	}
	config.Control.Mode = mode
	if err := config.Validate(); err != nil {
		return err
	}
	if err := config.SaveTo(opts.Config); err != nil {
		return errors.Wrap(err, "save config")
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start the control loop with: " + headerStyle.Render("armctl run"))

	return nil
}

func (c *SetupCommand) scanForArms(logger *zap.Logger) (leaderPort, followerPort string, err error) {
	fmt.Println("Scanning for robot arms...")
	fmt.Println()

	arms := findArms(logger)
	if len(arms) == 0 {
		return "", "", errors.New("no SO-101 arms found, make sure they are connected and powered on")
	}

	fmt.Printf("Found %d arm(s). Let's identify them...\n\n", len(arms))

	for i, arm := range arms {
		if followerPort != "" && (leaderPort != "" || c.FollowerOnly) {
			// close the buses we won't wiggle
			for _, rest := range arms[i:] {
				rest.bus.Close()
			}
			break
		}
		role, err := identifyArmWithWiggle(logger, arm, leaderPort == "" && !c.FollowerOnly, followerPort == "")
		if err != nil {
			return "", "", err
		}
		switch role {
		case "leader":
			leaderPort = arm.port
		case "follower":
			followerPort = arm.port
		}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
	if followerPort == "" {
		return "", "", errors.New("follower arm not identified")
	}
	if leaderPort == "" && !c.FollowerOnly {
		return "", "", errors.New("leader arm not identified (use --follower-only for autonomous use)")
	}

	fmt.Println(successStyle.Render("Arms identified:"))
	if leaderPort != "" {
		fmt.Printf("  Leader:   %s\n", leaderPort)
	}
	fmt.Printf("  Follower: %s\n", followerPort)

	return leaderPort, followerPort, nil
}

func calibrateArm(logger *zap.Logger, armConfig *robot.ArmConfig, armName string) error {
	fmt.Printf("Calibrating %s arm on %s\n", armName, armConfig.Port)
	fmt.Println()

	bus, servos, err := connectToArm(armConfig.Port)
	if err != nil {
		return errors.Wrapf(err, "connect to %s arm", armName)
	}
	defer bus.Close()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// torque off so the joints can be moved by hand
	ctx := context.Background()
	for id, servo := range servoMap {
		if err := servo.Disable(ctx); err != nil {
			logger.Warn("failed to disable servo", zap.Int("id", id), zap.Error(err))
		}
	}

	motors := robot.AllMotors()

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move each joint to its minimum AND maximum positions.")
	fmt.Println("The middle of each range becomes the joint's zero angle.")
	fmt.Println()

	curPositions := make(map[robot.MotorName]int)
	minPositions := make(map[robot.MotorName]int)
	maxPositions := make(map[robot.MotorName]int)
	for i, motorName := range motors {
		pos, err := servoMap[i+1].Position(ctx)
		if err != nil {
			return errors.Wrapf(err, "read %s", motorName)
		}
		curPositions[motorName] = pos
		minPositions[motorName] = pos
		maxPositions[motorName] = pos
	}

	model := newCalibrationModel(motors, servoMap, curPositions, minPositions, maxPositions)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return errors.Wrap(err, "run calibration")
	}
	cm := finalModel.(calibrationModel)

	calibration := make(robot.Calibration, len(motors))
	for i, motorName := range motors {
		calibration[motorName] = robot.MotorCalibration{
			ID:        i + 1,
			DriveMode: armConfig.Calibration[motorName].DriveMode,
			RangeMin:  cm.minPositions[motorName],
			RangeMax:  cm.maxPositions[motorName],
		}
	}
	if err := calibration.Validate(); err != nil {
		return errors.Wrapf(err, "%s calibration", armName)
	}

	armConfig.Calibration = calibration
	fmt.Println()
	fmt.Printf("%s arm calibrated.\n", armName)
	return nil
}

func chooseMode(current string, haveLeader bool) (string, error) {
	mode := current
	if mode == "" {
		mode = actuator.FullTeleop.String()
	}
	if !haveLeader {
		fmt.Println("No leader arm: using autonomous mode.")
		return actuator.Autonomous.String(), nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default control mode").
				Options(
					huh.NewOption("Full teleoperation (mirror every joint)", actuator.FullTeleop.String()),
					huh.NewOption("Elbow-only teleoperation (level gripper, speed limited)", actuator.ElbowOnlyTeleop.String()),
					huh.NewOption("Autonomous (position requests)", actuator.Autonomous.String()),
				).
				Value(&mode),
		),
	)
	if err := form.Run(); err != nil {
		return "", errAborted
	}
	return mode, nil
}

type armInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func openBus(port string) (*feetech.Bus, error) {
	return feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
}

func findArms(logger *zap.Logger) []armInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		logger.Error("failed to list serial ports", zap.Error(err))
		return nil
	}

	var arms []armInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		bus, err := openBus(port)
		if err != nil {
			logger.Debug("skipping port", zap.String("port", port), zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		servos, err := bus.Scan(ctx, 1, 6)
		cancel()

		if err != nil || !isSOArm(servos) {
			bus.Close()
			continue
		}

		fmt.Printf("  Found SO-101 arm on %s\n", port)
		arms = append(arms, armInfo{port: port, servos: servos, bus: bus})
	}

	return arms
}

// isSOArm reports whether servos are exactly the IDs 1-6 of an SO-101.
func isSOArm(servos []feetech.FoundServo) bool {
	if len(servos) != 6 {
		return false
	}

	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= 6; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

func identifyArmWithWiggle(logger *zap.Logger, arm armInfo, needLeader, needFollower bool) (string, error) {
	defer arm.bus.Close()

	ctx := context.Background()

	// shoulder_pan is the safest joint to wiggle
	var servo *feetech.Servo
	for _, s := range arm.servos {
		if s.ID == 1 {
			servo = feetech.NewServo(arm.bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return "", nil
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		logger.Warn("failed to read position", zap.String("port", arm.port), zap.Error(err))
		return "", nil
	}
	if err := servo.Enable(ctx); err != nil {
		logger.Warn("failed to enable servo", zap.String("port", arm.port), zap.Error(err))
		return "", nil
	}

	fmt.Printf("\n  Wiggling arm on %s...\n", arm.port)

	const wiggleAmount = 30
	const moveTimeMs = 500
	for _, pos := range []int{originalPos + wiggleAmount, originalPos - wiggleAmount, originalPos} {
		if err := servo.SetPositionWithTime(ctx, pos, moveTimeMs); err != nil {
			logger.Warn("wiggle failed", zap.String("port", arm.port), zap.Error(err))
			break
		}
		time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	}

	if err := servo.Disable(ctx); err != nil {
		logger.Warn("failed to disable servo", zap.String("port", arm.port), zap.Error(err))
	}

	var options []huh.Option[string]
	if needLeader {
		options = append(options, huh.NewOption("Leader (the one you move by hand)", "leader"))
	}
	if needFollower {
		options = append(options, huh.NewOption("Follower (the one that moves by itself)", "follower"))
	}
	options = append(options, huh.NewOption("Skip this arm", "skip"))

	var role string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Which arm is on %s?", arm.port)).
				Description("The arm that just wiggled").
				Options(options...).
				Value(&role),
		),
	)
	if err := form.Run(); err != nil {
		return "", errAborted
	}

	if role == "skip" {
		return "", nil
	}
	return role, nil
}

func connectToArm(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := openBus(port)
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, 6)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	if !isSOArm(servos) {
		bus.Close()
		return nil, nil, errors.New("not an SO-101 arm (expected 6 servos with IDs 1-6)")
	}

	return bus, servos, nil
}

// Calibration TUI model
type calibrationModel struct {
	motors       []robot.MotorName
	servoMap     map[int]*feetech.Servo
	curPositions map[robot.MotorName]int
	minPositions map[robot.MotorName]int
	maxPositions map[robot.MotorName]int
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(
	motors []robot.MotorName,
	servoMap map[int]*feetech.Servo,
	curPositions, minPositions, maxPositions map[robot.MotorName]int,
) calibrationModel {
	return calibrationModel{
		motors:       motors,
		servoMap:     servoMap,
		curPositions: curPositions,
		minPositions: minPositions,
		maxPositions: maxPositions,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for i, motorName := range m.motors {
			pos, err := m.servoMap[i+1].Position(ctx)
			if err != nil {
				continue
			}
			m.track(motorName, pos)
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) track(name robot.MotorName, pos int) {
	m.curPositions[name] = pos
	if pos < m.minPositions[name] {
		m.minPositions[name] = pos
	}
	if pos > m.maxPositions[name] {
		m.maxPositions[name] = pos
	}
}

// degreesOf converts a raw reading with the range recorded so far.
func (m calibrationModel) degreesOf(name robot.MotorName) float64 {
	cal := robot.MotorCalibration{RangeMin: m.minPositions[name], RangeMax: m.maxPositions[name]}
	return cal.Degrees(m.curPositions[name])
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.motors))
	ranges := make([]int, 0, len(m.motors))
	for _, motorName := range m.motors {
		rangeSize := m.maxPositions[motorName] - m.minPositions[motorName]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(motorName),
			fmt.Sprintf("%d", m.curPositions[motorName]),
			fmt.Sprintf("%.1f°", m.degreesOf(motorName)),
			fmt.Sprintf("%d", m.minPositions[motorName]),
			fmt.Sprintf("%d", m.maxPositions[motorName]),
			fmt.Sprintf("%d", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Motor", "Current", "Angle", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableMotorStyle
			case 1, 2:
				return tableCurrentStyle
			case 5:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	return t.Render() + "\n\n" + dimStyle.Render("Press Enter when done")
}
