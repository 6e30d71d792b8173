package main

import (
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"

	"github.com/gwillem/armctl/pkg/actuator"
	"github.com/gwillem/armctl/pkg/kinematics"
	"github.com/gwillem/armctl/pkg/robot"
)

type SolveCommand struct {
	Forward ForwardCommand `command:"fk" description:"Gripper tip position for joint angles"`
	Inverse InverseCommand `command:"ik" description:"Joint angles for a gripper tip position"`
}

type ForwardCommand struct {
	Args struct {
		Degrees []float64 `positional-arg-name:"degrees" description:"Joint angles in degrees, shoulder_pan first (put -- before negative angles)"`
	} `positional-args:"yes" required:"yes"`
}

type InverseCommand struct {
	Wrist   float64 `short:"w" long:"wrist" default:"90" description:"Wrist angle in degrees, pitched up from horizontal"`
	Gripper float64 `short:"g" long:"gripper" default:"0" description:"Gripper opening, 0 closed to 1 open"`

	Args struct {
		X float64 `positional-arg-name:"x" description:"Forward, mm"`
		Y float64 `positional-arg-name:"y" description:"Left, mm (put -- before negative values)"`
		Z float64 `positional-arg-name:"z" description:"Up, mm"`
	} `positional-args:"yes" required:"yes"`
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableMotorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// geometry returns the kinematics of the configured arm, or the stock SO-101
// without a config file.
func geometry() (kinematics.Params, error) {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if os.IsNotExist(err) {
		return kinematics.SO101(), nil
	}
	if err != nil {
		return kinematics.Params{}, err
	}
	if err := cfg.Validate(); err != nil {
		return kinematics.Params{}, err
	}
	return cfg.Geometry(), nil
}

func (c *ForwardCommand) Execute(args []string) error {
	p, err := geometry()
	if err != nil {
		return err
	}
	if len(c.Args.Degrees) > kinematics.NumJoints {
		return errors.Errorf("at most %d joint angles, got %d", kinematics.NumJoints, len(c.Args.Degrees))
	}

	var mech kinematics.JointVector
	for i, deg := range c.Args.Degrees {
		mech[i] = kinematics.Deg2Rad(deg)
	}
	dh := p.MechToDH(mech)
	tip := p.EndEffector(dh)

	fmt.Println(jointTable(mech, dh).Render())
	fmt.Printf("tip %s, wrist angle %.1f°\n", formatMM(tip), kinematics.Rad2Deg(wristAngle(dh)))
	return nil
}

func (c *InverseCommand) Execute(args []string) error {
	p, err := geometry()
	if err != nil {
		return err
	}

	req := actuator.RequestFromTarget(robot.Target{
		X:          c.Args.X,
		Y:          c.Args.Y,
		Z:          c.Args.Z,
		WristAngle: c.Wrist,
		Gripper:    c.Gripper,
	})
	dh, err := inverse(p, req)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return err
	}

	mech := p.DHToMech(dh)
	tip := p.EndEffector(dh)
	fmt.Println(jointTable(mech, dh).Render())
	fmt.Printf("tip %s, error %.3g mm\n", formatMM(tip), tip.Distance(req.Position())*1000)
	return nil
}

// inverse checks and solves a request into a full DH joint vector.
func inverse(p kinematics.Params, req actuator.Request) (kinematics.JointVector, error) {
	if err := req.Validate(); err != nil {
		return kinematics.JointVector{}, err
	}
	if err := p.CheckSafe(req.Position()); err != nil {
		return kinematics.JointVector{}, err
	}
	q, err := p.SolveWrist(req.Position(), req.WristAngle)
	if err != nil {
		return kinematics.JointVector{}, err
	}
	return kinematics.JointVector{q[0], q[1], q[2], q[3], req.WristAngle, p.GripperAngle(req.Gripper)}, nil
}

// wristAngle is the pitch of the last link above the horizontal.
func wristAngle(dh kinematics.JointVector) float64 {
	return dh[kinematics.ShoulderLift] + dh[kinematics.ElbowFlex] + dh[kinematics.WristFlex] + math.Pi/2
}

func jointTable(mech, dh kinematics.JointVector) *table.Table {
	rows := make([][]string, 0, kinematics.NumJoints)
	for i, name := range robot.AllMotors() {
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%.2f", kinematics.Rad2Deg(mech[i])),
			fmt.Sprintf("%.4f", dh[i]),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Motor (deg)", "DH (rad)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return tableMotorStyle
			}
			return tableCellStyle
		})
}
