// Package actuator runs the arm control loop: every cycle it reads the
// follower (and in teleoperation modes the leader), decides a joint command
// for the configured Mode and writes it to the follower.
package actuator

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gwillem/armctl/pkg/kinematics"
	"github.com/gwillem/armctl/pkg/robot"
)

// FlatWristAngle keeps the gripper level in elbow-only teleoperation.
const FlatWristAngle = 0.0

// InputDevice is a teleoperation device, typically a leader arm.
type InputDevice interface {
	// ReadPositions returns joint angles in degrees.
	ReadPositions(ctx context.Context) (map[robot.MotorName]float64, error)
}

// Robot is the arm being driven.
type Robot interface {
	InputDevice
	// WritePositions commands joint angles in degrees.
	WritePositions(ctx context.Context, positions map[robot.MotorName]float64) error
}

// Config holds the controller settings.
type Config struct {
	Mode           Mode
	Kinematics     kinematics.Params
	Hz             int
	SpeedLimit     float64 // m/s
	CloseThreshold float64 // m
	Home           Request

	// RestPose is the joint command, in degrees, held until the first valid
	// command is computed.
	RestPose map[robot.MotorName]float64

	// Mirror inverts the leader's shoulder pan and wrist roll.
	Mirror bool

	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// ConfigFrom builds a controller config from the config file.
func ConfigFrom(cfg *robot.Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	mode, err := ParseMode(cfg.Control.Mode)
	if err != nil {
		return Config{}, err
	}

	p := cfg.Geometry()
	home := RequestFromTarget(*cfg.Control.Home)
	rest := cfg.Control.RestPose
	if len(rest) == 0 {
		// without a rest pose, start where the home request puts the arm
		if pose, ok := HomePose(p, home); ok {
			rest = pose
		}
	}

	return Config{
		Mode:           mode,
		Kinematics:     p,
		Hz:             cfg.Control.Hz,
		SpeedLimit:     cfg.Control.SpeedLimit,
		CloseThreshold: cfg.Control.CloseThreshold,
		Home:           home,
		RestPose:       rest,
		Mirror:         cfg.Control.Mirror,
	}, nil
}

// HomePose returns the joint degrees that put the gripper tip at home. It
// reports false when home is unsafe or out of reach.
func HomePose(p kinematics.Params, home Request) (map[robot.MotorName]float64, bool) {
	if home.Validate() != nil || p.CheckSafe(home.Position()) != nil {
		return nil, false
	}
	q, err := p.SolveWrist(home.Position(), home.WristAngle)
	if err != nil {
		return nil, false
	}
	dh := kinematics.JointVector{q[0], q[1], q[2], q[3], home.WristAngle, p.GripperAngle(home.Gripper)}
	return JointsToDegrees(p.DHToMech(dh)), true
}

// RobotState is the follower state sampled at the start of a cycle.
type RobotState struct {
	Joints    kinematics.JointVector // DH frame
	Pose      r3.Vector              // gripper tip
	Timestamp time.Time
}

// Controller runs the control loop for one follower arm.
type Controller struct {
	params    kinematics.Params
	mode      Mode
	hz        int
	speed     float64
	threshold float64
	mirror    bool
	clock     clock.Clock
	logger    *zap.Logger

	robot Robot
	input InputDevice

	request atomic.Pointer[Request]
	fresh   atomic.Bool
	near    atomic.Bool

	// owned by the goroutine calling Step
	state         RobotState
	dt            float64
	teleop        kinematics.JointVector
	lastCommand   kinematics.JointVector // DH frame
	lastRejection string

	mu      sync.Mutex
	running bool
	stateCh chan State
}

// New creates a controller. input may be nil in Autonomous mode.
func New(cfg Config, rb Robot, input InputDevice, logger *zap.Logger) (*Controller, error) {
	if rb == nil {
		return nil, errors.New("robot is required")
	}
	if _, ok := modeNames[cfg.Mode]; !ok {
		return nil, errors.Errorf("unknown mode %d", cfg.Mode)
	}
	if cfg.Mode.UsesInput() && input == nil {
		return nil, errors.Errorf("mode %s requires an input device", cfg.Mode)
	}
	if err := cfg.Kinematics.Validate(); err != nil {
		return nil, errors.Wrap(err, "kinematics")
	}
	if !(cfg.SpeedLimit > 0) {
		return nil, errors.Errorf("speed limit must be > 0, got %v", cfg.SpeedLimit)
	}
	if !(cfg.CloseThreshold > 0) {
		return nil, errors.Errorf("close threshold must be > 0, got %v", cfg.CloseThreshold)
	}
	if err := cfg.Home.Validate(); err != nil {
		return nil, errors.Wrap(err, "home")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = robot.DefaultHz
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var rest kinematics.JointVector
	for i, name := range robot.AllMotors() {
		rest[i] = kinematics.Deg2Rad(cfg.RestPose[name])
	}

	c := &Controller{
		params:      cfg.Kinematics,
		mode:        cfg.Mode,
		hz:          cfg.Hz,
		speed:       cfg.SpeedLimit,
		threshold:   cfg.CloseThreshold,
		mirror:      cfg.Mirror,
		clock:       cfg.Clock,
		logger:      logger.With(zap.Stringer("mode", cfg.Mode)),
		robot:       rb,
		input:       input,
		lastCommand: cfg.Kinematics.MechToDH(rest),
		stateCh:     make(chan State, 1),
	}
	home := cfg.Home
	c.request.Store(&home)
	return c, nil
}

// Mode returns the control mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// RequestPosition replaces the active position request. Only Autonomous
// mode acts on it.
func (c *Controller) RequestPosition(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	c.request.Store(&req)
	c.fresh.Store(true)
	return nil
}

// Request returns the active position request.
func (c *Controller) Request() Request {
	return *c.request.Load()
}

// HasPendingRequest reports whether the latest request has not been seen
// by a control cycle yet.
func (c *Controller) HasPendingRequest() bool {
	return c.fresh.Load()
}

// IsCloseToTarget reports whether the gripper tip was within the close
// threshold of the requested position at the last Autonomous cycle.
func (c *Controller) IsCloseToTarget() bool {
	return c.near.Load()
}

// Step runs one control cycle. Geometry and safety rejections are logged and
// the previous command is held; only I/O and malformed readings are returned.
func (c *Controller) Step(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}

	var cmd kinematics.JointVector
	switch c.mode {
	case FullTeleop:
		cmd = c.teleop
	case ElbowOnlyTeleop:
		cmd = c.elbowOnly()
	case Autonomous:
		cmd = c.autonomous()
	}

	if !cmd.IsFinite() {
		c.logger.Warn("non-finite joint command, holding last command", zap.Float64s("command", cmd[:]))
		cmd = c.lastCommand
	}
	c.lastCommand = cmd

	mech := c.params.DHToMech(cmd)
	if err := c.robot.WritePositions(ctx, JointsToDegrees(mech)); err != nil {
		return errors.Wrap(err, "write joint command")
	}
	return nil
}

func (c *Controller) refresh(ctx context.Context) error {
	positions, err := c.robot.ReadPositions(ctx)
	if err != nil {
		return errors.Wrap(err, "read robot joints")
	}
	mech, err := JointsFromDegrees(positions)
	if err != nil {
		return errors.Wrap(err, "read robot joints")
	}

	// sample time right after the read so dt jitter tracks the bus only
	now := c.clock.Now()
	c.dt = 0
	if !c.state.Timestamp.IsZero() {
		c.dt = now.Sub(c.state.Timestamp).Seconds()
	}

	joints := c.params.MechToDH(mech)
	c.state = RobotState{
		Joints:    joints,
		Pose:      c.params.EndEffector(joints),
		Timestamp: now,
	}

	if !c.mode.UsesInput() {
		return nil
	}

	positions, err = c.input.ReadPositions(ctx)
	if err != nil {
		return errors.Wrap(err, "read input device")
	}
	mech, err = JointsFromDegrees(positions)
	if err != nil {
		return errors.Wrap(err, "read input device")
	}
	if c.mirror {
		mech[kinematics.ShoulderPan] = -mech[kinematics.ShoulderPan]
		mech[kinematics.WristRoll] = -mech[kinematics.WristRoll]
	}
	c.teleop = c.params.MechToDH(mech)
	return nil
}

func (c *Controller) elbowOnly() kinematics.JointVector {
	// cannot fail: three joints
	wrist, _ := c.params.ForwardKinematics(c.teleop[:3])
	next := kinematics.LimitStep(c.state.Pose, wrist, c.speed, c.dt)

	q, ok := c.solve(next, next, FlatWristAngle)
	if !ok {
		return c.lastCommand
	}
	return kinematics.JointVector{q[0], q[1], q[2], q[3], c.teleop[kinematics.WristRoll], c.teleop[kinematics.Gripper]}
}

func (c *Controller) autonomous() kinematics.JointVector {
	req := c.request.Load()
	c.fresh.Store(false)

	goal := req.Position()
	c.near.Store(c.state.Pose.Distance(goal) <= c.threshold)

	next := kinematics.LimitStep(c.state.Pose, goal, c.speed, c.dt)
	q, ok := c.solve(goal, next, req.WristAngle)
	if !ok {
		return c.lastCommand
	}
	return kinematics.JointVector{q[0], q[1], q[2], q[3], req.WristAngle, c.params.GripperAngle(req.Gripper)}
}

// solve checks check against the safety envelope and solves for target.
func (c *Controller) solve(check, target r3.Vector, wristAngle float64) ([4]float64, bool) {
	if err := c.params.CheckSafe(check); err != nil {
		c.reject(err)
		return [4]float64{}, false
	}
	q, err := c.params.SolveWrist(target, wristAngle)
	if err != nil {
		c.reject(err)
		return [4]float64{}, false
	}
	c.lastRejection = ""
	return q, true
}

// reject logs why a target was refused. Repeats of the same rejection on
// consecutive cycles are logged once.
func (c *Controller) reject(err error) {
	msg := err.Error()
	if msg == c.lastRejection {
		return
	}
	c.lastRejection = msg

	var unsafe *kinematics.UnsafeTargetError
	var unreachable *kinematics.UnreachableError
	switch {
	case errors.As(err, &unsafe):
		c.logger.Warn("unsafe target, holding last command",
			zap.Float64("x", unsafe.Target.X),
			zap.Float64("y", unsafe.Target.Y),
			zap.Float64("z", unsafe.Target.Z),
			zap.String("reason", unsafe.Reason),
		)
	case errors.As(err, &unreachable):
		c.logger.Warn("unreachable target, holding last command",
			zap.Float64("x", unreachable.Target.X),
			zap.Float64("y", unreachable.Target.Y),
			zap.Float64("z", unreachable.Target.Z),
		)
	default:
		c.logger.Warn("target rejected, holding last command", zap.Error(err))
	}
}

// Close closes the controller and releases the robot and input device.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	var err error
	if closer, ok := c.robot.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	if closer, ok := c.input.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}
