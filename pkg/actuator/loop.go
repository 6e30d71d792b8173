package actuator

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gwillem/armctl/pkg/robot"
)

// State is published after every cycle of Run.
type State struct {
	Positions     map[robot.MotorName]float64 // follower joints, degrees
	Pose          r3.Vector
	Target        r3.Vector // autonomous mode only
	CloseToTarget bool
	Timestamp     time.Time
	Error         error
}

type torquer interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// States returns a channel that receives state updates. Only the latest
// state is kept.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Run steps the controller at its configured rate until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("already running")
	}
	c.running = true
	c.mu.Unlock()

	// Initialize arms
	if leader, ok := c.input.(torquer); ok && c.mode.UsesInput() {
		if err := leader.Disable(ctx); err != nil {
			c.logger.Warn("failed to disable leader", zap.Error(err))
		} else {
			c.logger.Info("leader arm: torque disabled (passive mode)")
		}
	}
	if follower, ok := c.robot.(torquer); ok {
		if err := follower.Enable(ctx); err != nil {
			c.logger.Warn("failed to enable follower", zap.Error(err))
		} else {
			c.logger.Info("follower arm: torque enabled")
		}
	}

	c.logger.Info("control loop started", zap.Int("hz", c.hz))

	ticker := c.clock.Ticker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Controller) tick(ctx context.Context) {
	if err := c.Step(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("control cycle failed", zap.Error(err))
		c.sendState(State{Error: err, Timestamp: c.clock.Now()})
		return
	}

	mech := c.params.DHToMech(c.state.Joints)
	s := State{
		Positions: JointsToDegrees(mech),
		Pose:      c.state.Pose,
		Timestamp: c.state.Timestamp,
	}
	if c.mode == Autonomous {
		s.Target = c.Request().Position()
		s.CloseToTarget = c.IsCloseToTarget()
	}
	c.sendState(s)
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if follower, ok := c.robot.(torquer); ok {
		if err := follower.Disable(context.Background()); err != nil {
			c.logger.Warn("failed to disable follower", zap.Error(err))
		} else {
			c.logger.Info("follower arm: torque disabled")
		}
	}
	c.logger.Info("control loop stopped")
}
