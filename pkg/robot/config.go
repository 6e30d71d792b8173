package robot

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/gwillem/armctl/pkg/kinematics"
)

const DefaultConfigFile = "armctl.json"

// Control loop defaults.
const (
	DefaultHz             = 60
	DefaultSpeedLimit     = 0.4   // m/s
	DefaultCloseThreshold = 0.075 // m
)

// DefaultHome is the position the arm holds in autonomous mode until the first
// request arrives: 170mm forward, 150mm up, wrist at 90 degrees, gripper closed.
var DefaultHome = Target{X: 170, Y: 0, Z: 150, WristAngle: 90, Gripper: 0}

// Config holds the robot configuration
type Config struct {
	Leader   ArmConfig     `json:"leader"`
	Follower ArmConfig     `json:"follower"`
	Control  ControlConfig `json:"control"`

	// Kinematics overrides the stock SO-101 geometry for this unit.
	Kinematics *kinematics.Params `json:"kinematics,omitempty"`
}

// ArmConfig holds configuration for a single arm
type ArmConfig struct {
	Port        string      `json:"port"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// ControlConfig holds the actuator control loop settings.
type ControlConfig struct {
	Mode           string  `json:"mode,omitempty"` // full_teleop, elbow_teleop or autonomous
	Hz             int     `json:"hz,omitempty"`
	SpeedLimit     float64 `json:"speed_limit,omitempty"`     // m/s
	CloseThreshold float64 `json:"close_threshold,omitempty"` // m
	Home           *Target `json:"home,omitempty"`

	// RestPose is the command held before anything else was commanded, in
	// joint degrees. Missing joints are 0. When empty, the pose reaching
	// Home is used.
	RestPose map[MotorName]float64 `json:"rest_pose,omitempty"`

	// Mirror inverts shoulder_pan and wrist_roll of the leader in the
	// teleoperation modes.
	Mirror bool `json:"mirror,omitempty"`
}

// Target is a position request as written by people: millimeters and degrees.
type Target struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	WristAngle float64 `json:"wrist_angle"`
	Gripper    float64 `json:"gripper"` // 0 closed, 1 open
}

// IsCalibrated returns true if the arm has calibration data
func (a *ArmConfig) IsCalibrated() bool {
	return len(a.Calibration) > 0
}

// Geometry returns the kinematic parameters of the follower arm.
func (c *Config) Geometry() kinematics.Params {
	if c.Kinematics != nil {
		return *c.Kinematics
	}
	return kinematics.SO101()
}

// Validate fills in defaults and checks the control and kinematics settings.
func (c *Config) Validate() error {
	if err := c.Control.Validate(); err != nil {
		return errors.Wrap(err, "control")
	}
	if c.Kinematics != nil {
		if err := c.Kinematics.Validate(); err != nil {
			return errors.Wrap(err, "kinematics")
		}
	}
	return nil
}

// Validate fills in defaults and checks ranges.
func (c *ControlConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = "full_teleop"
	}
	if c.Hz == 0 {
		c.Hz = DefaultHz
	}
	if c.SpeedLimit == 0 {
		c.SpeedLimit = DefaultSpeedLimit
	}
	if c.CloseThreshold == 0 {
		c.CloseThreshold = DefaultCloseThreshold
	}
	if c.Home == nil {
		home := DefaultHome
		c.Home = &home
	}

	if c.Hz < 1 || c.Hz > 1000 {
		return errors.Errorf("hz must be between 1 and 1000, got %d", c.Hz)
	}
	if !(c.SpeedLimit > 0) || math.IsInf(c.SpeedLimit, 0) {
		return errors.Errorf("speed_limit must be > 0, got %v", c.SpeedLimit)
	}
	if !(c.CloseThreshold > 0) {
		return errors.Errorf("close_threshold must be > 0, got %v", c.CloseThreshold)
	}
	for name := range c.RestPose {
		if !isMotor(name) {
			return errors.Errorf("rest_pose: unknown motor %q", name)
		}
	}
	return nil
}

func isMotor(name MotorName) bool {
	for _, m := range AllMotors() {
		if m == name {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
