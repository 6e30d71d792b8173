package robot

import (
	"path/filepath"
	"testing"

	"github.com/gwillem/armctl/pkg/kinematics"
)

func TestControlConfig_Defaults(t *testing.T) {
	var c ControlConfig
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if c.Mode != "full_teleop" {
		t.Errorf("Mode = %q, want full_teleop", c.Mode)
	}
	if c.Hz != DefaultHz {
		t.Errorf("Hz = %d, want %d", c.Hz, DefaultHz)
	}
	if c.SpeedLimit != DefaultSpeedLimit {
		t.Errorf("SpeedLimit = %f, want %f", c.SpeedLimit, DefaultSpeedLimit)
	}
	if c.CloseThreshold != DefaultCloseThreshold {
		t.Errorf("CloseThreshold = %f, want %f", c.CloseThreshold, DefaultCloseThreshold)
	}
	if c.Home == nil || *c.Home != DefaultHome {
		t.Errorf("Home = %+v, want %+v", c.Home, DefaultHome)
	}
}

func TestControlConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  ControlConfig
	}{
		{"negative hz", ControlConfig{Hz: -1}},
		{"hz too high", ControlConfig{Hz: 5000}},
		{"negative speed", ControlConfig{SpeedLimit: -0.1}},
		{"negative threshold", ControlConfig{CloseThreshold: -1}},
		{"unknown rest motor", ControlConfig{RestPose: map[MotorName]float64{"elbow": 10}}},
	}

	for _, tt := range tests {
		if err := tt.cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() should fail", tt.name)
		}
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	params := kinematics.SO101()
	params.L5 = 0.1

	cfg := &Config{
		Leader:   ArmConfig{Port: "/dev/ttyACM1", Calibration: testCalibration()},
		Follower: ArmConfig{Port: "/dev/ttyACM0"},
		Control: ControlConfig{
			Mode:     "autonomous",
			Home:     &Target{X: 200, Z: 100, WristAngle: 45, Gripper: 1},
			RestPose: map[MotorName]float64{ElbowFlex: 30},
		},
		Kinematics: &params,
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error: %v", err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if !loaded.Leader.IsCalibrated() || loaded.Follower.IsCalibrated() {
		t.Errorf("calibration not preserved: leader %v follower %v", loaded.Leader.IsCalibrated(), loaded.Follower.IsCalibrated())
	}
	if loaded.Control.Mode != "autonomous" || loaded.Control.Home.X != 200 {
		t.Errorf("control not preserved: %+v", loaded.Control)
	}
	if loaded.Control.RestPose[ElbowFlex] != 30 {
		t.Errorf("rest pose not preserved: %+v", loaded.Control.RestPose)
	}
	if got := loaded.Geometry(); got != params {
		t.Errorf("Geometry() = %+v, want %+v", got, params)
	}
}

func TestConfig_GeometryDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Geometry(); got != kinematics.SO101() {
		t.Errorf("Geometry() = %+v, want stock SO-101", got)
	}
}

func TestConfig_InvalidKinematics(t *testing.T) {
	params := kinematics.SO101()
	params.L3 = 0
	cfg := &Config{Kinematics: &params}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject a zero length upper arm")
	}
}
