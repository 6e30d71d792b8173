package actuator

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/gwillem/armctl/pkg/kinematics"
	"github.com/gwillem/armctl/pkg/robot"
)

// Request asks the arm to move its gripper tip to a position.
type Request struct {
	X, Y, Z    float64 // meters, base frame
	WristAngle float64 // radians
	Gripper    float64 // 0 closed, 1 open
}

// InvalidRequestError reports a request field outside its allowed range.
type InvalidRequestError struct {
	Field string
	Value float64
	Want  string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s = %v, want %s", e.Field, e.Value, e.Want)
}

// RequestFromTarget converts a millimeter/degree target to a Request.
func RequestFromTarget(t robot.Target) Request {
	return Request{
		X:          t.X / 1000,
		Y:          t.Y / 1000,
		Z:          t.Z / 1000,
		WristAngle: kinematics.Deg2Rad(t.WristAngle),
		Gripper:    t.Gripper,
	}
}

// Position returns the requested gripper tip position.
func (r Request) Position() r3.Vector {
	return r3.Vector{X: r.X, Y: r.Y, Z: r.Z}
}

// Validate checks x >= 0, z >= 0 and gripper in [0, 1].
func (r Request) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"x", r.X}, {"y", r.Y}, {"z", r.Z}, {"wrist_angle", r.WristAngle}, {"gripper", r.Gripper}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &InvalidRequestError{Field: f.name, Value: f.v, Want: "a finite number"}
		}
	}
	if r.X < 0 {
		return &InvalidRequestError{Field: "x", Value: r.X, Want: ">= 0"}
	}
	if r.Z < 0 {
		return &InvalidRequestError{Field: "z", Value: r.Z, Want: ">= 0"}
	}
	if r.Gripper < 0 || r.Gripper > 1 {
		return &InvalidRequestError{Field: "gripper", Value: r.Gripper, Want: "within [0, 1]"}
	}
	return nil
}
