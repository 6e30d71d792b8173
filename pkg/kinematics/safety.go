package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// CheckSafe rejects targets behind the base plane (x < 0) or closer to the
// base axis than the gripper length, where the arm would fold into itself.
func (p Params) CheckSafe(target r3.Vector) error {
	if !finite(target) {
		return &UnreachableError{Target: target}
	}
	if target.X < 0 {
		return &UnsafeTargetError{Target: target, Reason: ReasonBehindBase}
	}
	if math.Hypot(target.X, target.Y) < p.L5 {
		return &UnsafeTargetError{Target: target, Reason: ReasonTooCloseToBase}
	}
	return nil
}

// IsSafe reports whether CheckSafe accepts target.
func (p Params) IsSafe(target r3.Vector) bool {
	return p.CheckSafe(target) == nil
}
