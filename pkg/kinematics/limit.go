package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// LimitStep moves current towards target along a straight line, by at most
// speed*dt. It returns target itself when that is within reach this step.
//
// A non-positive dt or speed, or non-finite input, means no motion: current
// is returned unchanged.
func LimitStep(current, target r3.Vector, speed, dt float64) r3.Vector {
	if !(dt > 0) || !(speed > 0) || !finite(current) || !finite(target) {
		return current
	}

	delta := target.Sub(current)
	dist := delta.Norm()
	maxStep := speed * dt
	if dist <= maxStep {
		return target
	}
	return current.Add(delta.Mul(maxStep / dist))
}

func finite(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
