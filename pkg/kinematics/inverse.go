package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// SolveElbow solves base rotation, shoulder lift and elbow flex so that the
// wrist flex axis lands on target. The elbow-down solution is always chosen.
func (p Params) SolveElbow(target r3.Vector) ([3]float64, error) {
	j1 := math.Atan2(target.Y, target.X)
	r := math.Hypot(target.X, target.Y)
	dr := r - p.L1
	s := target.Z - p.L2

	// law of cosines for the two link planar arm
	f := (dr*dr + s*s - p.L3*p.L3 - p.L4*p.L4) / (2 * p.L3 * p.L4)
	if math.IsNaN(f) || f < -1 || f > 1 {
		return [3]float64{}, &UnreachableError{Target: target}
	}

	j3 := math.Atan2(-math.Sqrt(1-f*f), f)
	j2 := math.Atan2(s, dr) - math.Atan2(p.L4*math.Sin(j3), p.L3+p.L4*math.Cos(j3))

	q := [3]float64{j1, j2, j3}
	for _, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return [3]float64{}, &UnreachableError{Target: target}
		}
	}
	return q, nil
}

// SolveWrist solves the first four joints so that the gripper tip lands on
// target with its last link pitched wristAngle up from the horizontal,
// measured from the wrist flex axis towards the tip.
func (p Params) SolveWrist(target r3.Vector, wristAngle float64) ([4]float64, error) {
	base := math.Atan2(target.Y, target.X)

	// walk back along the gripper from the tip to the wrist flex axis
	reach := p.L5 * math.Cos(wristAngle)
	wrist := r3.Vector{
		X: target.X - reach*math.Cos(base),
		Y: target.Y - reach*math.Sin(base),
		Z: target.Z - p.L5*math.Sin(wristAngle),
	}

	elbow, err := p.SolveElbow(wrist)
	if err != nil {
		return [4]float64{}, &UnreachableError{Target: target}
	}

	// shoulder + elbow + wrist flex fixes the gripper pitch
	j4 := wristAngle - math.Pi/2 - (elbow[1] + elbow[2])
	if math.IsNaN(j4) || math.IsInf(j4, 0) {
		return [4]float64{}, &UnreachableError{Target: target}
	}
	return [4]float64{elbow[0], elbow[1], elbow[2], j4}, nil
}
