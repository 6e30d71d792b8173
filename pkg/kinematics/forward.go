package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// dhTransform returns the homogeneous transform for one DH row.
func dhTransform(theta, d, a, alpha float64) *mat.Dense {
	ct, st := math.Cos(theta), math.Sin(theta)
	ca, sa := math.Cos(alpha), math.Sin(alpha)
	return mat.NewDense(4, 4, []float64{
		ct, -st * ca, st * sa, a * ct,
		st, ct * ca, -ct * sa, a * st,
		0, sa, ca, d,
		0, 0, 0, 1,
	})
}

func identity4() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// Transform composes the DH transforms for the first len(q) joints.
// Passing fewer angles than joints yields the pose of an intermediate frame,
// e.g. q[:3] for the wrist flex axis.
func (p Params) Transform(q []float64) (*mat.Dense, error) {
	if len(q) > NumJoints {
		return nil, errors.Errorf("forward kinematics: got %d joint angles, arm has %d", len(q), NumJoints)
	}

	table := p.DH()
	t := identity4()
	for i, theta := range q {
		row := table[i]
		var next mat.Dense
		next.Mul(t, dhTransform(theta+row.Theta, row.D, row.A, row.Alpha))
		t = &next
	}
	return t, nil
}

// ForwardKinematics returns the position of the frame after the first
// len(q) joints, given DH-frame angles.
func (p Params) ForwardKinematics(q []float64) (r3.Vector, error) {
	t, err := p.Transform(q)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: t.At(0, 3), Y: t.At(1, 3), Z: t.At(2, 3)}, nil
}

// EndEffector returns the gripper tip position for a full DH joint vector.
func (p Params) EndEffector(q JointVector) r3.Vector {
	// cannot fail: q has exactly NumJoints entries
	pos, _ := p.ForwardKinematics(q[:])
	return pos
}
