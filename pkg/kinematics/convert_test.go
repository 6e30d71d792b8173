package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMechToDH_RoundTrip(t *testing.T) {
	p := SO101()

	tests := []JointVector{
		{},
		{0, math.Pi / 4, -math.Pi / 4, 0, 0, 0},
		{0.3, -1.1, 0.7, 1.4, -2.0, 0.5},
		{-math.Pi, math.Pi / 2, -math.Pi / 2, math.Pi / 3, math.Pi, 1.6},
	}

	for _, mech := range tests {
		back := p.DHToMech(p.MechToDH(mech))
		assert.InDeltaSlice(t, mech[:], back[:], 1e-12, "mech %v", mech)

		dh := mech
		again := p.MechToDH(p.DHToMech(dh))
		assert.InDeltaSlice(t, dh[:], again[:], 1e-12, "dh %v", dh)
	}
}

func TestMechToDH_ZeroIsStretchedForward(t *testing.T) {
	p := SO101()
	dh := p.MechToDH(JointVector{})

	assert.InDelta(t, 0, dh[ShoulderPan], 1e-12)
	assert.InDelta(t, math.Pi/2-p.Beta, dh[ShoulderLift], 1e-12)
	assert.InDelta(t, p.Beta-math.Pi/2, dh[ElbowFlex], 1e-12)
	assert.InDelta(t, -math.Pi/2, dh[WristFlex], 1e-12)

	// forearm and gripper level, so the tip is at the height of the elbow
	tip := p.EndEffector(dh)
	elbow, err := p.ForwardKinematics(dh[:2])
	assert.NoError(t, err)
	assert.InDelta(t, elbow.Z, tip.Z, 1e-9)
	assert.Greater(t, tip.X, p.L1+p.L4)
	assert.InDelta(t, 0, tip.Y, 1e-12)
}

func TestDHToMech_SignConventions(t *testing.T) {
	p := SO101()
	mech := p.DHToMech(JointVector{0.2, 0, 0, 0, 0.4, 0.6})

	assert.InDelta(t, -0.2, mech[ShoulderPan], 1e-12)
	assert.InDelta(t, 0.4, mech[WristRoll], 1e-12)
	assert.InDelta(t, 0.6, mech[Gripper], 1e-12)
}
