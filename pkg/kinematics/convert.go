package kinematics

import "math"

// MechToDH converts servo-frame angles to DH-frame angles.
//
// The all-zero mechanical pose maps to the arm stretched forward with the
// forearm and gripper horizontal.
func (p Params) MechToDH(mech JointVector) JointVector {
	return JointVector{
		-mech[ShoulderPan],
		-mech[ShoulderLift] - p.Beta + math.Pi/2,
		-mech[ElbowFlex] + p.Beta - math.Pi/2,
		-mech[WristFlex] - math.Pi/2,
		mech[WristRoll],
		mech[Gripper],
	}
}

// DHToMech is the inverse of MechToDH.
func (p Params) DHToMech(dh JointVector) JointVector {
	return JointVector{
		-dh[ShoulderPan],
		-dh[ShoulderLift] - p.Beta + math.Pi/2,
		-dh[ElbowFlex] + p.Beta - math.Pi/2,
		-dh[WristFlex] - math.Pi/2,
		dh[WristRoll],
		dh[Gripper],
	}
}
