// Package kinematics implements the SO-101 arm geometry: conversion between the
// servo (mechanical) angle frame and the DH frame, forward and inverse
// kinematics, velocity-limited target stepping and the safety envelope.
//
// All functions are pure. Lengths are in meters, angles in radians.
package kinematics

import (
	"math"

	"github.com/pkg/errors"
)

// Joint indexes into a JointVector (matching servo IDs 1-6).
const (
	ShoulderPan = iota
	ShoulderLift
	ElbowFlex
	WristFlex
	WristRoll
	Gripper

	NumJoints
)

// JointVector holds one angle per joint in radians, ordered by joint index.
type JointVector [NumJoints]float64

// IsFinite reports whether every angle is a real number.
func (q JointVector) IsFinite() bool {
	for _, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DHParam is one row of a Denavit-Hartenberg table.
type DHParam struct {
	Theta float64 // joint angle offset
	D     float64 // link offset
	A     float64 // link length
	Alpha float64 // link twist
}

// Params describes the arm geometry and gripper calibration.
type Params struct {
	L1 float64 `json:"l1"` // shoulder pan axis to shoulder lift axis, horizontal
	L2 float64 `json:"l2"` // base to shoulder lift axis, vertical
	L3 float64 `json:"l3"` // upper arm
	L4 float64 `json:"l4"` // forearm
	L5 float64 `json:"l5"` // wrist flex axis to gripper tip

	// Beta is the fixed angle between the upper arm link and the line
	// joining the shoulder and elbow axes.
	Beta float64 `json:"beta"`

	// Gripper joint angles for a command of 0 (closed) and 1 (open).
	GripperClosed float64 `json:"gripper_closed"`
	GripperOpen   float64 `json:"gripper_open"`
}

// SO101 returns the geometry of a stock SO-101 arm with its gripper.
func SO101() Params {
	return Params{
		L1:            0.0304,
		L2:            0.0542,
		L3:            0.116,
		L4:            0.1347,
		L5:            0.155,
		Beta:          Deg2Rad(14.45),
		GripperClosed: 0,
		GripperOpen:   1.6028533,
	}
}

// Validate checks that the geometry describes a physical arm.
func (p Params) Validate() error {
	for name, v := range map[string]float64{"l1": p.L1, "l2": p.L2, "l5": p.L5} {
		if v < 0 || math.IsNaN(v) {
			return errors.Errorf("%s must be >= 0, got %v", name, v)
		}
	}
	if !(p.L3 > 0) || !(p.L4 > 0) {
		return errors.Errorf("l3 and l4 must be > 0, got %v and %v", p.L3, p.L4)
	}
	if math.IsNaN(p.Beta) || math.IsNaN(p.GripperClosed) || math.IsNaN(p.GripperOpen) {
		return errors.New("beta and gripper range must be numbers")
	}
	return nil
}

// DH returns the DH table, one row per joint.
func (p Params) DH() [NumJoints]DHParam {
	return [NumJoints]DHParam{
		{0, p.L2, p.L1, math.Pi / 2},
		{0, 0, p.L3, 0},
		{0, 0, p.L4, 0},
		{0, 0, 0, -math.Pi / 2},
		{0, p.L5, 0, 0},
		{0, 0, 0, 0}, // gripper
	}
}

// GripperAngle maps a normalized gripper command in [0, 1] onto the
// calibrated gripper joint range.
func (p Params) GripperAngle(cmd float64) float64 {
	return p.GripperClosed + cmd*(p.GripperOpen-p.GripperClosed)
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180 / math.Pi
}
