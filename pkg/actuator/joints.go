package actuator

import (
	"fmt"

	"github.com/gwillem/armctl/pkg/kinematics"
	"github.com/gwillem/armctl/pkg/robot"
)

// MissingJointError reports a joint absent from a hardware reading.
type MissingJointError struct {
	Joint robot.MotorName
}

func (e *MissingJointError) Error() string {
	return fmt.Sprintf("joint %s missing from reading", e.Joint)
}

// JointsFromDegrees orders a reading by joint index and converts it to
// radians. Every joint must be present.
func JointsFromDegrees(positions map[robot.MotorName]float64) (kinematics.JointVector, error) {
	var q kinematics.JointVector
	for i, name := range robot.AllMotors() {
		deg, ok := positions[name]
		if !ok {
			return q, &MissingJointError{Joint: name}
		}
		q[i] = kinematics.Deg2Rad(deg)
	}
	return q, nil
}

// JointsToDegrees converts a joint vector to a command keyed by motor name.
func JointsToDegrees(q kinematics.JointVector) map[robot.MotorName]float64 {
	motors := robot.AllMotors()
	if len(motors) != kinematics.NumJoints {
		panic(fmt.Sprintf("actuator: %d motors but %d joints", len(motors), kinematics.NumJoints))
	}

	positions := make(map[robot.MotorName]float64, len(motors))
	for i, name := range motors {
		positions[name] = kinematics.Rad2Deg(q[i])
	}
	return positions
}
