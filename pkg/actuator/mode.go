package actuator

import "github.com/pkg/errors"

// Mode selects how the controller computes joint commands. It is fixed for
// the lifetime of a Controller.
type Mode int

const (
	// FullTeleop mirrors every leader joint onto the follower.
	FullTeleop Mode = iota
	// ElbowOnlyTeleop makes the follower's gripper tip track the leader's
	// wrist position with a level gripper, velocity limited and safety checked.
	ElbowOnlyTeleop
	// Autonomous drives the follower to the most recent position request.
	Autonomous
)

var modeNames = map[Mode]string{
	FullTeleop:      "full_teleop",
	ElbowOnlyTeleop: "elbow_teleop",
	Autonomous:      "autonomous",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// UsesInput reports whether the mode reads the teleoperation device.
func (m Mode) UsesInput() bool {
	return m != Autonomous
}

// ParseMode parses a mode name as written in the config file.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown mode %q (want full_teleop, elbow_teleop or autonomous)", s)
}
