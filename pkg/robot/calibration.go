package robot

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"
)

// StepsPerTurn is the resolution of an STS3215 position encoder.
const StepsPerTurn = 4096

// MotorCalibration holds calibration data for a single motor.
//
// The middle of [RangeMin, RangeMax] is the motor's zero angle. DriveMode 1
// inverts the direction of rotation.
type MotorCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`
	HomingOffset int `json:"homing_offset"`
	RangeMin     int `json:"range_min"`
	RangeMax     int `json:"range_max"`
}

// Calibration holds calibration data for all motors, keyed by motor name.
type Calibration map[MotorName]MotorCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read calibration file")
	}

	// Parse into a map with string keys first
	var raw map[string]MotorCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse calibration JSON")
	}

	cal := make(Calibration, len(raw))
	for name, mc := range raw {
		cal[MotorName(name)] = mc
	}

	return cal, nil
}

func (c MotorCalibration) center() float64 {
	return float64(c.RangeMin+c.RangeMax) / 2
}

func (c MotorCalibration) sign() float64 {
	if c.DriveMode == 1 {
		return -1
	}
	return 1
}

// Degrees converts a raw servo position to degrees from the range center.
func (c MotorCalibration) Degrees(raw int) float64 {
	return c.sign() * (float64(raw) - c.center()) * 360 / (StepsPerTurn - 1)
}

// Raw converts degrees from the range center to a raw servo position,
// clamped to the calibrated range.
func (c MotorCalibration) Raw(deg float64) int {
	raw := int(math.Round(c.center() + c.sign()*deg*(StepsPerTurn-1)/360))
	if raw < c.RangeMin {
		return c.RangeMin
	}
	if raw > c.RangeMax {
		return c.RangeMax
	}
	return raw
}

// MotorIDs returns the servo IDs for all motors in the calibration.
func (c Calibration) MotorIDs() []int {
	ids := make([]int, 0, len(c))
	// Use AllMotors() to ensure consistent ordering
	for _, name := range AllMotors() {
		if mc, ok := c[name]; ok {
			ids = append(ids, mc.ID)
		}
	}
	return ids
}

// ByID returns motor name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (MotorName, MotorCalibration, bool) {
	for name, mc := range c {
		if mc.ID == id {
			return name, mc, true
		}
	}
	return "", MotorCalibration{}, false
}

// Validate checks that every motor of the arm is calibrated.
func (c Calibration) Validate() error {
	for _, name := range AllMotors() {
		mc, ok := c[name]
		if !ok {
			return errors.Errorf("motor %s not calibrated", name)
		}
		if mc.RangeMax <= mc.RangeMin {
			return errors.Errorf("motor %s: range_max %d must exceed range_min %d", name, mc.RangeMax, mc.RangeMin)
		}
	}
	return nil
}
