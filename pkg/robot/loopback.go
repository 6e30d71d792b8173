package robot

import (
	"context"
	"sync"
)

// Loopback stands in for a follower arm in dry runs: every written command
// is reported back as the next reading.
type Loopback struct {
	mu        sync.Mutex
	positions map[MotorName]float64
}

// NewLoopback returns a loopback arm resting at the given joint degrees.
// Motors missing from rest start at 0.
func NewLoopback(rest map[MotorName]float64) *Loopback {
	positions := make(map[MotorName]float64, len(AllMotors()))
	for _, name := range AllMotors() {
		positions[name] = rest[name]
	}
	return &Loopback{positions: positions}
}

// ReadPositions returns the last written joint degrees.
func (l *Loopback) ReadPositions(ctx context.Context) (map[MotorName]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	positions := make(map[MotorName]float64, len(l.positions))
	for name, deg := range l.positions {
		positions[name] = deg
	}
	return positions, nil
}

// WritePositions records the commanded joint degrees.
func (l *Loopback) WritePositions(ctx context.Context, positions map[MotorName]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for name, deg := range positions {
		l.positions[name] = deg
	}
	return nil
}

// Close is a no-op.
func (l *Loopback) Close() error {
	return nil
}
