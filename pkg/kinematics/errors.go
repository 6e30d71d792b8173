package kinematics

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrUnreachable matches errors for targets outside the arm's reach.
	ErrUnreachable = errors.New("target unreachable")
	// ErrUnsafe matches errors for targets outside the safety envelope.
	ErrUnsafe = errors.New("target unsafe")
)

// UnreachableError reports a target the inverse kinematics cannot solve.
type UnreachableError struct {
	Target r3.Vector
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("target (%.4f, %.4f, %.4f) unreachable", e.Target.X, e.Target.Y, e.Target.Z)
}

func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}

// Reasons a target is rejected by CheckSafe.
const (
	ReasonBehindBase     = "behind base plane"
	ReasonTooCloseToBase = "too close to base axis"
)

// UnsafeTargetError reports a target outside the safety envelope.
type UnsafeTargetError struct {
	Target r3.Vector
	Reason string
}

func (e *UnsafeTargetError) Error() string {
	return fmt.Sprintf("target (%.4f, %.4f, %.4f) unsafe: %s", e.Target.X, e.Target.Y, e.Target.Z, e.Reason)
}

func (e *UnsafeTargetError) Is(target error) bool {
	return target == ErrUnsafe
}
