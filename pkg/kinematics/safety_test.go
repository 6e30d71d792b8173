package kinematics

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSafe(t *testing.T) {
	p := SO101()

	tests := []struct {
		name   string
		target r3.Vector
		reason string
	}{
		{"home", r3.Vector{X: 0.17, Y: 0, Z: 0.15}, ""},
		{"side", r3.Vector{X: 0, Y: 0.2, Z: 0.05}, ""},
		{"behind base", r3.Vector{X: -0.1, Y: 0, Z: 0.05}, ReasonBehindBase},
		{"behind base far", r3.Vector{X: -0.001, Y: 0.3, Z: 0.05}, ReasonBehindBase},
		{"over the base", r3.Vector{X: 0.05, Y: 0.05, Z: 0.2}, ReasonTooCloseToBase},
		{"just inside clearance", r3.Vector{X: p.L5 - 1e-6, Z: 0.1}, ReasonTooCloseToBase},
		{"on clearance", r3.Vector{X: p.L5, Z: 0.1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CheckSafe(tt.target)
			if tt.reason == "" {
				assert.NoError(t, err)
				assert.True(t, p.IsSafe(tt.target))
				return
			}

			require.ErrorIs(t, err, ErrUnsafe)
			var unsafe *UnsafeTargetError
			require.ErrorAs(t, err, &unsafe)
			assert.Equal(t, tt.reason, unsafe.Reason)
			assert.Equal(t, tt.target, unsafe.Target)
			assert.Contains(t, err.Error(), "unsafe")
			assert.False(t, p.IsSafe(tt.target))
		})
	}
}
