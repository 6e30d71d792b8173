package kinematics

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveElbow_ForwardConsistency(t *testing.T) {
	p := SO101()

	targets := []r3.Vector{
		{X: 0.17, Y: 0, Z: 0.15},
		{X: 0.15, Y: 0.08, Z: 0.10},
		{X: 0.20, Y: -0.05, Z: 0.0},
		{X: 0.10, Y: 0.10, Z: 0.20},
		{X: 0.25, Y: 0, Z: 0.05},
	}

	for _, target := range targets {
		q, err := p.SolveElbow(target)
		require.NoError(t, err, "target %v", target)

		got, err := p.ForwardKinematics(q[:])
		require.NoError(t, err)
		assert.InDelta(t, 0, got.Distance(target), 1e-6, "target %v got %v", target, got)
	}
}

func TestSolveElbow_ElbowDown(t *testing.T) {
	q, err := SO101().SolveElbow(r3.Vector{X: 0.17, Z: 0.15})
	require.NoError(t, err)
	assert.LessOrEqual(t, q[2], 0.0)
}

func TestSolveElbow_Unreachable(t *testing.T) {
	p := SO101()

	targets := []r3.Vector{
		{X: 1, Y: 0, Z: 0},            // far beyond L3+L4
		{X: 0, Y: 0, Z: 0.5},          // straight up, too high
		{X: p.L1, Y: 0, Z: p.L2},      // folded onto the shoulder axis
		{X: math.NaN(), Y: 0, Z: 0.1}, // garbage in
	}

	for _, target := range targets {
		_, err := p.SolveElbow(target)
		require.Error(t, err, "target %v", target)
		assert.ErrorIs(t, err, ErrUnreachable)

		var unreachable *UnreachableError
		require.ErrorAs(t, err, &unreachable)
		if !math.IsNaN(target.X) {
			assert.Equal(t, target, unreachable.Target)
		}
	}
}

func TestSolveElbow_JustOutOfReach(t *testing.T) {
	p := SO101()
	reach := p.L3 + p.L4
	target := r3.Vector{X: p.L1 + reach + 1e-4, Z: p.L2}

	_, err := p.SolveElbow(target)
	assert.ErrorIs(t, err, ErrUnreachable)

	q, err := p.SolveElbow(r3.Vector{X: p.L1 + reach - 1e-4, Z: p.L2})
	require.NoError(t, err)
	for _, v := range q {
		assert.False(t, math.IsNaN(v))
	}
}

func TestSolveWrist_ForwardConsistency(t *testing.T) {
	p := SO101()

	tests := []struct {
		target r3.Vector
		wrist  float64
	}{
		{r3.Vector{X: 0.17, Y: 0, Z: 0.05}, math.Pi / 2},
		{r3.Vector{X: 0.17, Y: 0, Z: 0.15}, math.Pi / 2},
		{r3.Vector{X: 0.25, Y: 0.05, Z: 0.10}, 0},
		{r3.Vector{X: 0.20, Y: -0.10, Z: 0.05}, -math.Pi / 4},
		{r3.Vector{X: 0.22, Y: 0.0, Z: 0.12}, math.Pi / 6},
	}

	for _, tt := range tests {
		q, err := p.SolveWrist(tt.target, tt.wrist)
		require.NoError(t, err, "target %v wrist %v", tt.target, tt.wrist)

		// any wrist roll leaves the tip in place
		for _, roll := range []float64{0, 1.2} {
			got, err := p.ForwardKinematics([]float64{q[0], q[1], q[2], q[3], roll})
			require.NoError(t, err)
			assert.InDelta(t, 0, got.Distance(tt.target), 1e-6, "target %v got %v", tt.target, got)
		}

		assert.InDelta(t, tt.wrist-math.Pi/2, q[1]+q[2]+q[3], 1e-12)
	}
}

func TestSolveWrist_Unreachable(t *testing.T) {
	target := r3.Vector{X: 0.5, Y: 0, Z: 0.1}
	_, err := SO101().SolveWrist(target, 0)
	require.ErrorIs(t, err, ErrUnreachable)

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, target, unreachable.Target)
}
