package kinematics

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardKinematics_Empty(t *testing.T) {
	pos, err := SO101().ForwardKinematics(nil)
	require.NoError(t, err)
	assert.Equal(t, r3.Vector{}, pos)
}

func TestForwardKinematics_TooManyJoints(t *testing.T) {
	_, err := SO101().ForwardKinematics(make([]float64, NumJoints+1))
	assert.Error(t, err)
}

func TestForwardKinematics_Chain(t *testing.T) {
	p := SO101()

	tests := []struct {
		name string
		q    []float64
		want r3.Vector
	}{
		{
			name: "shoulder axis",
			q:    []float64{0},
			want: r3.Vector{X: p.L1, Z: p.L2},
		},
		{
			name: "shoulder axis rotated",
			q:    []float64{math.Pi / 2},
			want: r3.Vector{Y: p.L1, Z: p.L2},
		},
		{
			name: "upper arm straight up",
			q:    []float64{0, math.Pi / 2},
			want: r3.Vector{X: p.L1, Z: p.L2 + p.L3},
		},
		{
			name: "arm flat",
			q:    []float64{0, 0, 0},
			want: r3.Vector{X: p.L1 + p.L3 + p.L4, Z: p.L2},
		},
		{
			name: "arm flat gripper level",
			q:    []float64{0, 0, 0, -math.Pi / 2, 0},
			want: r3.Vector{X: p.L1 + p.L3 + p.L4 + p.L5, Z: p.L2},
		},
		{
			name: "arm flat gripper up",
			q:    []float64{0, 0, 0, 0, 0, 0},
			want: r3.Vector{X: p.L1 + p.L3 + p.L4, Z: p.L2 + p.L5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ForwardKinematics(tt.q)
			require.NoError(t, err)
			assert.InDelta(t, 0, got.Distance(tt.want), 1e-12, "got %v, want %v", got, tt.want)
		})
	}
}

func TestTransform_RotationIsOrthonormal(t *testing.T) {
	p := SO101()
	m, err := p.Transform([]float64{0.3, 0.9, -1.2, 0.4, 0.1, 0})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		var norm float64
		for j := 0; j < 3; j++ {
			norm += m.At(j, i) * m.At(j, i)
		}
		assert.InDelta(t, 1, norm, 1e-9, "column %d", i)
	}
	assert.Equal(t, 1.0, m.At(3, 3))
}
