package kinematics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestLimitStep(t *testing.T) {
	origin := r3.Vector{X: 0.2, Y: 0, Z: 0.1}

	tests := []struct {
		name   string
		target r3.Vector
		speed  float64
		dt     float64
		want   r3.Vector
	}{
		{"reached", r3.Vector{X: 0.21, Y: 0, Z: 0.1}, 0.4, 0.1, r3.Vector{X: 0.21, Y: 0, Z: 0.1}},
		{"exactly at cap", r3.Vector{X: 0.24, Y: 0, Z: 0.1}, 0.4, 0.1, r3.Vector{X: 0.24, Y: 0, Z: 0.1}},
		{"capped", r3.Vector{X: 0.2, Y: 0, Z: 0.5}, 0.4, 0.1, r3.Vector{X: 0.2, Y: 0, Z: 0.14}},
		{"first cycle", r3.Vector{X: 0.3, Y: 0, Z: 0.1}, 0.4, 0, origin},
		{"negative dt", r3.Vector{X: 0.3, Y: 0, Z: 0.1}, 0.4, -0.01, origin},
		{"zero speed", r3.Vector{X: 0.3, Y: 0, Z: 0.1}, 0, 0.1, origin},
		{"nan target", r3.Vector{X: math.NaN()}, 0.4, 0.1, origin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LimitStep(origin, tt.target, tt.speed, tt.dt)
			assert.InDelta(t, 0, got.Distance(tt.want), 1e-12, "got %v, want %v", got, tt.want)
		})
	}
}

func TestLimitStep_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	point := func() r3.Vector {
		return r3.Vector{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5}
	}

	for i := 0; i < 1000; i++ {
		current, target := point(), point()
		speed := rng.Float64() + 1e-3
		dt := rng.Float64()*0.1 + 1e-4

		got := LimitStep(current, target, speed, dt)
		moved := got.Distance(current)
		remaining := target.Distance(current)
		maxStep := speed * dt

		assert.LessOrEqual(t, moved, maxStep+1e-12)
		if remaining <= maxStep {
			assert.Equal(t, target, got)
		} else {
			assert.InDelta(t, maxStep, moved, 1e-12)
			// stays on the segment towards target
			assert.InDelta(t, remaining-maxStep, got.Distance(target), 1e-12)
		}
	}
}
