package actuator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gwillem/armctl/pkg/robot"
)

type torqueArm struct {
	*robot.Loopback

	mu      sync.Mutex
	enabled bool
	toggles int
}

func (a *torqueArm) Enable(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = true
	a.toggles++
	return nil
}

func (a *torqueArm) Disable(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = false
	a.toggles++
	return nil
}

func (a *torqueArm) isEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

func TestRun_PublishesStates(t *testing.T) {
	arm := &torqueArm{Loopback: robot.NewLoopback(nil)}
	cfg := testConfig(Autonomous)
	cfg.Hz = 200
	cfg.Clock = clock.New()

	c, err := New(cfg, arm, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	var s State
	select {
	case s = <-c.States():
	case <-time.After(2 * time.Second):
		t.Fatal("no state published")
	}
	require.NoError(t, s.Error)
	assert.Len(t, s.Positions, 6)
	assert.Equal(t, c.Request().Position(), s.Target)
	assert.False(t, s.Timestamp.IsZero())
	assert.True(t, arm.isEnabled())

	// a second loop on the same controller is refused
	assert.Error(t, c.Run(ctx))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.False(t, arm.isEnabled())
}

func TestRun_PublishesErrors(t *testing.T) {
	arm := newFakeArm(nil, false)
	arm.readErr = errors.New("bus unplugged")
	cfg := testConfig(Autonomous)
	cfg.Hz = 200
	cfg.Clock = clock.New()

	c, err := New(cfg, arm, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case s := <-c.States():
		assert.ErrorIs(t, s.Error, arm.readErr)
	case <-time.After(2 * time.Second):
		t.Error("no state published")
	}
	cancel()
	<-done
}
