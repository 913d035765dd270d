package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func TestPacerWait(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	p := NewPacer(WithPacerClock(clock.Now), WithPacerSleep(clock.Sleep))
	ctx := context.Background()

	// the first frame anchors the clock
	show, err := p.Wait(ctx, 40, 40)
	require.NoError(t, err)
	assert.True(t, show)
	assert.Empty(t, clock.sleeps)

	show, err = p.Wait(ctx, 80, 40)
	require.NoError(t, err)
	assert.True(t, show)
	assert.Equal(t, []time.Duration{40 * time.Millisecond}, clock.sleeps)

	// a slow consumer falls more than one interval behind
	clock.now = clock.now.Add(200 * time.Millisecond)
	show, err = p.Wait(ctx, 120, 40)
	require.NoError(t, err)
	assert.False(t, show)

	// within one interval of being late is still shown
	show, err = p.Wait(ctx, 250, 40)
	require.NoError(t, err)
	assert.True(t, show)

	// unknown frame rate never drops
	show, err = p.Wait(ctx, 160, 0)
	require.NoError(t, err)
	assert.True(t, show)
	assert.Len(t, clock.sleeps, 1)
}

func TestPacerCanceled(t *testing.T) {
	p := NewPacer()
	ctx, cancel := context.WithCancel(context.Background())

	show, err := p.Wait(ctx, 0, 40)
	require.NoError(t, err)
	assert.True(t, show)

	cancel()
	show, err = p.Wait(ctx, 10000, 40)
	assert.False(t, show)
	assert.Equal(t, context.Canceled, err)
}
