package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualTimerAdvances(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	vt := NewVirtualTimer(start)
	assert.Equal(t, start, vt.Now())

	require.NoError(t, vt.Sleep(context.Background(), start.Add(time.Second)))
	assert.Equal(t, start.Add(time.Second), vt.Now())
	assert.Equal(t, []time.Duration{time.Second}, vt.Waits())
}

func TestVirtualTimerPastTargetIsZeroWait(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	vt := NewVirtualTimer(start)

	require.NoError(t, vt.Sleep(context.Background(), start.Add(-time.Minute)))
	assert.Equal(t, start, vt.Now(), "the clock never moves backwards")
	assert.Equal(t, []time.Duration{0}, vt.Waits())
}

func TestVirtualTimerCancelledContext(t *testing.T) {
	vt := NewVirtualTimer(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := vt.Sleep(ctx, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, vt.Waits())
}
