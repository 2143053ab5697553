package adjudicator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleNilProbeNeverBlocks(t *testing.T) {
	var th *Throttle
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, th.Acquire(ctx))

	th2 := NewThrottle(4, nil)
	require.NoError(t, th2.Acquire(ctx))
}

func TestThrottleDegradesUnderLowIdleness(t *testing.T) {
	th := NewThrottle(4, func() (float64, float64) { return 0.1, 0.1 })
	ctx := context.Background()
	require.NoError(t, th.Acquire(ctx))
	require.Equal(t, 1, th.limiter.Burst())
}

func TestThrottleRestoresFullWidthWhenIdle(t *testing.T) {
	th := NewThrottle(4, func() (float64, float64) { return 0.9, 0.9 })
	ctx := context.Background()
	require.NoError(t, th.Acquire(ctx))
	require.Equal(t, 4, th.limiter.Burst())
}
