package adjudicator

import (
	"context"

	"golang.org/x/time/rate"
)

// IdlenessProbe reports a best-effort fraction (0..1) of CPU and
// memory currently idle. Combined idleness below a Throttle's
// threshold collapses the ensemble pool to a single worker.
type IdlenessProbe func() (cpuIdle, memIdle float64)

// Throttle gates ensemble generation concurrency behind a rate.Limiter
// whose burst is reconfigured on every acquisition: full burst (one
// token per model) when the host has headroom, burst 1 (serialized
// calls) when combined idleness drops below threshold. This degrades
// the pool rather than tearing it down.
type Throttle struct {
	limiter   *rate.Limiter
	probe     IdlenessProbe
	threshold float64
	poolWidth int
}

// DefaultThrottleThreshold matches the original's documented default:
// below 70% combined idleness, the pool degrades to one worker.
const DefaultThrottleThreshold = 0.70

// NewThrottle builds a Throttle for a pool of the given width. probe
// reports current CPU/memory idleness; a nil probe disables throttling
// (Acquire always grants immediately at full width).
func NewThrottle(poolWidth int, probe IdlenessProbe) *Throttle {
	if poolWidth < 1 {
		poolWidth = 1
	}
	return &Throttle{
		limiter:   rate.NewLimiter(rate.Limit(poolWidth), poolWidth),
		probe:     probe,
		threshold: DefaultThrottleThreshold,
		poolWidth: poolWidth,
	}
}

// Acquire blocks until a worker slot is available. When probed
// idleness falls below threshold the limiter is reconfigured to rate
// 1/s, burst 1 — serializing subsequent calls — and restored to full
// pool width once idleness recovers.
func (t *Throttle) Acquire(ctx context.Context) error {
	if t == nil || t.probe == nil {
		return nil
	}
	cpuIdle, memIdle := t.probe()
	combined := (cpuIdle + memIdle) / 2
	if combined < t.threshold {
		t.limiter.SetLimit(1)
		t.limiter.SetBurst(1)
	} else {
		t.limiter.SetLimit(rate.Limit(t.poolWidth))
		t.limiter.SetBurst(t.poolWidth)
	}
	return t.limiter.Wait(ctx)
}
