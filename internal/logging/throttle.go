package logging

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Throttle rate-limits warning logs. Protocol anomalies are logged and
// dropped rather than propagated, so a misbehaving stream could otherwise
// flood the log with one warning per frame.
type Throttle struct {
	logger  *slog.Logger
	limiter *rate.Limiter
	dropped atomic.Int64
}

// NewThrottle creates a throttled logger allowing perSecond log records on
// average with the given burst.
func NewThrottle(logger *slog.Logger, perSecond float64, burst int) *Throttle {
	return &Throttle{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Warn logs at WARN level if the rate limit allows it; suppressed records
// are counted instead.
func (t *Throttle) Warn(msg string, args ...any) {
	if t == nil || t.logger == nil {
		return
	}
	if !t.limiter.Allow() {
		t.dropped.Add(1)
		return
	}
	if n := t.dropped.Swap(0); n > 0 {
		t.logger.Warn("log records suppressed by rate limit", "suppressed", n)
	}
	t.logger.Warn(msg, args...)
}

// Dropped returns the number of records suppressed since the last allowed log.
func (t *Throttle) Dropped() int64 {
	return t.dropped.Load()
}
