// Package ratelimit paces aggregate operation throughput across the
// worker pool.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer caps operations per second across every caller sharing it. A
// nil Pacer never waits, so an unpaced run carries no limiter at all.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer builds a pacer for the given aggregate ops/sec. Returns nil
// when opsPerSec is zero or negative, which disables pacing.
func NewPacer(opsPerSec float64) *Pacer {
	if opsPerSec <= 0 {
		return nil
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(opsPerSec), 1)}
}

// Wait blocks until the next operation may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
