// Package monitor polls store health on a fixed cadence for a bounded
// wall-clock duration, independently of the workload.
package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"dbpulse/internal/core"
)

// Sampler collects health snapshots every Interval until Duration has
// elapsed. Its lifecycle is independent of the worker pool in both
// directions. The sample slice is owned by the sampler until Run
// returns; there are no concurrent readers.
type Sampler struct {
	Interval time.Duration
	Duration time.Duration
	Probe    core.Probe

	Clock  core.Clock
	Logger *log.Logger
}

// Run loops until the configured duration has elapsed and returns every
// sample that was collected. A failed probe call skips that tick's
// sample and the loop carries on; one bad health query must never end
// the monitoring run. Cancel the context to stop early.
func (s *Sampler) Run(ctx context.Context) []core.HealthSample {
	clock := s.Clock
	if clock == nil {
		clock = core.RealClock{}
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	var samples []core.HealthSample
	start := clock.Now()
	tick := 0

	for clock.Since(start) < s.Duration {
		if ctx.Err() != nil {
			break
		}
		tick++

		sample, err := s.Probe.Sample(ctx)
		if err != nil {
			logger.Warn("health probe failed, skipping sample", "tick", tick, "err", err)
		} else {
			samples = append(samples, sample)
		}

		remaining := s.Duration - clock.Since(start)
		if remaining <= 0 {
			break
		}
		sleep := s.Interval
		if remaining < sleep {
			sleep = remaining
		}
		clock.Sleep(ctx, sleep)
	}

	logger.Info("monitoring complete", "samples", len(samples), "ticks", tick)
	return samples
}
