// Package harness owns the lifecycle of one run: it starts the sampler
// and the worker pool concurrently, waits for both, and reduces their
// streams into the run summary.
package harness

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"dbpulse/internal/config"
	"dbpulse/internal/core"
	"dbpulse/internal/monitor"
	"dbpulse/internal/pool"
	"dbpulse/internal/summary"
)

// DefaultStartDelay is how long the sampler runs alone before the pool
// starts, so warm-up samples land before any load does.
const DefaultStartDelay = 3 * time.Second

// Harness wires the collaborators together. Factory and Probe are the
// external capabilities; everything else is owned here.
type Harness struct {
	Config  *config.Config
	Factory core.ExecutorFactory
	Probe   core.Probe

	// Reporter observes records live; optional.
	Reporter core.Reporter

	// StartDelay overrides DefaultStartDelay; negative means zero.
	StartDelay time.Duration

	Clock  core.Clock
	Logger *log.Logger
}

// Result is everything one run produced.
type Result struct {
	Records []core.OperationRecord
	Workers []pool.WorkerResult
	Samples []core.HealthSample

	// Elapsed is the pool's wall clock, the denominator for throughput.
	Elapsed time.Duration

	Summary *summary.Summary
	Health  *summary.HealthSummary
}

// Run executes the full harness lifecycle. Collaborator failures are
// folded into the summary; Run itself fails only on invalid
// configuration or missing capabilities.
func (h *Harness) Run(ctx context.Context) (*Result, error) {
	if h.Factory == nil || h.Probe == nil {
		return nil, errors.New("harness needs both an executor factory and a probe")
	}
	if err := h.Config.Validate(); err != nil {
		return nil, err
	}

	clock := h.Clock
	if clock == nil {
		clock = core.RealClock{}
	}
	logger := h.Logger
	if logger == nil {
		logger = log.Default()
	}
	policy, err := h.Config.MixPolicy()
	if err != nil {
		return nil, err
	}

	sampler := &monitor.Sampler{
		Interval: h.Config.SampleInterval,
		Duration: h.Config.SampleDuration,
		Probe:    h.Probe,
		Clock:    clock,
		Logger:   logger,
	}
	samplesCh := make(chan []core.HealthSample, 1)
	go func() {
		samplesCh <- sampler.Run(ctx)
	}()

	// Let the sampler capture the store at rest before load starts.
	delay := h.StartDelay
	if delay == 0 {
		delay = DefaultStartDelay
	}
	if delay > 0 {
		clock.Sleep(ctx, delay)
	}

	workers := &pool.Pool{
		Concurrency:         h.Config.Concurrency,
		OperationsPerWorker: h.Config.OperationsPerWorker,
		Mix:                 policy,
		Factory:             h.Factory,
		Reporter:            h.Reporter,
		Rate:                h.Config.Rate,
		Clock:               clock,
		Logger:              logger,
	}

	logger.Info("starting load",
		"workers", h.Config.Concurrency,
		"operations", h.Config.Concurrency*h.Config.OperationsPerWorker)

	poolStart := clock.Now()
	records, results, err := workers.Run(ctx)
	elapsed := clock.Since(poolStart)
	if err != nil {
		return nil, err
	}

	logger.Info("load complete", "records", len(records), "elapsed", elapsed)
	samples := <-samplesCh

	res := &Result{
		Records: records,
		Workers: results,
		Samples: samples,
		Elapsed: elapsed,
		Summary: summary.Summarize(records, elapsed, results),
		Health:  summary.SummarizeHealth(samples),
	}
	if res.Summary.AllFailed {
		logger.Error("every operation failed", "count", res.Summary.Count)
	}
	return res, nil
}
