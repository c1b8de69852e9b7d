// Package summary reduces the run's record and sample streams into the
// final statistics report.
package summary

import (
	"time"

	"dbpulse/internal/core"
)

// LatencyStats holds duration statistics over successful operations.
// Valid is false when there were no successful operations to measure;
// the numeric fields are then meaningless and rendered as "no data".
type LatencyStats struct {
	Valid  bool
	Mean   time.Duration
	Median time.Duration
	Min    time.Duration
	Max    time.Duration
	P95    time.Duration
	P99    time.Duration
}

// KindStats is the per-kind success breakdown. Percent is computed over
// the success count, not the total record count.
type KindStats struct {
	Count   int
	Percent float64
}

// WorkerStats records each worker's expected/actual contribution so a
// degraded worker's shortfall is visible in the report.
type WorkerStats struct {
	WorkerID       int
	Expected       int
	Produced       int
	ConnectionLost bool
}

// Summary is the operation-side aggregate for one run.
type Summary struct {
	TotalDuration time.Duration
	Count         int
	SuccessCount  int
	FailureCount  int

	// Throughput is successful operations per second; 0 when the run
	// duration is zero.
	Throughput float64

	// AllFailed marks a completed run in which every operation failed.
	AllFailed bool

	Latency LatencyStats
	PerKind map[core.OperationKind]KindStats

	Workers         []WorkerStats
	DegradedWorkers int
	ExpectedRecords int
}

// MetricStats is an avg/max pair over one health metric.
type MetricStats struct {
	Avg float64
	Max float64
}

// HealthSummary is the health-side aggregate. NoData is true when the
// sampler collected nothing; the stats are then zero-valued.
type HealthSummary struct {
	NoData      bool
	SampleCount int
	CPU         MetricStats
	Memory      MetricStats
	Connections MetricStats
}
