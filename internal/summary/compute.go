package summary

import (
	"sort"
	"time"

	"dbpulse/internal/core"
	"dbpulse/internal/pool"
)

// Percentile returns the nearest-rank percentile of an ascending-sorted
// slice: index floor(p*n), clamped to the last element. No
// interpolation; this tie-break is load-bearing for reproducibility.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(p * float64(n))
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// computeLatency calculates all duration statistics from successful
// operations' durations.
func computeLatency(durations []time.Duration) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return LatencyStats{
		Valid:  true,
		Mean:   total / time.Duration(len(sorted)),
		Median: Percentile(sorted, 0.50),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P95:    Percentile(sorted, 0.95),
		P99:    Percentile(sorted, 0.99),
	}
}

// Summarize reduces the full record stream into the run summary. Pure
// function; record order is irrelevant. Zero records is a valid run and
// yields a zero-count summary, never a panic.
func Summarize(records []core.OperationRecord, totalDuration time.Duration, workers []pool.WorkerResult) *Summary {
	s := &Summary{
		TotalDuration: totalDuration,
		PerKind:       make(map[core.OperationKind]KindStats),
	}

	durations := make([]time.Duration, 0, len(records))
	kindCounts := make(map[core.OperationKind]int)

	for _, rec := range records {
		s.Count++
		if rec.Outcome == core.Success {
			s.SuccessCount++
			durations = append(durations, rec.Duration)
			kindCounts[rec.Kind]++
		} else {
			s.FailureCount++
		}
	}

	s.AllFailed = s.Count > 0 && s.SuccessCount == 0

	if s.SuccessCount > 0 && totalDuration > 0 {
		s.Throughput = float64(s.SuccessCount) / totalDuration.Seconds()
	}

	s.Latency = computeLatency(durations)

	for kind, n := range kindCounts {
		s.PerKind[kind] = KindStats{
			Count:   n,
			Percent: float64(n) / float64(s.SuccessCount) * 100,
		}
	}

	for _, w := range workers {
		s.Workers = append(s.Workers, WorkerStats{
			WorkerID:       w.WorkerID,
			Expected:       w.Expected,
			Produced:       w.Produced,
			ConnectionLost: w.ConnectionLost,
		})
		s.ExpectedRecords += w.Expected
		if w.Degraded() {
			s.DegradedWorkers++
		}
	}

	return s
}

// SummarizeHealth reduces whatever samples were actually collected.
func SummarizeHealth(samples []core.HealthSample) *HealthSummary {
	if len(samples) == 0 {
		return &HealthSummary{NoData: true}
	}

	h := &HealthSummary{SampleCount: len(samples)}
	for _, sample := range samples {
		h.CPU.Avg += sample.CPUPct
		h.Memory.Avg += sample.MemoryMB
		h.Connections.Avg += float64(sample.ActiveConnections)

		if sample.CPUPct > h.CPU.Max {
			h.CPU.Max = sample.CPUPct
		}
		if sample.MemoryMB > h.Memory.Max {
			h.Memory.Max = sample.MemoryMB
		}
		if c := float64(sample.ActiveConnections); c > h.Connections.Max {
			h.Connections.Max = c
		}
	}

	n := float64(len(samples))
	h.CPU.Avg /= n
	h.Memory.Avg /= n
	h.Connections.Avg /= n
	return h
}
