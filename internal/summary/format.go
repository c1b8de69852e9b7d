package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"dbpulse/internal/core"
)

const noData = "no data"

// FormatDuration renders a duration in ms with two decimals, matching
// the CSV output's unit.
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
}

// FormatText writes the human-readable run report.
func FormatText(w io.Writer, s *Summary, h *HealthSummary) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "DATABASE LOAD TEST SUMMARY")
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Duration:         %v\n", s.TotalDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Total Operations: %d\n", s.Count)
	if s.Count > 0 {
		fmt.Fprintf(w, "Successful:       %d (%.2f%%)\n",
			s.SuccessCount, float64(s.SuccessCount)/float64(s.Count)*100)
		fmt.Fprintf(w, "Failed:           %d (%.2f%%)\n",
			s.FailureCount, float64(s.FailureCount)/float64(s.Count)*100)
	}
	fmt.Fprintf(w, "Throughput:       %.2f ops/sec\n", s.Throughput)

	if s.AllFailed {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "ERROR: all operations failed")
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Response Times:")
	if !s.Latency.Valid {
		fmt.Fprintf(w, "  %s\n", noData)
	} else {
		fmt.Fprintf(w, "  Average: %s\n", FormatDuration(s.Latency.Mean))
		fmt.Fprintf(w, "  Median:  %s\n", FormatDuration(s.Latency.Median))
		fmt.Fprintf(w, "  Min:     %s\n", FormatDuration(s.Latency.Min))
		fmt.Fprintf(w, "  Max:     %s\n", FormatDuration(s.Latency.Max))
		fmt.Fprintf(w, "  P95:     %s\n", FormatDuration(s.Latency.P95))
		fmt.Fprintf(w, "  P99:     %s\n", FormatDuration(s.Latency.P99))
	}

	if len(s.PerKind) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Operations by Type:")
		for _, kind := range core.Kinds {
			ks, ok := s.PerKind[kind]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %-7s %6d (%.2f%%)\n", kind, ks.Count, ks.Percent)
		}
	}

	if s.DegradedWorkers > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Degraded Workers: %d (collected %d of %d expected records)\n",
			s.DegradedWorkers, s.Count, s.ExpectedRecords)
		for _, ws := range s.Workers {
			if ws.Produced < ws.Expected {
				reason := "canceled"
				if ws.ConnectionLost {
					reason = "connection lost"
				}
				fmt.Fprintf(w, "  worker %-3d %d/%d (%s)\n", ws.WorkerID, ws.Produced, ws.Expected, reason)
			}
		}
	}

	if h != nil {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Store Health:")
		if h.NoData {
			fmt.Fprintf(w, "  %s\n", noData)
		} else {
			fmt.Fprintf(w, "  Samples:     %d\n", h.SampleCount)
			fmt.Fprintf(w, "  CPU:         avg %.2f%%  max %.2f%%\n", h.CPU.Avg, h.CPU.Max)
			fmt.Fprintf(w, "  Memory:      avg %.2f MB  max %.2f MB\n", h.Memory.Avg, h.Memory.Max)
			fmt.Fprintf(w, "  Connections: avg %.2f  max %.0f\n", h.Connections.Avg, h.Connections.Max)
		}
	}
}

type jsonLatency struct {
	Mean   string `json:"mean,omitempty"`
	Median string `json:"median,omitempty"`
	Min    string `json:"min,omitempty"`
	Max    string `json:"max,omitempty"`
	P95    string `json:"p95,omitempty"`
	P99    string `json:"p99,omitempty"`
	NoData bool   `json:"noData,omitempty"`
}

type jsonKind struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type jsonHealthMetric struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// FormatJSON writes the machine-readable run report.
func FormatJSON(w io.Writer, s *Summary, h *HealthSummary) error {
	out := struct {
		Duration        string              `json:"duration"`
		Count           int                 `json:"count"`
		SuccessCount    int                 `json:"successCount"`
		FailureCount    int                 `json:"failureCount"`
		Throughput      float64             `json:"throughput"`
		AllFailed       bool                `json:"allFailed"`
		Latency         jsonLatency         `json:"latency"`
		PerKind         map[string]jsonKind `json:"perKind"`
		DegradedWorkers int                 `json:"degradedWorkers"`
		ExpectedRecords int                 `json:"expectedRecords"`
		Health          any                 `json:"health"`
	}{
		Duration:        s.TotalDuration.Round(time.Millisecond).String(),
		Count:           s.Count,
		SuccessCount:    s.SuccessCount,
		FailureCount:    s.FailureCount,
		Throughput:      s.Throughput,
		AllFailed:       s.AllFailed,
		PerKind:         make(map[string]jsonKind),
		DegradedWorkers: s.DegradedWorkers,
		ExpectedRecords: s.ExpectedRecords,
	}

	if s.Latency.Valid {
		out.Latency = jsonLatency{
			Mean:   FormatDuration(s.Latency.Mean),
			Median: FormatDuration(s.Latency.Median),
			Min:    FormatDuration(s.Latency.Min),
			Max:    FormatDuration(s.Latency.Max),
			P95:    FormatDuration(s.Latency.P95),
			P99:    FormatDuration(s.Latency.P99),
		}
	} else {
		out.Latency = jsonLatency{NoData: true}
	}

	for kind, ks := range s.PerKind {
		out.PerKind[kind.String()] = jsonKind{Count: ks.Count, Percent: ks.Percent}
	}

	if h != nil && !h.NoData {
		out.Health = struct {
			SampleCount int              `json:"sampleCount"`
			CPU         jsonHealthMetric `json:"cpu"`
			Memory      jsonHealthMetric `json:"memory"`
			Connections jsonHealthMetric `json:"connections"`
		}{
			SampleCount: h.SampleCount,
			CPU:         jsonHealthMetric{h.CPU.Avg, h.CPU.Max},
			Memory:      jsonHealthMetric{h.Memory.Avg, h.Memory.Max},
			Connections: jsonHealthMetric{h.Connections.Avg, h.Connections.Max},
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
