// Package report writes the run's artifacts: per-operation and
// per-sample CSV files, the summary text, and the health trace graph.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"dbpulse/internal/core"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// Writer owns one run's results directory. The directory name carries
// the start timestamp plus a short run id so concurrent or repeated
// runs never collide.
type Writer struct {
	Dir   string
	RunID string
}

// NewWriter creates the per-run results directory under baseDir.
func NewWriter(baseDir string, start time.Time) (*Writer, error) {
	runID := uuid.NewString()[:8]
	dir := filepath.Join(baseDir, fmt.Sprintf("run_%s_%s", start.Format("20060102_150405"), runID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	return &Writer{Dir: dir, RunID: runID}, nil
}

// WriteRecords writes one CSV row per operation record.
func (w *Writer) WriteRecords(records []core.OperationRecord) (string, error) {
	path := filepath.Join(w.Dir, "load_test.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"worker_id", "sequence_no", "kind", "duration_ms", "outcome", "timestamp", "error"}
	if err := cw.Write(header); err != nil {
		return "", err
	}
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.WorkerID),
			strconv.Itoa(rec.SequenceNo),
			rec.Kind.String(),
			fmt.Sprintf("%.2f", float64(rec.Duration.Microseconds())/1000),
			rec.Outcome.String(),
			rec.Timestamp.Format(timestampLayout),
			rec.ErrorDetail,
		}
		if err := cw.Write(row); err != nil {
			return "", err
		}
	}
	cw.Flush()
	return path, cw.Error()
}

// WriteSamples writes one CSV row per health sample. Counter columns
// are the sorted union of counter names across all samples; a sample
// missing a counter writes an empty cell.
func (w *Writer) WriteSamples(samples []core.HealthSample) (string, error) {
	path := filepath.Join(w.Dir, "metrics.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	counterSet := make(map[string]bool)
	for _, s := range samples {
		for name := range s.Counters {
			counterSet[name] = true
		}
	}
	counters := make([]string, 0, len(counterSet))
	for name := range counterSet {
		counters = append(counters, name)
	}
	sort.Strings(counters)

	cw := csv.NewWriter(f)
	header := append([]string{"timestamp", "cpu_pct", "memory_mb", "active_connections"}, counters...)
	if err := cw.Write(header); err != nil {
		return "", err
	}
	for _, s := range samples {
		row := []string{
			s.Timestamp.Format(timestampLayout),
			fmt.Sprintf("%.2f", s.CPUPct),
			fmt.Sprintf("%.2f", s.MemoryMB),
			strconv.Itoa(s.ActiveConnections),
		}
		for _, name := range counters {
			v, ok := s.Counters[name]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return "", err
		}
	}
	cw.Flush()
	return path, cw.Error()
}

// WriteSummary stores the text report alongside the CSVs.
func (w *Writer) WriteSummary(text string) (string, error) {
	path := filepath.Join(w.Dir, "summary.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
