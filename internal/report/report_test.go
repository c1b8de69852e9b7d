package report

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbpulse/internal/core"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(t.TempDir(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return w
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteRecords(t *testing.T) {
	w := newTestWriter(t)
	records := []core.OperationRecord{
		{
			WorkerID:   1,
			SequenceNo: 1,
			Kind:       core.KindSelect,
			Duration:   12340 * time.Microsecond,
			Outcome:    core.Success,
			Timestamp:  time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC),
		},
		{
			WorkerID:    2,
			SequenceNo:  1,
			Kind:        core.KindInsert,
			Duration:    time.Millisecond,
			Outcome:     core.Failed,
			Timestamp:   time.Date(2025, 6, 1, 12, 0, 2, 0, time.UTC),
			ErrorDetail: "duplicate key",
		},
	}

	path, err := w.WriteRecords(records)
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t,
		[]string{"worker_id", "sequence_no", "kind", "duration_ms", "outcome", "timestamp", "error"},
		rows[0])
	assert.Equal(t, []string{"1", "1", "SELECT", "12.34", "SUCCESS", "2025-06-01 12:00:01.000", ""}, rows[1])
	assert.Equal(t, "FAILED", rows[2][4])
	assert.Equal(t, "duplicate key", rows[2][6])
}

func TestWriteSamples_CounterUnion(t *testing.T) {
	w := newTestWriter(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := []core.HealthSample{
		{
			Timestamp:         base,
			CPUPct:            12.5,
			MemoryMB:          512,
			ActiveConnections: 20,
			Counters:          map[string]float64{"xact_commit": 100},
		},
		{
			Timestamp:         base.Add(5 * time.Second),
			CPUPct:            20,
			MemoryMB:          600,
			ActiveConnections: 22,
			Counters:          map[string]float64{"deadlocks": 1, "xact_commit": 140},
		},
	}

	path, err := w.WriteSamples(samples)
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	// Counter columns are the sorted union.
	assert.Equal(t,
		[]string{"timestamp", "cpu_pct", "memory_mb", "active_connections", "deadlocks", "xact_commit"},
		rows[0])
	// First sample lacks deadlocks: empty cell, not zero.
	assert.Equal(t, "", rows[1][4])
	assert.Equal(t, "100", rows[1][5])
	assert.Equal(t, "1", rows[2][4])
}

func TestWriteSummaryAndTrace(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.WriteSummary("SUMMARY\n")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SUMMARY\n", string(data))

	base := time.Now()
	samples := []core.HealthSample{
		{Timestamp: base, CPUPct: 10, MemoryMB: 100, ActiveConnections: 3},
		{Timestamp: base.Add(5 * time.Second), CPUPct: 20, MemoryMB: 110, ActiveConnections: 4},
		{Timestamp: base.Add(10 * time.Second), CPUPct: 15, MemoryMB: 105, ActiveConnections: 5},
	}
	tracePath, err := w.WriteHealthTrace(samples)
	require.NoError(t, err)
	info, err := os.Stat(tracePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteHealthTrace_TooFewSamples(t *testing.T) {
	w := newTestWriter(t)
	path, err := w.WriteHealthTrace([]core.HealthSample{{Timestamp: time.Now()}})
	require.NoError(t, err)
	assert.Empty(t, path)
}
