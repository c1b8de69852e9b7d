package summary

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dbpulse/internal/core"
	"dbpulse/internal/pool"
)

func successRecord(worker, seq int, kind core.OperationKind, d time.Duration) core.OperationRecord {
	return core.OperationRecord{
		WorkerID:   worker,
		SequenceNo: seq,
		Kind:       kind,
		Duration:   d,
		Outcome:    core.Success,
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 10*time.Second, nil)

	if s.Count != 0 || s.SuccessCount != 0 || s.FailureCount != 0 {
		t.Errorf("empty input should be all zeros: %+v", s)
	}
	if s.Throughput != 0 {
		t.Errorf("throughput = %v, want 0", s.Throughput)
	}
	if s.Latency.Valid {
		t.Error("empty input should yield no-data latency")
	}
	if s.AllFailed {
		t.Error("a zero-operation run is not an all-failed run")
	}
}

func TestSummarize_CountIdentities(t *testing.T) {
	records := []core.OperationRecord{
		successRecord(1, 1, core.KindSelect, time.Millisecond),
		successRecord(1, 2, core.KindInsert, time.Millisecond),
		successRecord(2, 1, core.KindSelect, time.Millisecond),
		{WorkerID: 2, SequenceNo: 2, Kind: core.KindDelete, Outcome: core.Failed, ErrorDetail: "boom"},
	}

	s := Summarize(records, time.Second, nil)

	if s.SuccessCount+s.FailureCount != s.Count {
		t.Errorf("success+failure != total: %+v", s)
	}
	var perKindTotal int
	for _, ks := range s.PerKind {
		perKindTotal += ks.Count
	}
	if perKindTotal != s.SuccessCount {
		t.Errorf("sum of per-kind counts %d != success count %d", perKindTotal, s.SuccessCount)
	}
	// Failed DELETE must not appear in the success breakdown.
	if _, ok := s.PerKind[core.KindDelete]; ok {
		t.Error("failed operation leaked into per-kind breakdown")
	}
}

func TestSummarize_PerKindPercentOverSuccesses(t *testing.T) {
	records := []core.OperationRecord{
		successRecord(1, 1, core.KindSelect, time.Millisecond),
		successRecord(1, 2, core.KindSelect, time.Millisecond),
		successRecord(1, 3, core.KindSelect, time.Millisecond),
		successRecord(1, 4, core.KindInsert, time.Millisecond),
		{WorkerID: 1, SequenceNo: 5, Kind: core.KindSelect, Outcome: core.Failed},
	}

	s := Summarize(records, time.Second, nil)

	if got := s.PerKind[core.KindSelect].Percent; got != 75 {
		t.Errorf("SELECT percent = %v, want 75 (over successes, not total)", got)
	}
}

func TestSummarize_Throughput(t *testing.T) {
	records := make([]core.OperationRecord, 0, 100)
	for i := 0; i < 100; i++ {
		records = append(records, successRecord(1, i+1, core.KindSelect, time.Millisecond))
	}

	s := Summarize(records, 10*time.Second, nil)
	if s.Throughput != 10 {
		t.Errorf("throughput = %v, want 10", s.Throughput)
	}

	// Zero duration reports zero, never a division panic.
	s = Summarize(records, 0, nil)
	if s.Throughput != 0 {
		t.Errorf("throughput with zero duration = %v, want 0", s.Throughput)
	}
}

func TestSummarize_AllFailed(t *testing.T) {
	records := []core.OperationRecord{
		{WorkerID: 1, SequenceNo: 1, Kind: core.KindSelect, Outcome: core.Failed},
		{WorkerID: 1, SequenceNo: 2, Kind: core.KindInsert, Outcome: core.Failed},
	}

	s := Summarize(records, time.Second, nil)
	if !s.AllFailed {
		t.Error("expected AllFailed to be set")
	}
	if s.Latency.Valid {
		t.Error("all-failed run has no successful durations")
	}
}

func TestSummarize_WorkerShortfall(t *testing.T) {
	workers := []pool.WorkerResult{
		{WorkerID: 1, Expected: 100, Produced: 100},
		{WorkerID: 2, Expected: 100, Produced: 40, ConnectionLost: true},
	}

	s := Summarize(nil, time.Second, workers)
	if s.DegradedWorkers != 1 {
		t.Errorf("DegradedWorkers = %d, want 1", s.DegradedWorkers)
	}
	if s.ExpectedRecords != 200 {
		t.Errorf("ExpectedRecords = %d, want 200", s.ExpectedRecords)
	}
}

func TestPercentile_NearestRankFixture(t *testing.T) {
	// Durations 1..100 ms: index floor(p*n) with no interpolation.
	durations := make([]time.Duration, 100)
	for i := range durations {
		durations[i] = time.Duration(i+1) * time.Millisecond
	}

	if got := Percentile(durations, 0.95); got != 96*time.Millisecond {
		t.Errorf("p95 = %v, want 96ms", got)
	}
	if got := Percentile(durations, 0.99); got != 100*time.Millisecond {
		t.Errorf("p99 = %v, want 100ms", got)
	}
	if got := Percentile(durations, 0.50); got != 51*time.Millisecond {
		t.Errorf("p50 = %v, want 51ms", got)
	}
}

func TestPercentile_ClampsToLastElement(t *testing.T) {
	durations := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if got := Percentile(durations, 1.0); got != 2*time.Millisecond {
		t.Errorf("p100 = %v, want max", got)
	}
	if got := Percentile(nil, 0.95); got != 0 {
		t.Errorf("empty percentile = %v, want 0", got)
	}
}

func TestSummarizeHealth(t *testing.T) {
	samples := []core.HealthSample{
		{CPUPct: 10, MemoryMB: 100, ActiveConnections: 5},
		{CPUPct: 30, MemoryMB: 300, ActiveConnections: 15},
	}

	h := SummarizeHealth(samples)
	if h.NoData {
		t.Fatal("unexpected NoData")
	}
	if h.CPU.Avg != 20 || h.CPU.Max != 30 {
		t.Errorf("cpu = %+v, want avg 20 max 30", h.CPU)
	}
	if h.Memory.Avg != 200 || h.Memory.Max != 300 {
		t.Errorf("memory = %+v", h.Memory)
	}
	if h.Connections.Avg != 10 || h.Connections.Max != 15 {
		t.Errorf("connections = %+v", h.Connections)
	}
}

func TestSummarizeHealth_Empty(t *testing.T) {
	h := SummarizeHealth(nil)
	if !h.NoData {
		t.Error("expected NoData for empty samples")
	}
}

func TestFormatText_NoDataSentinels(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, Summarize(nil, 0, nil), SummarizeHealth(nil))

	out := buf.String()
	if !strings.Contains(out, "no data") {
		t.Errorf("expected no-data sentinels in:\n%s", out)
	}
}

func TestFormatText_AllFailedFlag(t *testing.T) {
	records := []core.OperationRecord{
		{WorkerID: 1, SequenceNo: 1, Kind: core.KindSelect, Outcome: core.Failed},
	}
	var buf bytes.Buffer
	FormatText(&buf, Summarize(records, time.Second, nil), nil)

	if !strings.Contains(buf.String(), "all operations failed") {
		t.Errorf("expected all-failed flag in:\n%s", buf.String())
	}
}

func TestFormatJSON_RoundTrips(t *testing.T) {
	records := []core.OperationRecord{
		successRecord(1, 1, core.KindSelect, 5*time.Millisecond),
	}
	var buf bytes.Buffer
	if err := FormatJSON(&buf, Summarize(records, time.Second, nil), SummarizeHealth(nil)); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"successCount": 1`) {
		t.Errorf("unexpected JSON:\n%s", buf.String())
	}
}
