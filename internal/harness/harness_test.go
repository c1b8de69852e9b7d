package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"dbpulse/internal/config"
	"dbpulse/internal/core"
)

type stubExecutor struct {
	delay time.Duration
	err   error
}

func (s *stubExecutor) Execute(context.Context, core.OperationKind) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.err
}

func (s *stubExecutor) Close(context.Context) error { return nil }

type stubFactory struct {
	executor stubExecutor
}

func (s *stubFactory) Acquire(context.Context, int) (core.Executor, error) {
	e := s.executor
	return &e, nil
}

type stubProbe struct{}

func (stubProbe) Sample(context.Context) (core.HealthSample, error) {
	return core.HealthSample{Timestamp: time.Now(), CPUPct: 5, ActiveConnections: 2}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DSN = "stub://"
	cfg.Concurrency = 4
	cfg.OperationsPerWorker = 25
	cfg.SampleInterval = 10 * time.Millisecond
	cfg.SampleDuration = 40 * time.Millisecond
	return cfg
}

func TestRun_ProducesCompleteResult(t *testing.T) {
	h := &Harness{
		Config:     testConfig(),
		Factory:    &stubFactory{},
		Probe:      stubProbe{},
		StartDelay: -1,
	}

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Records) != 100 {
		t.Errorf("got %d records, want 100", len(res.Records))
	}
	if res.Summary == nil || res.Health == nil {
		t.Fatal("summary and health must always be produced")
	}
	if res.Summary.SuccessCount != 100 {
		t.Errorf("success count = %d, want 100", res.Summary.SuccessCount)
	}
	if res.Summary.AllFailed {
		t.Error("unexpected AllFailed")
	}
	if len(res.Samples) == 0 {
		t.Error("sampler collected no samples")
	}
	if res.Elapsed <= 0 {
		t.Error("pool wall clock not measured")
	}
}

func TestRun_AllFailuresStillSummarize(t *testing.T) {
	h := &Harness{
		Config:     testConfig(),
		Factory:    &stubFactory{executor: stubExecutor{err: errors.New("relation does not exist")}},
		Probe:      stubProbe{},
		StartDelay: -1,
	}

	res, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("collaborator failures must not fail the harness: %v", err)
	}
	if !res.Summary.AllFailed {
		t.Error("expected AllFailed flag")
	}
	if res.Summary.FailureCount != 100 {
		t.Errorf("failure count = %d, want 100", res.Summary.FailureCount)
	}
	if res.Summary.Throughput != 0 {
		t.Errorf("throughput with zero successes = %v, want 0", res.Summary.Throughput)
	}
}

func TestRun_ConfigErrorAbortsBeforeAnythingStarts(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 0

	h := &Harness{Config: cfg, Factory: &stubFactory{}, Probe: stubProbe{}, StartDelay: -1}
	if _, err := h.Run(context.Background()); err == nil {
		t.Fatal("expected config error")
	} else {
		var ce *config.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("expected *config.ConfigError, got %T", err)
		}
	}
}

func TestRun_MissingCapabilities(t *testing.T) {
	h := &Harness{Config: testConfig(), StartDelay: -1}
	if _, err := h.Run(context.Background()); err == nil {
		t.Error("expected error for missing factory/probe")
	}
}
