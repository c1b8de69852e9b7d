package core

import (
	"context"
	"errors"
)

// ErrConnectionLost marks a connection-level fault: the worker's resource
// handle is gone, as opposed to a single statement failing. Executors wrap
// this sentinel so workers can tell the two apart with errors.Is.
var ErrConnectionLost = errors.New("connection lost")

// Executor performs one operation of a given kind against the store.
// An Executor is owned by exactly one worker for its lifetime and is not
// required to be safe for concurrent use.
type Executor interface {
	Execute(ctx context.Context, kind OperationKind) error
	Close(ctx context.Context) error
}

// ExecutorFactory hands each worker its own independently-acquired
// resource handle. Handles are never shared across workers.
type ExecutorFactory interface {
	Acquire(ctx context.Context, workerID int) (Executor, error)
}

// Probe takes one health snapshot of the store. A Probe may fail on any
// given call; callers are expected to skip the sample and carry on.
type Probe interface {
	Sample(ctx context.Context) (HealthSample, error)
}

// Reporter observes records as workers produce them. Implementations must
// be safe for concurrent use.
type Reporter interface {
	Report(OperationRecord)
}

// NullReporter discards all records.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(OperationRecord) {}
