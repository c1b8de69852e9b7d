// Package pool runs the concurrent workers that generate load against
// the store and fans their records into a single stream.
package pool

import (
	"context"
	"errors"
	"time"

	"dbpulse/internal/core"
	"dbpulse/internal/ratelimit"
	"dbpulse/internal/workload"
)

// WorkerResult describes how one worker's run ended. A worker that
// produced fewer records than expected is degraded; the shortfall stays
// visible all the way into the summary.
type WorkerResult struct {
	WorkerID       int
	Expected       int
	Produced       int
	ConnectionLost bool
	Canceled       bool
	FaultDetail    string
}

// Degraded reports whether the worker fell short of its operation count.
func (r WorkerResult) Degraded() bool {
	return r.Produced < r.Expected
}

type worker struct {
	id       int
	ops      int
	selector *workload.Selector
	executor core.Executor
	pacer    *ratelimit.Pacer // shared across workers, nil when unpaced
	clock    core.Clock
}

// run executes the worker's fixed operation count, emitting one record
// per attempt. Operation-level failures are recorded and the loop
// continues; a connection-level fault ends this worker only.
func (w *worker) run(ctx context.Context, emit func(core.OperationRecord)) WorkerResult {
	res := WorkerResult{WorkerID: w.id, Expected: w.ops}

	for seq := 1; seq <= w.ops; seq++ {
		// Cooperative cancellation point between operations. An outer
		// deadline surfaces as a degraded worker, not a harness error.
		if ctx.Err() != nil {
			res.Canceled = true
			res.FaultDetail = ctx.Err().Error()
			return res
		}
		if err := w.pacer.Wait(ctx); err != nil {
			res.Canceled = true
			res.FaultDetail = err.Error()
			return res
		}

		kind := w.selector.Pick()
		start := w.clock.Now()
		err := w.executor.Execute(ctx, kind)
		elapsed := w.clock.Since(start)

		rec := core.OperationRecord{
			WorkerID:   w.id,
			SequenceNo: seq,
			Kind:       kind,
			Duration:   elapsed,
			Outcome:    core.Success,
			Timestamp:  start,
		}
		if err != nil {
			rec.Outcome = core.Failed
			rec.ErrorDetail = err.Error()
		}
		emit(rec)
		res.Produced++

		if err != nil && errors.Is(err, core.ErrConnectionLost) {
			res.ConnectionLost = true
			res.FaultDetail = err.Error()
			return res
		}
	}
	return res
}

// acquireFailureRecord is the single record a worker emits when it never
// got a handle, so even a fully dead worker shows up in the output.
func acquireFailureRecord(workerID int, kind core.OperationKind, at time.Time, err error) core.OperationRecord {
	return core.OperationRecord{
		WorkerID:    workerID,
		SequenceNo:  1,
		Kind:        kind,
		Outcome:     core.Failed,
		Timestamp:   at,
		ErrorDetail: err.Error(),
	}
}
