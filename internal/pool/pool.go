package pool

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"dbpulse/internal/core"
	"dbpulse/internal/ratelimit"
	"dbpulse/internal/workload"
)

// Pool runs a fixed number of workers concurrently and collects every
// record they produce. The pool has no intrinsic timeout; it returns
// when every worker has finished its operation count or died at the
// connection level. Cancel the context to bound the run externally.
type Pool struct {
	Concurrency         int
	OperationsPerWorker int
	Mix                 workload.MixPolicy
	Factory             core.ExecutorFactory

	// Reporter observes records live, in addition to the returned slice.
	// Optional; used for progress display.
	Reporter core.Reporter

	// Rate caps aggregate operations/sec across all workers. 0 disables.
	Rate float64

	Clock  core.Clock
	Logger *log.Logger
}

// Run spawns the workers and blocks until all of them have finished.
// The returned records are in arrival order, which is unordered across
// workers; per-worker order is by sequence number. Worker results are
// sorted by worker ID.
func (p *Pool) Run(ctx context.Context) ([]core.OperationRecord, []WorkerResult, error) {
	policy := p.Mix
	if policy == nil {
		policy = workload.Mixed
	}
	if err := policy.Validate(); err != nil {
		return nil, nil, err
	}
	clock := p.Clock
	if clock == nil {
		clock = core.RealClock{}
	}
	reporter := p.Reporter
	if reporter == nil {
		reporter = core.NullReporter
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}

	pacer := ratelimit.NewPacer(p.Rate)

	// Channel fan-in: workers are the only writers, the collect goroutine
	// is the only reader. Merge order across workers is irrelevant to the
	// aggregation.
	sink := make(chan core.OperationRecord, 1024)
	done := make(chan struct{})
	var records []core.OperationRecord
	go func() {
		defer close(done)
		for rec := range sink {
			records = append(records, rec)
			reporter.Report(rec)
		}
	}()

	results := make([]WorkerResult, p.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < p.Concurrency; i++ {
		workerID := i + 1
		selector, err := workload.NewSelector(policy, rand.NewSource(rand.Int63()))
		if err != nil {
			return nil, nil, err
		}

		wg.Add(1)
		go func(slot int) {
			defer wg.Done()

			executor, err := p.Factory.Acquire(ctx, workerID)
			if err != nil {
				// Never got a handle: one failure record, nothing else.
				logger.Error("worker failed to acquire connection",
					"worker", workerID, "err", err)
				sink <- acquireFailureRecord(workerID, selector.Pick(), clock.Now(), err)
				results[slot] = WorkerResult{
					WorkerID:       workerID,
					Expected:       p.OperationsPerWorker,
					Produced:       1,
					ConnectionLost: true,
					FaultDetail:    err.Error(),
				}
				return
			}
			defer executor.Close(context.WithoutCancel(ctx))

			w := &worker{
				id:       workerID,
				ops:      p.OperationsPerWorker,
				selector: selector,
				executor: executor,
				pacer:    pacer,
				clock:    clock,
			}
			res := w.run(ctx, func(rec core.OperationRecord) { sink <- rec })
			if res.ConnectionLost {
				logger.Warn("worker lost its connection",
					"worker", workerID, "produced", res.Produced, "err", res.FaultDetail)
			}
			results[slot] = res
		}(i)
	}

	wg.Wait()
	close(sink)
	<-done

	sort.Slice(results, func(i, j int) bool { return results[i].WorkerID < results[j].WorkerID })
	return records, results, nil
}
