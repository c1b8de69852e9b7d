// Package progress renders a once-per-second status line while a run is
// in flight. It consumes the pool's streaming reporter hook and keeps
// only a bounded histogram, so live stats cost constant memory no matter
// how long the run is.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"dbpulse/internal/core"
)

// Tracker implements core.Reporter. The percentiles it prints are
// histogram approximations for display only; the authoritative values
// come from the summary package at run end.
type Tracker struct {
	total  atomic.Int64
	failed atomic.Int64

	mu   sync.Mutex
	hist *hdrhistogram.Histogram

	startTime time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopped   atomic.Bool
	output    io.Writer
}

// NewTracker creates a Tracker writing to w; nil means stderr.
func NewTracker(w io.Writer) *Tracker {
	if w == nil {
		w = os.Stderr
	}
	return &Tracker{
		// 1us..5min at 3 significant digits, values in microseconds.
		hist:   hdrhistogram.New(1, 5*60*1_000_000, 3),
		output: w,
	}
}

// Report records one operation. Safe for concurrent use.
func (t *Tracker) Report(rec core.OperationRecord) {
	t.total.Add(1)
	if rec.Outcome == core.Failed {
		t.failed.Add(1)
	}
	t.mu.Lock()
	_ = t.hist.RecordValue(rec.Duration.Microseconds())
	t.mu.Unlock()
}

// Start begins printing the status line every second.
func (t *Tracker) Start() {
	t.startTime = time.Now()
	t.ticker = time.NewTicker(1 * time.Second)
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	go t.run()
}

func (t *Tracker) run() {
	defer close(t.doneCh)
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.ticker.C:
			t.print()
		}
	}
}

func (t *Tracker) print() {
	total := t.total.Load()
	failed := t.failed.Load()
	var errRate float64
	if total > 0 {
		errRate = float64(failed) / float64(total) * 100
	}

	t.mu.Lock()
	p50 := float64(t.hist.ValueAtQuantile(50)) / 1000
	p99 := float64(t.hist.ValueAtQuantile(99)) / 1000
	t.mu.Unlock()

	elapsed := time.Since(t.startTime).Round(time.Second)
	fmt.Fprintf(t.output, "\r[%s] ops=%d errors=%.1f%% p50=%.1fms p99=%.1fms ",
		elapsed, total, errRate, p50, p99)
}

// Stop ends the status line and prints a trailing newline. Idempotent.
func (t *Tracker) Stop() {
	if t.ticker == nil || !t.stopped.CompareAndSwap(false, true) {
		return
	}
	t.ticker.Stop()
	close(t.stopCh)
	<-t.doneCh
	t.print()
	fmt.Fprintln(t.output)
}

// Counts returns the totals seen so far.
func (t *Tracker) Counts() (total, failed int64) {
	return t.total.Load(), t.failed.Load()
}
