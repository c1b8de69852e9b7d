package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"dbpulse/internal/core"
)

func TestTracker_CountsConcurrently(t *testing.T) {
	tr := NewTracker(&bytes.Buffer{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				outcome := core.Success
				if j%4 == 0 {
					outcome = core.Failed
				}
				tr.Report(core.OperationRecord{
					Duration: 2 * time.Millisecond,
					Outcome:  outcome,
				})
			}
		}()
	}
	wg.Wait()

	total, failed := tr.Counts()
	if total != 1000 {
		t.Errorf("total = %d, want 1000", total)
	}
	if failed != 250 {
		t.Errorf("failed = %d, want 250", failed)
	}
}

func TestTracker_StopPrintsFinalLine(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf)
	tr.Start()
	tr.Report(core.OperationRecord{Duration: 5 * time.Millisecond, Outcome: core.Success})
	tr.Stop()
	tr.Stop() // idempotent

	out := buf.String()
	if !strings.Contains(out, "ops=1") {
		t.Errorf("final status line missing:\n%q", out)
	}
}
