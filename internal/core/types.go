// Package core defines the fundamental types and interfaces for dbpulse.
package core

import (
	"fmt"
	"time"
)

// OperationKind identifies one type of request a worker may issue
// against the store.
type OperationKind int

const (
	KindSelect OperationKind = iota
	KindInsert
	KindUpdate
	KindDelete
)

// Kinds lists every operation kind in declaration order.
var Kinds = []OperationKind{KindSelect, KindInsert, KindUpdate, KindDelete}

func (k OperationKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("KIND(%d)", int(k))
	}
}

// ParseKind converts a kind name (case-sensitive, as printed by String)
// back to an OperationKind.
func ParseKind(s string) (OperationKind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", s)
}

// Outcome is the result of a single attempted operation.
type Outcome int

const (
	Success Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Success {
		return "SUCCESS"
	}
	return "FAILED"
}

// OperationRecord is one measurement of one attempted operation.
// Records are created exactly once by the worker that ran the operation
// and never mutated afterwards.
type OperationRecord struct {
	WorkerID    int
	SequenceNo  int // 1-based within a worker
	Kind        OperationKind
	Duration    time.Duration
	Outcome     Outcome
	Timestamp   time.Time
	ErrorDetail string
}

// HealthSample is one timestamped snapshot of the store's internal
// resource and counter state, collected independently of the workload.
type HealthSample struct {
	Timestamp         time.Time
	CPUPct            float64
	MemoryMB          float64
	ActiveConnections int
	Counters          map[string]float64
}
