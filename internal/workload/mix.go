// Package workload decides which operation kind a worker runs next,
// according to a weighted mix policy.
package workload

import (
	"fmt"
	"math/rand"

	"dbpulse/internal/core"
)

// MixPolicy maps operation kinds to relative frequency weights. Weights
// need not sum to 1; they are normalized before use. A policy is valid
// when no weight is negative and at least one is positive.
type MixPolicy map[core.OperationKind]float64

// Mixed is the default policy, matching a read-heavy OLTP profile.
var Mixed = MixPolicy{
	core.KindSelect: 0.6,
	core.KindInsert: 0.2,
	core.KindUpdate: 0.1,
	core.KindDelete: 0.1,
}

// Preset returns a named mix policy. Recognized names are "mixed" plus
// the single-kind presets "select", "insert", "update" and "delete".
func Preset(name string) (MixPolicy, bool) {
	switch name {
	case "mixed":
		return Mixed, true
	case "select":
		return MixPolicy{core.KindSelect: 1}, true
	case "insert":
		return MixPolicy{core.KindInsert: 1}, true
	case "update":
		return MixPolicy{core.KindUpdate: 1}, true
	case "delete":
		return MixPolicy{core.KindDelete: 1}, true
	}
	return nil, false
}

// Validate reports whether the policy can drive a run. Invalid policies
// are a configuration error; selection itself never fails.
func (p MixPolicy) Validate() error {
	var total float64
	for kind, w := range p {
		if w < 0 {
			return fmt.Errorf("mix weight for %s is negative (%v)", kind, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("mix policy has no positive weight")
	}
	return nil
}

// Selector draws operation kinds from a normalized cumulative
// distribution. A Selector is not safe for concurrent use; each worker
// owns its own.
type Selector struct {
	kinds []core.OperationKind
	cum   []float64
	rng   *rand.Rand
}

// NewSelector builds a Selector for the policy. The source seeds the
// selector's private RNG; pass nil for a randomly-seeded one. Selection
// is deterministic given the same source.
func NewSelector(policy MixPolicy, src rand.Source) (*Selector, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = rand.NewSource(rand.Int63())
	}

	var total float64
	for _, k := range core.Kinds {
		total += policy[k]
	}

	s := &Selector{rng: rand.New(src)}
	var cum float64
	for _, k := range core.Kinds {
		w := policy[k]
		if w <= 0 {
			continue
		}
		cum += w / total
		s.kinds = append(s.kinds, k)
		s.cum = append(s.cum, cum)
	}
	return s, nil
}

// Pick returns the next operation kind to run.
func (s *Selector) Pick() core.OperationKind {
	f := s.rng.Float64()
	for i, bound := range s.cum {
		if f < bound {
			return s.kinds[i]
		}
	}
	// Float rounding can leave the last bound a hair under 1.0.
	return s.kinds[len(s.kinds)-1]
}
