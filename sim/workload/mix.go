package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Mix draws guest kind names according to relative weights.
// Names are kept in sorted order so that a seeded draw is reproducible
// regardless of map iteration order.
type Mix struct {
	names      []string
	cumulative []float64
}

// NewMix builds a Mix from name→weight. Weights must be non-negative and sum
// to a positive value; zero-weight names are never drawn.
func NewMix(weights map[string]float64) (*Mix, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("guest mix must not be empty")
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0.0
	for _, name := range names {
		w := weights[name]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("guest mix weight for %q must be a finite non-negative number, got %v", name, w)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("guest mix weights sum to %v; must be positive", total)
	}

	m := &Mix{names: names, cumulative: make([]float64, len(names))}
	acc := 0.0
	for i, name := range names {
		acc += weights[name] / total
		m.cumulative[i] = acc
	}
	m.cumulative[len(m.cumulative)-1] = 1.0
	return m, nil
}

// Names returns the kinds in the mix, sorted.
func (m *Mix) Names() []string {
	return m.names
}

// Sample draws one kind name.
func (m *Mix) Sample(rng *rand.Rand) string {
	u := rng.Float64()
	idx := sort.SearchFloat64s(m.cumulative, u)
	// SearchFloat64s returns the first index with cumulative >= u; u == cumulative[i]
	// belongs to the next bucket.
	for idx < len(m.cumulative)-1 && m.cumulative[idx] <= u {
		idx++
	}
	return m.names[idx]
}
