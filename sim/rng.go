package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names a consumer of randomness. Each subsystem draws from its own
// stream so that adding draws in one place does not perturb the others.
type Subsystem string

const (
	// SubsystemWorkload drives guest arrival times and kind selection.
	SubsystemWorkload Subsystem = "workload"
	// SubsystemQueue drives the join gate and per-tick abandonment rolls.
	SubsystemQueue Subsystem = "queue"
	// SubsystemIdentity feeds guest UUID generation.
	SubsystemIdentity Subsystem = "identity"
)

// PartitionedRNG hands out deterministic, isolated *rand.Rand streams.
// Two venues built from the same seed and configuration produce identical runs.
//
// Derivation: seed XOR fnv1a64(subsystem name).
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	seed    int64
	streams map[Subsystem]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG rooted at seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:    seed,
		streams: make(map[Subsystem]*rand.Rand),
	}
}

// For returns the stream of the named subsystem, creating it on first use.
// The same name always returns the same instance. Never returns nil.
func (p *PartitionedRNG) For(s Subsystem) *rand.Rand {
	if rng, ok := p.streams[s]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(string(s))))
	p.streams[s] = rng
	return rng
}

// Seed returns the root seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
