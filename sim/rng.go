package sim

import (
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical model
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === KMCRandom ===

// KMCRandom is the single random stream of a KMC run. Reaction selection,
// time increments, decomposition efficiency draws and polymer sampling all
// consume from it, so the draw order fixes the trajectory for a given key.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type KMCRandom struct {
	key SimulationKey
	rng *rand.Rand
}

// NewKMCRandom creates a KMCRandom seeded from key.
func NewKMCRandom(key SimulationKey) *KMCRandom {
	return &KMCRandom{
		key: key,
		rng: rand.New(rand.NewSource(int64(key))),
	}
}

// Key returns the SimulationKey used to create this KMCRandom.
func (r *KMCRandom) Key() SimulationKey {
	return r.key
}

// Rand returns a uniform number in (0, 1].
func (r *KMCRandom) Rand() float64 {
	return 1 - r.rng.Float64()
}

// RandIndex returns a uniform index in [0, n). n must be positive.
func (r *KMCRandom) RandIndex(n int) int {
	return r.rng.Intn(n)
}

// RandIndexWeighted returns index i with probability weights[i]/Σweights.
// The total weight must be positive.
func (r *KMCRandom) RandIndexWeighted(weights []uint64) int {
	var total uint64
	for _, w := range weights {
		total += w
	}
	target := uint64(r.rng.Int63n(int64(total)))
	var cum uint64
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}
