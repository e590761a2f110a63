// Package analysis computes chain-length, molecular-weight and monomer-sequence
// statistics from polymer chains.
//
// The per-chain unit of work is a PositionalStats value: one SequenceStats per
// positional bucket along the normalized chain. Chains are folded into a
// SequenceSummary whose matrix (one row per chain) feeds the distribution
// moments in distribution.go.
package analysis

import "github.com/polykmc/polykmc/sim/registry"

// NumBuckets is the default number of positional buckets along a chain.
const NumBuckets = 30

// NumMetrics is the number of per-monomer fields in a SequenceStats.
const NumMetrics = 3

// Monomers resolves monomer identity for sequence walks.
// *registry.Registry satisfies it.
type Monomers interface {
	IsMonomer(id registry.SpeciesID) bool
	MonomerIndex(id registry.SpeciesID) int
	NumMonomers() int
}

// SequenceStats accumulates, per monomer type, the number of monomer units,
// the number of runs and the sum of squared run lengths.
// Slices are indexed by registry monomer index.
type SequenceStats struct {
	MonCounts   []uint64
	SeqCounts   []uint64
	SeqLengths2 []uint64
}

// NewSequenceStats returns zeroed stats for numMonomers monomer types.
func NewSequenceStats(numMonomers int) SequenceStats {
	return SequenceStats{
		MonCounts:   make([]uint64, numMonomers),
		SeqCounts:   make([]uint64, numMonomers),
		SeqLengths2: make([]uint64, numMonomers),
	}
}

// AddSequence records one run of length identical monomers of index monIdx.
func (s *SequenceStats) AddSequence(monIdx int, length uint64) {
	s.MonCounts[monIdx] += length
	s.SeqCounts[monIdx]++
	s.SeqLengths2[monIdx] += length * length
}

// Add folds other into s. Both must cover the same monomer set.
func (s *SequenceStats) Add(other SequenceStats) {
	for i := range s.MonCounts {
		s.MonCounts[i] += other.MonCounts[i]
		s.SeqCounts[i] += other.SeqCounts[i]
		s.SeqLengths2[i] += other.SeqLengths2[i]
	}
}

// TotalMonomers returns the number of monomer units across all types.
func (s SequenceStats) TotalMonomers() uint64 {
	var n uint64
	for _, c := range s.MonCounts {
		n += c
	}
	return n
}

// Row writes the stats into dst in matrix column order:
// all MonCounts, then all SeqCounts, then all SeqLengths2.
// dst must have length NumMetrics*len(s.MonCounts).
func (s SequenceStats) Row(dst []float64) {
	n := len(s.MonCounts)
	for i := 0; i < n; i++ {
		dst[i] = float64(s.MonCounts[i])
		dst[n+i] = float64(s.SeqCounts[i])
		dst[2*n+i] = float64(s.SeqLengths2[i])
	}
}

// PositionalStats holds one SequenceStats per positional bucket.
type PositionalStats []SequenceStats

// NewPositionalStats returns zeroed stats for numBuckets buckets.
func NewPositionalStats(numBuckets, numMonomers int) PositionalStats {
	p := make(PositionalStats, numBuckets)
	for i := range p {
		p[i] = NewSequenceStats(numMonomers)
	}
	return p
}

// Add folds other into p bucket by bucket.
func (p PositionalStats) Add(other PositionalStats) {
	for b := range p {
		p[b].Add(other[b])
	}
}

// Total sums the buckets into a single whole-chain SequenceStats.
func (p PositionalStats) Total(numMonomers int) SequenceStats {
	total := NewSequenceStats(numMonomers)
	for _, s := range p {
		total.Add(s)
	}
	return total
}
