package analysis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/polykmc/polykmc/sim/registry"
)

// BucketIndex maps a position along a chain of chainLength units onto one of
// numBuckets equal-width buckets. Chains of length 0 or 1 always map to bucket 0.
func BucketIndex(position, chainLength, numBuckets int) int {
	if chainLength <= 1 {
		return 0
	}
	bucket := int(float64(position) / float64(chainLength) * float64(numBuckets))
	if bucket >= numBuckets {
		return numBuckets - 1
	}
	return bucket
}

// CalculatePositionalSequenceStats walks seq once and accumulates runs of
// identical consecutive monomers into positional buckets.
//
// Non-monomer units are skipped: they neither extend nor break a run, but they
// count toward the chain length used for bucketing. A run is recorded in the
// bucket of the unit that ends it; the final run in the bucket of the last unit.
func CalculatePositionalSequenceStats(seq []registry.SpeciesID, numBuckets int, monomers Monomers) PositionalStats {
	stats := NewPositionalStats(numBuckets, monomers.NumMonomers())
	if len(seq) == 0 {
		return stats
	}

	current := registry.UndefinedID
	var runLength uint64
	for i, id := range seq {
		if !monomers.IsMonomer(id) {
			continue
		}
		if id == current {
			runLength++
			continue
		}
		if runLength > 0 {
			b := BucketIndex(i, len(seq), numBuckets)
			stats[b].AddSequence(monomers.MonomerIndex(current), runLength)
		}
		current = id
		runLength = 1
	}

	if runLength > 0 {
		b := BucketIndex(len(seq)-1, len(seq), numBuckets)
		stats[b].AddSequence(monomers.MonomerIndex(current), runLength)
	}
	return stats
}

// RawSequenceData collects the chains of one snapshot: raw sequences still to be
// walked and compressed chains whose positional stats were computed earlier.
type RawSequenceData struct {
	Sequences   [][]registry.SpeciesID
	Precomputed []PositionalStats
}

// NewRawSequenceData preallocates room for n chains.
func NewRawSequenceData(n int) *RawSequenceData {
	return &RawSequenceData{
		Sequences:   make([][]registry.SpeciesID, 0, n),
		Precomputed: make([]PositionalStats, 0, n),
	}
}

// Len returns the number of chains collected.
func (d *RawSequenceData) Len() int {
	return len(d.Sequences) + len(d.Precomputed)
}

// SequenceSummary is the per-snapshot fold over all chains.
type SequenceSummary struct {
	// Matrix has one row per chain and NumMetrics*numMonomers columns laid out as
	// in SequenceStats.Row. Nil when there are no chains or no monomers.
	Matrix *mat.Dense

	// Positional sums every chain's stats per bucket.
	Positional PositionalStats
}

// CalculateSequenceSummary walks raw sequences, folds precomputed stats, and
// returns the per-chain stats matrix together with population positional totals.
func CalculateSequenceSummary(data *RawSequenceData, numBuckets int, monomers Monomers) SequenceSummary {
	numMonomers := monomers.NumMonomers()
	summary := SequenceSummary{Positional: NewPositionalStats(numBuckets, numMonomers)}

	rows, cols := data.Len(), NumMetrics*numMonomers
	if rows == 0 || cols == 0 {
		return summary
	}
	summary.Matrix = mat.NewDense(rows, cols, nil)
	row := make([]float64, cols)

	add := func(i int, chain PositionalStats) {
		chain.Total(numMonomers).Row(row)
		summary.Matrix.SetRow(i, row)
		summary.Positional.Add(chain)
	}

	for i, seq := range data.Sequences {
		add(i, CalculatePositionalSequenceStats(seq, numBuckets, monomers))
	}
	offset := len(data.Sequences)
	for i, pre := range data.Precomputed {
		add(offset+i, pre)
	}
	return summary
}
