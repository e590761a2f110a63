package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/polykmc/polykmc/sim/registry"
)

// newMonomers registers A and B as monomers and I as an initiator.
func newMonomers(t *testing.T) (*registry.Registry, registry.SpeciesID, registry.SpeciesID, registry.SpeciesID) {
	t.Helper()
	b := registry.NewBuilder()
	a, err := b.RegisterNewSpecies("A", registry.Monomer)
	require.NoError(t, err)
	bb, err := b.RegisterNewSpecies("B", registry.Monomer)
	require.NoError(t, err)
	i, err := b.RegisterNewSpecies("I", registry.Initiator)
	require.NoError(t, err)
	return b.Build(), a, bb, i
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		name                      string
		position, length, buckets int
		want                      int
	}{
		{"empty chain", 0, 0, 30, 0},
		{"single unit", 0, 1, 30, 0},
		{"start", 0, 10, 30, 0},
		{"middle", 5, 10, 30, 15},
		{"last", 9, 10, 30, 27},
		{"more buckets than units", 1, 2, 30, 15},
		{"one bucket", 7, 8, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketIndex(tt.position, tt.length, tt.buckets))
		})
	}
}

func TestCalculatePositionalSequenceStats_RunsAndBuckets(t *testing.T) {
	// GIVEN chain I-A-A-B-A with one bucket per position
	reg, a, b, i := newMonomers(t)
	seq := []registry.SpeciesID{i, a, a, b, a}

	// WHEN positional stats are computed
	stats := CalculatePositionalSequenceStats(seq, 5, reg)

	// THEN the AA run is recorded where B breaks it, the B run where the last A breaks it,
	// and the trailing A run in the last bucket
	require.Len(t, stats, 5)
	assert.Equal(t, []uint64{0, 0}, stats[0].MonCounts)
	assert.Equal(t, []uint64{2, 0}, stats[3].MonCounts)
	assert.Equal(t, []uint64{1, 0}, stats[3].SeqCounts)
	assert.Equal(t, []uint64{4, 0}, stats[3].SeqLengths2)
	assert.Equal(t, []uint64{1, 1}, stats[4].MonCounts)
	assert.Equal(t, []uint64{1, 1}, stats[4].SeqCounts)

	total := stats.Total(reg.NumMonomers())
	assert.Equal(t, []uint64{3, 1}, total.MonCounts)
	assert.Equal(t, []uint64{2, 1}, total.SeqCounts)
	assert.Equal(t, []uint64{5, 1}, total.SeqLengths2)
}

func TestCalculatePositionalSequenceStats_NonMonomerDoesNotBreakRun(t *testing.T) {
	reg, a, _, i := newMonomers(t)
	seq := []registry.SpeciesID{a, i, a, a}

	total := CalculatePositionalSequenceStats(seq, NumBuckets, reg).Total(reg.NumMonomers())

	assert.Equal(t, []uint64{3, 0}, total.MonCounts)
	assert.Equal(t, []uint64{1, 0}, total.SeqCounts)
	assert.Equal(t, []uint64{9, 0}, total.SeqLengths2)
}

func TestCalculatePositionalSequenceStats_Empty(t *testing.T) {
	reg, _, _, i := newMonomers(t)

	for _, seq := range [][]registry.SpeciesID{nil, {i}} {
		total := CalculatePositionalSequenceStats(seq, NumBuckets, reg).Total(reg.NumMonomers())
		assert.Equal(t, uint64(0), total.TotalMonomers())
	}
}

func TestCalculatePositionalSequenceStats_BucketSumEqualsComposition(t *testing.T) {
	// Summing buckets of any chain must reproduce its monomer composition.
	reg, a, b, i := newMonomers(t)
	seqs := [][]registry.SpeciesID{
		{i, a, b, b, a, b, a, a, a, b},
		{a},
		{b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, a},
		{i, i, a, b},
	}
	for _, seq := range seqs {
		var wantA, wantB uint64
		for _, id := range seq {
			switch id {
			case a:
				wantA++
			case b:
				wantB++
			}
		}
		total := CalculatePositionalSequenceStats(seq, NumBuckets, reg).Total(reg.NumMonomers())
		assert.Equal(t, []uint64{wantA, wantB}, total.MonCounts)
	}
}

func TestCalculateSequenceSummary_FoldsRawAndPrecomputed(t *testing.T) {
	// GIVEN one raw chain and one precomputed chain
	reg, a, b, _ := newMonomers(t)
	data := NewRawSequenceData(2)
	data.Sequences = append(data.Sequences, []registry.SpeciesID{a, a, b})
	pre := CalculatePositionalSequenceStats([]registry.SpeciesID{b, b, b, b}, NumBuckets, reg)
	data.Precomputed = append(data.Precomputed, pre)

	// WHEN summarized
	summary := CalculateSequenceSummary(data, NumBuckets, reg)

	// THEN rows follow input order and positional totals cover both chains
	require.NotNil(t, summary.Matrix)
	rows, cols := summary.Matrix.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, NumMetrics*2, cols)
	assert.Equal(t, []float64{2, 1, 1, 1, 4, 1}, summary.Matrix.RawRowView(0))
	assert.Equal(t, []float64{0, 4, 0, 1, 0, 16}, summary.Matrix.RawRowView(1))

	positional := summary.Positional.Total(reg.NumMonomers())
	assert.Equal(t, []uint64{2, 5}, positional.MonCounts)
	assert.Equal(t, []uint64{1, 2}, positional.SeqCounts)
}

func TestCalculateSequenceSummary_NoChains(t *testing.T) {
	reg, _, _, _ := newMonomers(t)

	summary := CalculateSequenceSummary(NewRawSequenceData(0), NumBuckets, reg)

	assert.Nil(t, summary.Matrix)
	assert.Len(t, summary.Positional, NumBuckets)
}

// statsMatrix builds a two-monomer stats matrix from rows of
// {monA, monB, seqA, seqB, len2A, len2B}.
func statsMatrix(rows ...[]float64) *mat.Dense {
	m := mat.NewDense(len(rows), 6, nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}

func TestAnalyzeChainLengthDist(t *testing.T) {
	// GIVEN chains of length 2 (AB) and 4 (AAAA)
	m := statsMatrix(
		[]float64{1, 1, 1, 1, 1, 1},
		[]float64{4, 0, 1, 0, 16, 0},
	)
	st := NewAnalysisState(2)

	// WHEN analyzed with FWs 100 and 50
	AnalyzeChainLengthDist(m, []float64{100, 50}, &st)

	// THEN chain length moments are mean, mean-square over mean and their ratio
	assert.InDelta(t, 3.0, st.NAvgCL, 1e-12)
	assert.InDelta(t, 10.0/3.0, st.WAvgCL, 1e-12)
	assert.InDelta(t, 10.0/9.0, st.DispCL, 1e-12)

	// AND molecular weights are 150 and 400
	assert.InDelta(t, 275.0, st.NAvgMW, 1e-9)
	assert.InDelta(t, (150.0*150.0+400.0*400.0)/2/275.0, st.WAvgMW, 1e-9)
	assert.GreaterOrEqual(t, st.DispMW, 1.0)
}

func TestAnalyzeChainLengthDist_ZeroFWFallsBackToChainLength(t *testing.T) {
	m := statsMatrix(
		[]float64{1, 1, 1, 1, 1, 1},
		[]float64{4, 0, 1, 0, 16, 0},
	)
	st := NewAnalysisState(2)

	AnalyzeChainLengthDist(m, []float64{100, 0}, &st)

	assert.Equal(t, st.NAvgCL, st.NAvgMW)
	assert.Equal(t, st.WAvgCL, st.WAvgMW)
	assert.Equal(t, st.DispCL, st.DispMW)
}

func TestAnalyzeChainLengthDist_MonodisperseHasUnitDispersity(t *testing.T) {
	m := statsMatrix(
		[]float64{3, 0, 1, 0, 9, 0},
		[]float64{3, 0, 1, 0, 9, 0},
		[]float64{3, 0, 1, 0, 9, 0},
	)
	st := NewAnalysisState(2)

	AnalyzeChainLengthDist(m, []float64{1, 1}, &st)

	assert.InDelta(t, 1.0, st.DispCL, 1e-12)
	assert.InDelta(t, 1.0, st.DispMW, 1e-12)
}

func TestAnalyzeChainLengthDist_NilMatrixLeavesZeros(t *testing.T) {
	st := NewAnalysisState(2)
	AnalyzeChainLengthDist(nil, []float64{1, 1}, &st)
	AnalyzeSequenceLengthDist(nil, &st)
	assert.Equal(t, NewAnalysisState(2), st)
}

func TestAnalyzeSequenceLengthDist(t *testing.T) {
	// GIVEN A in runs of 2 and 1 and 4, B in a single run of 1; no chain has C
	m := mat.NewDense(2, 9, []float64{
		3, 1, 0, 2, 1, 0, 5, 1, 0,
		4, 0, 0, 1, 0, 0, 16, 0, 0,
	})
	st := NewAnalysisState(3)

	// WHEN analyzed
	AnalyzeSequenceLengthDist(m, &st)

	// THEN composition and sequence moments follow the population totals
	assert.InDelta(t, 7.0/8.0, st.NAvgComp[0], 1e-12)
	assert.InDelta(t, 1.0/8.0, st.NAvgComp[1], 1e-12)
	assert.InDelta(t, 7.0/3.0, st.NAvgSL[0], 1e-12)
	assert.InDelta(t, 21.0/7.0, st.WAvgSL[0], 1e-12)
	assert.InDelta(t, 3.0/(7.0/3.0), st.DispSL[0], 1e-12)
	assert.GreaterOrEqual(t, st.DispSL[0], 1.0)
	assert.InDelta(t, 1.0, st.DispSL[1], 1e-12)

	// AND the absent monomer stays zero
	assert.Zero(t, st.NAvgComp[2])
	assert.Zero(t, st.NAvgSL[2])
	assert.Zero(t, st.DispSL[2])
}
