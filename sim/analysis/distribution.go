package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AnalysisState holds the distribution moments of one snapshot.
// Per-monomer slices are indexed by registry monomer index; entries stay 0 for
// monomers that appear in no chain.
type AnalysisState struct {
	NAvgCL float64 `yaml:"n_avg_cl"`
	WAvgCL float64 `yaml:"w_avg_cl"`
	DispCL float64 `yaml:"disp_cl"`

	NAvgMW float64 `yaml:"n_avg_mw"`
	WAvgMW float64 `yaml:"w_avg_mw"`
	DispMW float64 `yaml:"disp_mw"`

	NAvgComp []float64 `yaml:"n_avg_comp"`
	NAvgSL   []float64 `yaml:"n_avg_sl"`
	WAvgSL   []float64 `yaml:"w_avg_sl"`
	DispSL   []float64 `yaml:"disp_sl"`
}

// NewAnalysisState returns a zeroed state sized for numMonomers.
func NewAnalysisState(numMonomers int) AnalysisState {
	return AnalysisState{
		NAvgComp: make([]float64, numMonomers),
		NAvgSL:   make([]float64, numMonomers),
		WAvgSL:   make([]float64, numMonomers),
		DispSL:   make([]float64, numMonomers),
	}
}

// moments returns the number average, weight average and dispersity of xs.
// Averages stay 0 when the number average is 0.
func moments(xs []float64) (nAvg, wAvg, disp float64) {
	nAvg = stat.Mean(xs, nil)
	if nAvg == 0 {
		return nAvg, 0, 0
	}
	wAvg = floats.Dot(xs, xs) / float64(len(xs)) / nAvg
	return nAvg, wAvg, wAvg / nAvg
}

// AnalyzeChainLengthDist computes chain-length and molecular-weight moments
// from the stats matrix. Chain length is the number of monomer units in a chain.
// If any monomer formula weight is 0, the molecular-weight moments are copied
// from the chain-length moments.
func AnalyzeChainLengthDist(m *mat.Dense, monomerFWs []float64, st *AnalysisState) {
	if m == nil {
		return
	}
	rows, _ := m.Dims()
	numMonomers := len(monomerFWs)

	chainLengths := make([]float64, rows)
	weights := make([]float64, rows)
	for i := 0; i < rows; i++ {
		counts := m.RawRowView(i)[:numMonomers]
		chainLengths[i] = floats.Sum(counts)
		weights[i] = floats.Dot(counts, monomerFWs)
	}

	st.NAvgCL, st.WAvgCL, st.DispCL = moments(chainLengths)

	for _, fw := range monomerFWs {
		if fw == 0 {
			st.NAvgMW, st.WAvgMW, st.DispMW = st.NAvgCL, st.WAvgCL, st.DispCL
			return
		}
	}
	st.NAvgMW, st.WAvgMW, st.DispMW = moments(weights)
}

// AnalyzeSequenceLengthDist computes per-monomer composition and sequence-length
// moments from the population totals of the stats matrix.
func AnalyzeSequenceLengthDist(m *mat.Dense, st *AnalysisState) {
	if m == nil {
		return
	}
	rows, cols := m.Dims()
	numMonomers := len(st.NAvgComp)
	if cols < NumMetrics*numMonomers {
		return
	}

	totals := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		totals[j] = floats.Sum(col)
	}
	totalMonomers := floats.Sum(totals[:numMonomers])

	for i := 0; i < numMonomers; i++ {
		monCount := totals[i]
		seqCount := totals[numMonomers+i]
		seqLength2 := totals[2*numMonomers+i]
		if seqCount <= 0 || monCount <= 0 {
			continue
		}
		st.NAvgComp[i] = monCount / totalMonomers
		st.NAvgSL[i] = monCount / seqCount
		st.WAvgSL[i] = seqLength2 / monCount
		st.DispSL[i] = st.WAvgSL[i] / st.NAvgSL[i]
	}
}
