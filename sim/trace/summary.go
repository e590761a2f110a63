package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalFirings       int
	Dropped            int
	MeanDt             float64
	MaxDt              float64
	UniqueReactions    int
	FiringDistribution map[string]int     // reaction label → number of firings
	MaxShare           map[string]float64 // reaction label → largest propensity share when selected
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		FiringDistribution: make(map[string]int),
		MaxShare:           make(map[string]float64),
	}
	if st == nil {
		return summary
	}

	summary.TotalFirings = len(st.Firings)
	summary.Dropped = st.Dropped

	if len(st.Firings) > 0 {
		totalDt := 0.0
		for _, f := range st.Firings {
			summary.FiringDistribution[f.Reaction]++
			totalDt += f.Dt
			if f.Dt > summary.MaxDt {
				summary.MaxDt = f.Dt
			}
			if share := f.Share(); share > summary.MaxShare[f.Reaction] {
				summary.MaxShare[f.Reaction] = share
			}
		}
		summary.MeanDt = totalDt / float64(len(st.Firings))
	}

	summary.UniqueReactions = len(summary.FiringDistribution)

	return summary
}
