package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFirings})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalFirings != 0 {
		t.Errorf("expected 0 total firings, got %d", summary.TotalFirings)
	}
	if summary.UniqueReactions != 0 {
		t.Errorf("expected 0 unique reactions, got %d", summary.UniqueReactions)
	}
	if summary.MeanDt != 0 || summary.MaxDt != 0 {
		t.Error("expected 0 dt values")
	}
	if len(summary.FiringDistribution) != 0 {
		t.Error("expected empty firing distribution")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalFirings != 0 || summary.FiringDistribution == nil {
		t.Error("expected zero summary with initialized map")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with firings of two reactions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFirings})
	st.RecordFiring(FiringRecord{Reaction: "ID", Dt: 0.1, Propensity: 1, TotalPropensity: 4})
	st.RecordFiring(FiringRecord{Reaction: "PR", Dt: 0.3, Propensity: 3, TotalPropensity: 4})
	st.RecordFiring(FiringRecord{Reaction: "PR", Dt: 0.2, Propensity: 1, TotalPropensity: 2})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts, dt moments and shares match
	if summary.TotalFirings != 3 {
		t.Errorf("expected 3 total firings, got %d", summary.TotalFirings)
	}
	if summary.UniqueReactions != 2 {
		t.Errorf("expected 2 unique reactions, got %d", summary.UniqueReactions)
	}
	if summary.FiringDistribution["PR"] != 2 {
		t.Errorf("expected 2 PR firings, got %d", summary.FiringDistribution["PR"])
	}
	if diff := summary.MeanDt - 0.2; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("expected mean dt 0.2, got %f", summary.MeanDt)
	}
	if summary.MaxDt != 0.3 {
		t.Errorf("expected max dt 0.3, got %f", summary.MaxDt)
	}
	if summary.MaxShare["PR"] != 0.75 {
		t.Errorf("expected max PR share 0.75, got %f", summary.MaxShare["PR"])
	}
	if summary.MaxShare["ID"] != 0.25 {
		t.Errorf("expected max ID share 0.25, got %f", summary.MaxShare["ID"])
	}
}
