package sim

import "github.com/polykmc/polykmc/sim/analysis"

// KMCState holds the clock and counters at a snapshot.
type KMCState struct {
	Iteration                 uint64  // events fired since the start of the run
	KMCStep                   uint64  // events fired since the previous snapshot
	KMCTime                   float64 // simulated time
	SimulationTime            float64 // wall-clock seconds since Run started
	SimulationTimePer1e6Steps float64 // wall-clock seconds per million events
	NAV                       float64
}

// SpeciesState holds counts and conversions at a snapshot.
// Unit slices follow registry unit order; PolymerCounts follows registry
// polymer-container order (polymer types, then labels).
type SpeciesState struct {
	UnitConversions   []float64
	MonomerConversion float64
	UnitCounts        []uint64
	PolymerCounts     []uint64
}

// SequenceState holds the population positional sequence stats at a snapshot.
type SequenceState struct {
	KMC   KMCState
	Stats analysis.PositionalStats
}

// SystemState is the read-only snapshot handed to observers.
// It is rebuilt from scratch at every report.
type SystemState struct {
	KMC      KMCState
	Species  SpeciesState
	Analysis analysis.AnalysisState
	Sequence *SequenceState // nil unless sequences are reported
}
