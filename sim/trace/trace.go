package trace

// TraceLevel controls the verbosity of firing traces.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelFirings captures every fired reaction with its propensity share.
	TraceLevelFirings TraceLevel = "firings"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelFirings: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level      TraceLevel
	MaxRecords int // records kept before further firings are only counted (0 = unbounded)
}

// SimulationTrace collects firing records during a KMC run.
type SimulationTrace struct {
	Config  TraceConfig
	Firings []FiringRecord
	Dropped int // firings not stored because MaxRecords was reached
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Firings: make([]FiringRecord, 0),
	}
}

// Enabled reports whether records should be collected at all.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelFirings
}

// RecordFiring appends a firing record, or counts it as dropped once the cap is reached.
func (st *SimulationTrace) RecordFiring(record FiringRecord) {
	if st.Config.MaxRecords > 0 && len(st.Firings) >= st.Config.MaxRecords {
		st.Dropped++
		return
	}
	st.Firings = append(st.Firings, record)
}
