package sim

import (
	"fmt"
	"math"

	"github.com/polykmc/polykmc/sim/analysis"
	"github.com/polykmc/polykmc/sim/trace"
)

// SimulationConfig groups the run parameters declared by a model.
type SimulationConfig struct {
	NumParticles    uint64  // particle-count scale used to derive NAV (must be > 0)
	TerminationTime float64 // simulated time at which stepping stops (must be > 0)
	AnalysisTime    float64 // simulated time between snapshots (must be > 0)
}

// Validate checks that every parameter is set and positive.
func (c SimulationConfig) Validate() error {
	if c.NumParticles == 0 {
		return fmt.Errorf("num_units must be positive, got 0")
	}
	if err := validateFinitePositive("termination_time", c.TerminationTime); err != nil {
		return err
	}
	return validateFinitePositive("analysis_time", c.AnalysisTime)
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

// RunOptions groups engine and reporting switches that are not part of the model.
type RunOptions struct {
	Seed            int64 // master seed for the single RNG stream
	ReportPolymers  bool  // keep raw sequences of terminated chains for export
	ReportSequences bool  // include positional bucket stats in every snapshot

	// CompressTerminated replaces terminated chains by their positional stats
	// once they land in a container no reaction draws from.
	// Must be false when ReportPolymers is set.
	CompressTerminated bool

	NumBuckets      int              // positional buckets per chain (default analysis.NumBuckets)
	TraceLevel      trace.TraceLevel // firing trace verbosity (default none)
	TraceMaxRecords int              // firing records kept before the rest are only counted (0 = unbounded)
}

// DefaultTraceMaxRecords caps the firing trace of a run with default options.
const DefaultTraceMaxRecords = 100000

// NewRunOptions returns options with compression enabled unless polymers are reported.
func NewRunOptions(seed int64, reportPolymers, reportSequences bool) RunOptions {
	return RunOptions{
		Seed:               seed,
		ReportPolymers:     reportPolymers,
		ReportSequences:    reportSequences,
		CompressTerminated: !reportPolymers,
		NumBuckets:         analysis.NumBuckets,
		TraceLevel:         trace.TraceLevelNone,
		TraceMaxRecords:    DefaultTraceMaxRecords,
	}
}

func (o RunOptions) validate() error {
	if o.NumBuckets <= 0 {
		return fmt.Errorf("num buckets must be positive, got %d", o.NumBuckets)
	}
	if o.ReportPolymers && o.CompressTerminated {
		return fmt.Errorf("cannot compress terminated polymers while reporting polymers")
	}
	if o.TraceMaxRecords < 0 {
		return fmt.Errorf("trace max records must not be negative, got %d", o.TraceMaxRecords)
	}
	if !trace.IsValidTraceLevel(string(o.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q", o.TraceLevel)
	}
	return nil
}
