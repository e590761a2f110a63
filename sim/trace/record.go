// Package trace provides firing-trace recording for KMC runs.
// This package has no dependencies on sim/: it stores pure data types.
package trace

// FiringRecord captures a single reaction selection and firing.
type FiringRecord struct {
	Iteration       uint64  // events fired before this one
	Time            float64 // simulated time after the step
	Dt              float64 // time increment drawn for the step
	Reaction        string  // reaction label, e.g. "PR: P + M -kp-> P"
	Propensity      float64 // propensity of the selected reaction
	TotalPropensity float64 // sum of all propensities at selection
}

// Share returns the fraction of total propensity held by the selected reaction.
func (r FiringRecord) Share() float64 {
	if r.TotalPropensity == 0 {
		return 0
	}
	return r.Propensity / r.TotalPropensity
}
