package sim

import "math"

// Event is one direct-method selection: the reaction to fire and the time
// increment drawn for it.
type Event struct {
	Reaction   int     // index into the simulator's reaction slice
	Dt         float64 // time increment, always > 0
	Propensity float64 // propensity of the selected reaction
	Total      float64 // total propensity at selection
}

// selectReaction returns the first index j with target < Σ_{i≤j} a_i.
// If rounding leaves target at or beyond the last cumulative sum, the last
// reaction with non-zero propensity is returned. Returns -1 if all are zero.
func selectReaction(propensities []float64, target float64) int {
	last := -1
	var cum float64
	for j, a := range propensities {
		if a <= 0 {
			continue
		}
		cum += a
		last = j
		if target < cum {
			return j
		}
	}
	return last
}

// drawTimeStep returns −ln(r)/total for r ∈ (0, 1), redrawing r == 1 so the
// clock strictly advances.
func drawTimeStep(rng *KMCRandom, total float64) float64 {
	for {
		if dt := -math.Log(rng.Rand()) / total; dt > 0 {
			return dt
		}
	}
}

// nextEvent draws an Event from the current propensities.
// ok is false when the total propensity is zero (dead state).
func nextEvent(rng *KMCRandom, propensities []float64) (ev Event, ok bool) {
	var total float64
	for _, a := range propensities {
		total += a
	}
	if total <= 0 {
		return Event{}, false
	}

	j := selectReaction(propensities, rng.Rand()*total)
	return Event{
		Reaction:   j,
		Dt:         drawTimeStep(rng, total),
		Propensity: propensities[j],
		Total:      total,
	}, true
}
