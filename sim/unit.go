package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/polykmc/polykmc/sim/registry"
)

// maxRoundingError is the largest tolerated relative error of the
// concentration → count conversion.
const maxRoundingError = 0.10

// Unit is a non-distributed species (monomer, initiator, radical fragment, ...)
// tracked only by its molecule count.
type Unit struct {
	registry.RegisteredSpecies

	Count      uint64  // live molecule count, mutated by reactions
	C0         float64 // initial concentration
	FW         float64 // formula weight
	Efficiency float64 // probability that a decomposition product forms (initiators)

	initCount uint64
}

// NewUnit creates a unit with zero counts.
func NewUnit(s registry.RegisteredSpecies, c0, fw, efficiency float64) *Unit {
	return &Unit{RegisteredSpecies: s, C0: c0, FW: fw, Efficiency: efficiency}
}

// SetInitialCount sets both the initial and the live count.
func (u *Unit) SetInitialCount(n uint64) {
	u.initCount = n
	u.Count = n
}

// InitialCount returns the count set by SetInitialCount.
func (u *Unit) InitialCount() uint64 {
	return u.initCount
}

// Conversion returns the consumed fraction of the initial count.
// Negative for species that are produced; 0 when the initial count is 0.
func (u *Unit) Conversion() float64 {
	if u.initCount == 0 {
		return 0
	}
	return (float64(u.initCount) - float64(u.Count)) / float64(u.initCount)
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s (%d): %d / %d", u.Name, u.ID, u.Count, u.initCount)
}

// InitialCountFor converts the concentration c0 into a particle count using nav.
// Amounts in (0, 1) are forced to one particle with a warning. Larger amounts
// whose truncation error exceeds 10% return ErrRoundingError.
func InitialCountFor(name string, c0, nav float64) (uint64, error) {
	amount := c0 * nav
	if amount <= 0 {
		return 0, nil
	}
	if amount < 1 {
		logrus.Warnf("Initial amount of %s is less than 1 (%f). Setting initial count to 1.", name, amount)
		return 1, nil
	}

	count := uint64(amount)
	roundingError := math.Abs((amount - float64(count)) / amount)
	if roundingError > maxRoundingError {
		return 0, fmt.Errorf("%w: %s has %.2f%%; increase num_units", ErrRoundingError, name, roundingError*100)
	}
	return count, nil
}
