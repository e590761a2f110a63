package sim

import (
	"errors"
	"fmt"
)

// Build-phase errors. Returned wrapped in *ModelError.
var (
	// ErrRoundingError indicates an initial count that misrepresents its concentration by more than 10%.
	ErrRoundingError = errors.New("sim: initial count rounding error exceeds 10%")

	// ErrZeroTotalConcentration indicates no unit has a positive initial concentration.
	ErrZeroTotalConcentration = errors.New("sim: total initial concentration is zero")

	// ErrSchemaMismatch indicates reactants or products that violate a reaction schema.
	ErrSchemaMismatch = errors.New("sim: reaction species do not match schema")

	// ErrUnknownReactionKind indicates a reaction tag outside the supported set.
	ErrUnknownReactionKind = errors.New("sim: unknown reaction type")

	// ErrUnknownRateConstant indicates a reaction referencing an undeclared rate constant.
	ErrUnknownRateConstant = errors.New("sim: rate constant not declared")
)

// Runtime invariant errors. Returned wrapped in *SimulationError.
var (
	// ErrZeroCountReactant indicates a fired reaction whose reactant count was already zero.
	ErrZeroCountReactant = errors.New("sim: reactant count is zero")

	// ErrEndGroupMismatch indicates a chain whose terminus matches no polymer type of its container.
	ErrEndGroupMismatch = errors.New("sim: polymer end group matches no polymer type")

	// ErrZeroPropensity indicates the selector picked a reaction with zero propensity.
	ErrZeroPropensity = errors.New("sim: selected reaction has zero propensity")

	// ErrCompressedPolymer indicates a sequence mutation on a compressed chain.
	ErrCompressedPolymer = errors.New("sim: polymer is compressed")

	// ErrEmptyPolymer indicates a unit removal from a chain with no units.
	ErrEmptyPolymer = errors.New("sim: polymer has no units")
)

// ModelError reports an invalid model definition found while building a simulator.
type ModelError struct {
	Section string // "species", "rate constant", "reaction", "parameters"
	Name    string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Section, e.Name, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// SimulationError wraps a runtime invariant violation with the step it occurred at.
// The simulator state is not usable after one is returned.
type SimulationError struct {
	Iteration uint64
	Time      float64
	Reaction  string
	Err       error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("iteration %d (t=%g) firing %s: %v", e.Iteration, e.Time, e.Reaction, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}
