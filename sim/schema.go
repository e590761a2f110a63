package sim

import (
	"fmt"
	"strings"

	"github.com/polykmc/polykmc/sim/registry"
)

// ReactionKind tags one of the supported kinetic mechanisms.
type ReactionKind string

const (
	Elementary                    ReactionKind = "EL"
	InitiatorDecomposition        ReactionKind = "ID"
	InitiatorDecompositionPolymer ReactionKind = "IDP"
	Initiation                    ReactionKind = "IN"
	Propagation                   ReactionKind = "PR"
	Depropagation                 ReactionKind = "DP"
	TerminationDisproportionation ReactionKind = "TD"
	TerminationCombination        ReactionKind = "TC"
	ChainTransferToMonomer        ReactionKind = "CTM"
	ThermalInitiationMonomer      ReactionKind = "TIM"
)

// ReactionSchema is the static reactant/product type contract of a kind.
type ReactionSchema struct {
	Kind          ReactionKind
	ReactantTypes []registry.SpeciesType
	ProductTypes  []registry.SpeciesType
}

const (
	unitSlot      = registry.Unit
	initiatorSlot = registry.Initiator
	polymerSlot   = registry.Polymer
)

var schemas = map[ReactionKind]ReactionSchema{
	Elementary:                    {Elementary, nil, nil},
	InitiatorDecomposition:        {InitiatorDecomposition, slots(initiatorSlot), slots(unitSlot, unitSlot)},
	InitiatorDecompositionPolymer: {InitiatorDecompositionPolymer, slots(initiatorSlot), slots(polymerSlot, polymerSlot)},
	Initiation:                    {Initiation, slots(unitSlot, unitSlot), slots(polymerSlot)},
	Propagation:                   {Propagation, slots(polymerSlot, unitSlot), slots(polymerSlot)},
	Depropagation:                 {Depropagation, slots(polymerSlot), slots(polymerSlot, unitSlot)},
	TerminationDisproportionation: {TerminationDisproportionation, slots(polymerSlot, polymerSlot), slots(polymerSlot, polymerSlot)},
	TerminationCombination:        {TerminationCombination, slots(polymerSlot, polymerSlot), slots(polymerSlot)},
	ChainTransferToMonomer:        {ChainTransferToMonomer, slots(polymerSlot, unitSlot), slots(polymerSlot, polymerSlot)},
	ThermalInitiationMonomer:      {ThermalInitiationMonomer, slots(unitSlot, unitSlot, unitSlot), slots(polymerSlot, polymerSlot)},
}

func slots(types ...registry.SpeciesType) []registry.SpeciesType {
	return types
}

// ValidReactionKinds lists accepted reaction tags in declaration order.
var ValidReactionKinds = []ReactionKind{
	Elementary, InitiatorDecomposition, InitiatorDecompositionPolymer, Initiation, Propagation,
	Depropagation, TerminationDisproportionation, TerminationCombination,
	ChainTransferToMonomer, ThermalInitiationMonomer,
}

// IsValid reports whether k is a supported reaction tag.
func (k ReactionKind) IsValid() bool {
	_, ok := schemas[k]
	return ok
}

// SchemaFor returns the schema of kind.
func SchemaFor(kind ReactionKind) (ReactionSchema, error) {
	s, ok := schemas[kind]
	if !ok {
		return ReactionSchema{}, fmt.Errorf("%w %q", ErrUnknownReactionKind, kind)
	}
	return s, nil
}

// Validate checks arity and per-slot types. A generic unit slot accepts any
// unit-like species and a generic polymer slot accepts polymer types and labels.
// Elementary reactions accept any number of unit species.
func (s ReactionSchema) Validate(reactants, products []registry.RegisteredSpecies) error {
	if s.Kind == Elementary {
		for _, sp := range append(append([]registry.RegisteredSpecies{}, reactants...), products...) {
			if !sp.Type.IsUnitType() {
				return fmt.Errorf("%w: %s accepts only units, got %s (%s)", ErrSchemaMismatch, s.Kind, sp.Name, sp.Type)
			}
		}
		return nil
	}

	if len(reactants) != len(s.ReactantTypes) {
		return fmt.Errorf("%w: %s expects %d reactants, got %d", ErrSchemaMismatch, s.Kind, len(s.ReactantTypes), len(reactants))
	}
	if len(products) != len(s.ProductTypes) {
		return fmt.Errorf("%w: %s expects %d products, got %d", ErrSchemaMismatch, s.Kind, len(s.ProductTypes), len(products))
	}
	for idx, sp := range reactants {
		if !typesMatch(s.ReactantTypes[idx], sp.Type) {
			return fmt.Errorf("%w: %s reactant %d (%s) must be %s, got %s",
				ErrSchemaMismatch, s.Kind, idx, sp.Name, s.ReactantTypes[idx], sp.Type)
		}
	}
	for idx, sp := range products {
		if !typesMatch(s.ProductTypes[idx], sp.Type) {
			return fmt.Errorf("%w: %s product %d (%s) must be %s, got %s",
				ErrSchemaMismatch, s.Kind, idx, sp.Name, s.ProductTypes[idx], sp.Type)
		}
	}
	return nil
}

func typesMatch(expected, actual registry.SpeciesType) bool {
	switch {
	case expected == actual:
		return true
	case expected == registry.Unit:
		return actual.IsUnitType()
	case expected == registry.Polymer:
		return actual.IsPolymerType()
	}
	return false
}

func (s ReactionSchema) String() string {
	join := func(types []registry.SpeciesType) string {
		names := make([]string, len(types))
		for idx, t := range types {
			names[idx] = string(t)
		}
		return strings.Join(names, " + ")
	}
	return fmt.Sprintf("%s: %s --> %s", s.Kind, join(s.ReactantTypes), join(s.ProductTypes))
}
