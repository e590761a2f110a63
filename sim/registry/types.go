// Package registry assigns stable integer identities to named chemical species
// (units, polymer types, polymer labels) and provides dense, O(1) lookups by ID.
//
// A Builder accumulates registrations during the build phase; Build() finalizes it
// into an immutable Registry. There is no process-wide instance: callers thread the
// *Registry through the simulator and analysis explicitly.
package registry

import (
	"fmt"
	"strings"
)

// SpeciesID identifies a registered species. IDs are assigned sequentially from 1;
// the zero value is reserved for "no species".
type SpeciesID uint16

// UndefinedID is never assigned to a registered species.
const UndefinedID SpeciesID = 0

// SpeciesType classifies a registered species.
type SpeciesType string

const (
	Unit      SpeciesType = "U"
	Monomer   SpeciesType = "M"
	Initiator SpeciesType = "I"
	Polymer   SpeciesType = "P"
	Label     SpeciesType = "LABEL"
	Undefined SpeciesType = "?"
)

// validTypes lists accepted species types in display order.
var validTypes = []SpeciesType{Unit, Monomer, Initiator, Polymer, Undefined, Label}

// IsValid reports whether t is one of the enumerated species types.
func (t SpeciesType) IsValid() bool {
	for _, v := range validTypes {
		if t == v {
			return true
		}
	}
	return false
}

// IsUnitType reports whether t is a non-distributed species (unit, monomer, initiator).
func (t SpeciesType) IsUnitType() bool {
	return t == Unit || t == Monomer || t == Initiator
}

// IsPolymerType reports whether t is a polymer container (polymer type or label).
func (t SpeciesType) IsPolymerType() bool {
	return t == Polymer || t == Label
}

// ValidTypesString returns the accepted species types for error messages.
func ValidTypesString() string {
	names := make([]string, len(validTypes))
	for i, v := range validTypes {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// CheckType returns ErrInvalidSpeciesType wrapped with the offending value.
func CheckType(t SpeciesType) error {
	if !t.IsValid() {
		return fmt.Errorf("%w %q; valid types: %s", ErrInvalidSpeciesType, t, ValidTypesString())
	}
	return nil
}

// RegisteredSpecies is the immutable identity of a species.
type RegisteredSpecies struct {
	ID   SpeciesID   `yaml:"id"`
	Name string      `yaml:"name"`
	Type SpeciesType `yaml:"type"`
}
