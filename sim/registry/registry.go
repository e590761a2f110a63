package registry

import "fmt"

// noIndex marks IDs absent from a derived index.
const noIndex = -1

// Registry is the finalized, immutable species table.
// Derived indices are dense slices keyed by SpeciesID so hot-loop lookups avoid maps.
type Registry struct {
	species []RegisteredSpecies // in registration order; species[i].ID == i+1
	byName  map[string]SpeciesID

	unitIDs      []SpeciesID
	unitNames    []string
	unitIndex    []int
	monomerIDs   []SpeciesID
	monomerNames []string
	monomerIndex []int

	polymerTypeNames []string
	polymerTypeIndex []int

	// Polymer containers are polymer types and labels, in registration order.
	containerNames []string
	containerIndex []int
}

func newRegistry(species []RegisteredSpecies) *Registry {
	n := len(species) + 1
	r := &Registry{
		species:          species,
		byName:           make(map[string]SpeciesID, len(species)),
		unitIndex:        filled(n),
		monomerIndex:     filled(n),
		polymerTypeIndex: filled(n),
		containerIndex:   filled(n),
	}
	for _, s := range species {
		r.byName[s.Name] = s.ID
		if s.Type.IsUnitType() {
			r.unitIndex[s.ID] = len(r.unitIDs)
			r.unitIDs = append(r.unitIDs, s.ID)
			r.unitNames = append(r.unitNames, s.Name)
		}
		if s.Type == Monomer {
			r.monomerIndex[s.ID] = len(r.monomerIDs)
			r.monomerIDs = append(r.monomerIDs, s.ID)
			r.monomerNames = append(r.monomerNames, s.Name)
		}
		if s.Type == Polymer {
			r.polymerTypeIndex[s.ID] = len(r.polymerTypeNames)
			r.polymerTypeNames = append(r.polymerTypeNames, s.Name)
		}
		if s.Type.IsPolymerType() {
			r.containerIndex[s.ID] = len(r.containerNames)
			r.containerNames = append(r.containerNames, s.Name)
		}
	}
	return r
}

func filled(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = noIndex
	}
	return idx
}

func (r *Registry) valid(id SpeciesID) bool {
	return id != UndefinedID && int(id) <= len(r.species)
}

// AllSpecies returns every registration in ID order.
func (r *Registry) AllSpecies() []RegisteredSpecies {
	return r.species
}

// Len returns the number of registered species.
func (r *Registry) Len() int {
	return len(r.species)
}

// Species returns the registration for id.
func (r *Registry) Species(id SpeciesID) (RegisteredSpecies, error) {
	if !r.valid(id) {
		return RegisteredSpecies{}, fmt.Errorf("%w: id %d", ErrUnregisteredSpecies, id)
	}
	return r.species[id-1], nil
}

// SpeciesByName returns the registration for name.
func (r *Registry) SpeciesByName(name string) (RegisteredSpecies, error) {
	id, ok := r.byName[name]
	if !ok {
		return RegisteredSpecies{}, fmt.Errorf("%w: %q", ErrUnregisteredSpecies, name)
	}
	return r.species[id-1], nil
}

// IsRegistered reports whether name is known.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Name returns the registered name of id, or "?" for unknown IDs.
func (r *Registry) Name(id SpeciesID) string {
	if !r.valid(id) {
		return string(Undefined)
	}
	return r.species[id-1].Name
}

// NamesOf returns the names of all species with the given type, in ID order.
func (r *Registry) NamesOf(t SpeciesType) []string {
	var names []string
	for _, s := range r.species {
		if s.Type == t {
			names = append(names, s.Name)
		}
	}
	return names
}

// UnitIDs returns unit-like species IDs (units, monomers, initiators) in ID order.
func (r *Registry) UnitIDs() []SpeciesID {
	return r.unitIDs
}

// UnitNames returns unit-like species names in ID order.
func (r *Registry) UnitNames() []string {
	return r.unitNames
}

// NumUnits returns the number of unit-like species.
func (r *Registry) NumUnits() int {
	return len(r.unitIDs)
}

// UnitIndex returns the dense unit index of id, or -1 if id is not a unit.
func (r *Registry) UnitIndex(id SpeciesID) int {
	if !r.valid(id) {
		return noIndex
	}
	return r.unitIndex[id]
}

// MonomerIDs returns monomer IDs in ID order.
func (r *Registry) MonomerIDs() []SpeciesID {
	return r.monomerIDs
}

// MonomerNames returns monomer names in ID order.
func (r *Registry) MonomerNames() []string {
	return r.monomerNames
}

// NumMonomers returns the number of registered monomers.
func (r *Registry) NumMonomers() int {
	return len(r.monomerIDs)
}

// IsMonomer reports whether id is registered with type Monomer.
func (r *Registry) IsMonomer(id SpeciesID) bool {
	return r.valid(id) && r.monomerIndex[id] != noIndex
}

// MonomerIndex returns the dense monomer index of id, or -1.
func (r *Registry) MonomerIndex(id SpeciesID) int {
	if !r.valid(id) {
		return noIndex
	}
	return r.monomerIndex[id]
}

// PolymerTypeNames returns the names of plain polymer types (no labels).
func (r *Registry) PolymerTypeNames() []string {
	return r.polymerTypeNames
}

// PolymerNames returns the names of all polymer containers (types and labels).
func (r *Registry) PolymerNames() []string {
	return r.containerNames
}

// PolymerIndex returns the dense polymer-container index of id, or -1.
func (r *Registry) PolymerIndex(id SpeciesID) int {
	if !r.valid(id) {
		return noIndex
	}
	return r.containerIndex[id]
}
