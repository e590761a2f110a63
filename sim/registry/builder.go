package registry

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Builder collects species registrations during the build phase.
// Not thread-safe.
type Builder struct {
	finalized bool
	species   []RegisteredSpecies
	byName    map[string]int
}

// NewBuilder returns an empty, open Builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]int)}
}

// RegisterNewSpecies assigns the next sequential ID to name.
// Fails if the builder is finalized, the type is invalid, or the name is taken.
func (b *Builder) RegisterNewSpecies(name string, t SpeciesType) (SpeciesID, error) {
	if b.finalized {
		return UndefinedID, fmt.Errorf("%w: %q", ErrRegistryFinalized, name)
	}
	if err := CheckType(t); err != nil {
		return UndefinedID, fmt.Errorf("species %q: %w", name, err)
	}
	if _, ok := b.byName[name]; ok {
		return UndefinedID, fmt.Errorf("%w: %q", ErrDuplicateSpecies, name)
	}
	if len(b.species) >= math.MaxUint16 {
		return UndefinedID, fmt.Errorf("%w: %q", ErrRegistryFull, name)
	}

	id := SpeciesID(len(b.species) + 1)
	b.byName[name] = len(b.species)
	b.species = append(b.species, RegisteredSpecies{ID: id, Name: name, Type: t})
	logrus.Debugf("registered species %s (%s) as %d", name, t, id)
	return id, nil
}

// IsRegistered reports whether name has been registered.
func (b *Builder) IsRegistered(name string) bool {
	_, ok := b.byName[name]
	return ok
}

// Species returns the registration for name.
func (b *Builder) Species(name string) (RegisteredSpecies, error) {
	idx, ok := b.byName[name]
	if !ok {
		return RegisteredSpecies{}, fmt.Errorf("%w: %q", ErrUnregisteredSpecies, name)
	}
	return b.species[idx], nil
}

// SpeciesID returns the ID registered for name.
func (b *Builder) SpeciesID(name string) (SpeciesID, error) {
	s, err := b.Species(name)
	if err != nil {
		return UndefinedID, err
	}
	return s.ID, nil
}

// Finalized reports whether Build has been called.
func (b *Builder) Finalized() bool {
	return b.finalized
}

// Build finalizes the builder and returns the immutable Registry.
// Subsequent RegisterNewSpecies calls fail with ErrRegistryFinalized.
func (b *Builder) Build() *Registry {
	b.finalized = true
	species := make([]RegisteredSpecies, len(b.species))
	copy(species, b.species)
	return newRegistry(species)
}
