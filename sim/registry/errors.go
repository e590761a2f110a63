package registry

import "errors"

var (
	// ErrRegistryFinalized is returned when registering after Build().
	ErrRegistryFinalized = errors.New("registry: cannot register species after finalization")

	// ErrInvalidSpeciesType is returned for a type outside the enumerated set.
	ErrInvalidSpeciesType = errors.New("registry: invalid species type")

	// ErrDuplicateSpecies is returned when a name is registered twice.
	ErrDuplicateSpecies = errors.New("registry: species already registered")

	// ErrUnregisteredSpecies is returned by lookups for unknown names or IDs.
	ErrUnregisteredSpecies = errors.New("registry: species not registered")

	// ErrRegistryFull is returned when the ID space is exhausted.
	ErrRegistryFull = errors.New("registry: species ID space exhausted")
)
