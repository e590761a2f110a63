package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/polykmc/polykmc/sim/analysis"
	"github.com/polykmc/polykmc/sim/registry"
)

// SpeciesSet owns every unit, polymer type and polymer container of a run,
// together with the arena holding the chains.
type SpeciesSet struct {
	reg          *registry.Registry
	units        []*Unit             // registry unit order
	polymerTypes []*PolymerType      // registry polymer-type order
	containers   []*PolymerContainer // registry polymer-container order
	arena        *PolymerArena

	numParticles uint64
	nav          float64
}

// NewSpeciesSet derives NAV from the total initial concentration and sets every
// unit's initial count. units, polymerTypes and containers must be in registry order.
func NewSpeciesSet(reg *registry.Registry, units []*Unit, polymerTypes []*PolymerType,
	containers []*PolymerContainer, numParticles uint64) (*SpeciesSet, error) {

	var totalC0 float64
	for _, u := range units {
		totalC0 += u.C0
	}
	if totalC0 <= 0 {
		return nil, &ModelError{Section: "species", Err: ErrZeroTotalConcentration}
	}
	nav := float64(numParticles) / totalC0

	for _, u := range units {
		n, err := InitialCountFor(u.Name, u.C0, nav)
		if err != nil {
			return nil, &ModelError{Section: "species", Name: u.Name, Err: err}
		}
		u.SetInitialCount(n)
	}

	s := &SpeciesSet{
		reg:          reg,
		units:        units,
		polymerTypes: polymerTypes,
		containers:   containers,
		arena:        NewPolymerArena(),
		numParticles: numParticles,
		nav:          nav,
	}
	s.logSummary()
	return s, nil
}

// NAV returns numParticles / Σ C0.
func (s *SpeciesSet) NAV() float64 {
	return s.nav
}

func (s *SpeciesSet) NumParticles() uint64 {
	return s.numParticles
}

// Units returns the units in registry unit order.
func (s *SpeciesSet) Units() []*Unit {
	return s.units
}

// Unit returns the unit registered as id, or nil.
func (s *SpeciesSet) Unit(id registry.SpeciesID) *Unit {
	idx := s.reg.UnitIndex(id)
	if idx < 0 {
		return nil
	}
	return s.units[idx]
}

// PolymerTypes returns the polymer types in registry order.
func (s *SpeciesSet) PolymerTypes() []*PolymerType {
	return s.polymerTypes
}

// Containers returns the polymer containers in registry order.
func (s *SpeciesSet) Containers() []*PolymerContainer {
	return s.containers
}

// Container returns the container registered as id, or nil.
func (s *SpeciesSet) Container(id registry.SpeciesID) *PolymerContainer {
	idx := s.reg.PolymerIndex(id)
	if idx < 0 {
		return nil
	}
	return s.containers[idx]
}

// Arena returns the chain arena.
func (s *SpeciesSet) Arena() *PolymerArena {
	return s.arena
}

// UpdatePolymerContainers resynchronizes every container with its member types.
func (s *SpeciesSet) UpdatePolymerContainers() {
	for _, c := range s.containers {
		c.UpdatePolymerCounts()
	}
}

// MonomerConversion returns Σ(init − count) / Σ init over monomers.
func (s *SpeciesSet) MonomerConversion() float64 {
	var num, den float64
	for _, id := range s.reg.MonomerIDs() {
		u := s.Unit(id)
		num += float64(u.InitialCount()) - float64(u.Count)
		den += float64(u.InitialCount())
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// State returns counts and conversions. Containers must be up to date.
func (s *SpeciesSet) State() SpeciesState {
	st := SpeciesState{
		UnitConversions:   make([]float64, len(s.units)),
		UnitCounts:        make([]uint64, len(s.units)),
		PolymerCounts:     make([]uint64, len(s.containers)),
		MonomerConversion: s.MonomerConversion(),
	}
	for i, u := range s.units {
		st.UnitConversions[i] = u.Conversion()
		st.UnitCounts[i] = u.Count
	}
	for i, c := range s.containers {
		st.PolymerCounts[i] = c.Count
	}
	return st
}

// Polymers returns every live chain ID, grouped by polymer type.
// Chains in several containers are listed once.
func (s *SpeciesSet) Polymers() []PolymerID {
	var n uint64
	for _, t := range s.polymerTypes {
		n += t.Count
	}
	ids := make([]PolymerID, 0, n)
	for _, t := range s.polymerTypes {
		ids = append(ids, t.Polymers()...)
	}
	return ids
}

// RawSequenceData collects raw sequences and precomputed stats of all live chains.
func (s *SpeciesSet) RawSequenceData() *analysis.RawSequenceData {
	ids := s.Polymers()
	data := analysis.NewRawSequenceData(len(ids))
	for _, id := range ids {
		p := s.arena.Get(id)
		if p.IsCompressed() {
			data.Precomputed = append(data.Precomputed, p.PositionalStats())
		} else {
			data.Sequences = append(data.Sequences, p.Sequence())
		}
	}
	return data
}

// MonomerFWs returns monomer formula weights in registry monomer order.
func (s *SpeciesSet) MonomerFWs() []float64 {
	fws := make([]float64, 0, s.reg.NumMonomers())
	for _, id := range s.reg.MonomerIDs() {
		fws = append(fws, s.Unit(id).FW)
	}
	return fws
}

func (s *SpeciesSet) logSummary() {
	logrus.Infof("NAV = %g (%d particles)", s.nav, s.numParticles)
	for _, u := range s.units {
		logrus.Infof("  unit %s", u)
	}
	for _, c := range s.containers {
		logrus.Infof("  polymer %s", c)
	}
}
