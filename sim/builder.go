package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/polykmc/polykmc/sim/model"
	"github.com/polykmc/polykmc/sim/registry"
)

// unitPriority orders unit registration: monomers first, then initiators,
// then other units. Monomer IDs therefore precede every other ID.
func unitPriority(t string) int {
	switch registry.SpeciesType(t) {
	case registry.Monomer:
		return 0
	case registry.Initiator:
		return 1
	case registry.Unit:
		return 2
	case registry.Polymer:
		return 3
	}
	return 4
}

// BuildModel validates m, registers its species, derives initial counts and
// constructs the reactions, returning a simulator ready to Run.
// Every failure is a *ModelError or a wrapped validation error.
func BuildModel(m *model.Model, opts RunOptions) (*Simulator, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	cfg := SimulationConfig{
		NumParticles:    m.Parameters.NumUnits,
		TerminationTime: m.Parameters.TerminationTime,
		AnalysisTime:    m.Parameters.AnalysisTime,
	}

	reg, err := registerSpecies(m.Species)
	if err != nil {
		return nil, err
	}
	species, err := buildSpeciesSet(reg, m.Species, cfg.NumParticles)
	if err != nil {
		return nil, err
	}
	reactions, err := buildReactions(reg, species, m.RateConstants, m.Reactions)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Built model %q: %d species, %d reactions", m.Name, reg.Len(), len(reactions))

	return NewSimulator(cfg, opts, reg, species, reactions)
}

// registerSpecies registers units (by priority, stable), then polymer types,
// then labels. End-group units and label members must already be registered.
func registerSpecies(s model.Species) (*registry.Registry, error) {
	units := make([]model.Unit, len(s.Units))
	copy(units, s.Units)
	sort.SliceStable(units, func(i, j int) bool {
		return unitPriority(units[i].Type) < unitPriority(units[j].Type)
	})

	b := registry.NewBuilder()
	for _, u := range units {
		if _, err := b.RegisterNewSpecies(u.Name, registry.SpeciesType(u.Type)); err != nil {
			return nil, &ModelError{Section: "species", Name: u.Name, Err: err}
		}
	}

	for _, p := range s.Polymers {
		for _, name := range p.EndGroupUnits {
			sp, err := b.Species(name)
			if err != nil {
				return nil, &ModelError{Section: "species", Name: p.Name, Err: fmt.Errorf("end group: %w", err)}
			}
			if !sp.Type.IsUnitType() {
				return nil, &ModelError{Section: "species", Name: p.Name,
					Err: fmt.Errorf("end group member %q is %s, not a unit", name, sp.Type)}
			}
		}
		if _, err := b.RegisterNewSpecies(p.Name, registry.Polymer); err != nil {
			return nil, &ModelError{Section: "species", Name: p.Name, Err: err}
		}
	}

	for _, l := range s.Labels {
		for _, name := range l.PolymerNames {
			sp, err := b.Species(name)
			if err != nil {
				return nil, &ModelError{Section: "species", Name: l.Name, Err: fmt.Errorf("label member: %w", err)}
			}
			if sp.Type != registry.Polymer {
				return nil, &ModelError{Section: "species", Name: l.Name,
					Err: fmt.Errorf("label member %q is %s, not a polymer type", name, sp.Type)}
			}
		}
		if _, err := b.RegisterNewSpecies(l.Name, registry.Label); err != nil {
			return nil, &ModelError{Section: "species", Name: l.Name, Err: err}
		}
	}
	return b.Build(), nil
}

// buildSpeciesSet creates units, polymer types and containers in registry order.
// Each polymer type gets a container of its own; each label gets a container
// spanning its member types.
func buildSpeciesSet(reg *registry.Registry, s model.Species, numParticles uint64) (*SpeciesSet, error) {
	declared := make(map[string]model.Unit, len(s.Units))
	for _, u := range s.Units {
		declared[u.Name] = u
	}
	units := make([]*Unit, 0, reg.NumUnits())
	for _, id := range reg.UnitIDs() {
		sp, _ := reg.Species(id)
		u := declared[sp.Name]
		units = append(units, NewUnit(sp, u.C0, u.FW, u.EfficiencyOrDefault()))
	}

	types := make([]*PolymerType, 0, len(s.Polymers))
	byName := make(map[string]*PolymerType, len(s.Polymers))
	for _, p := range s.Polymers {
		sp, err := reg.SpeciesByName(p.Name)
		if err != nil {
			return nil, &ModelError{Section: "species", Name: p.Name, Err: err}
		}
		endGroup := make([]registry.SpeciesID, len(p.EndGroupUnits))
		for idx, name := range p.EndGroupUnits {
			unit, _ := reg.SpeciesByName(name)
			endGroup[idx] = unit.ID
		}
		t := NewPolymerType(sp, endGroup)
		types = append(types, t)
		byName[p.Name] = t
	}

	containers := make([]*PolymerContainer, 0, len(types)+len(s.Labels))
	for _, t := range types {
		containers = append(containers, NewPolymerContainer(t.RegisteredSpecies, []*PolymerType{t}))
	}
	for _, l := range s.Labels {
		sp, err := reg.SpeciesByName(l.Name)
		if err != nil {
			return nil, &ModelError{Section: "species", Name: l.Name, Err: err}
		}
		members := make([]*PolymerType, len(l.PolymerNames))
		for idx, name := range l.PolymerNames {
			members[idx] = byName[name]
		}
		containers = append(containers, NewPolymerContainer(sp, members))
	}

	return NewSpeciesSet(reg, units, types, containers, numParticles)
}

func buildReactions(reg *registry.Registry, species *SpeciesSet,
	rateConstants []model.RateConstant, defs []model.Reaction) ([]*Reaction, error) {

	rates := make(map[string]RateConstant, len(rateConstants))
	for _, k := range rateConstants {
		rates[k.Name] = RateConstant{Name: k.Name, Value: k.Value}
	}

	resolve := func(names []string) ([]SpeciesRef, error) {
		refs := make([]SpeciesRef, len(names))
		for idx, name := range names {
			sp, err := reg.SpeciesByName(name)
			if err != nil {
				return nil, err
			}
			if sp.Type.IsUnitType() {
				refs[idx] = SpeciesRef{Unit: species.Unit(sp.ID)}
			} else {
				refs[idx] = SpeciesRef{Poly: species.Container(sp.ID)}
			}
		}
		return refs, nil
	}

	reactions := make([]*Reaction, 0, len(defs))
	for _, def := range defs {
		kind := ReactionKind(def.Type)
		if !kind.IsValid() {
			return nil, &ModelError{Section: "reaction", Name: def.String(), Err: fmt.Errorf("%w %q", ErrUnknownReactionKind, def.Type)}
		}
		rate, ok := rates[def.RateConstant]
		if !ok {
			return nil, &ModelError{Section: "reaction", Name: def.String(), Err: fmt.Errorf("%w: %q", ErrUnknownRateConstant, def.RateConstant)}
		}
		reactants, err := resolve(def.Reactants)
		if err != nil {
			return nil, &ModelError{Section: "reaction", Name: def.String(), Err: err}
		}
		products, err := resolve(def.Products)
		if err != nil {
			return nil, &ModelError{Section: "reaction", Name: def.String(), Err: err}
		}
		r, err := NewReaction(kind, rate, reactants, products)
		if err != nil {
			return nil, &ModelError{Section: "reaction", Name: def.String(), Err: err}
		}
		logrus.Debugf("registered reaction %s", r)
		reactions = append(reactions, r)
	}
	return reactions, nil
}
