package sim

import (
	"fmt"
	"strings"

	"github.com/polykmc/polykmc/sim/analysis"
	"github.com/polykmc/polykmc/sim/registry"
)

// RateConstant is a named kinetic rate constant.
type RateConstant struct {
	Name  string
	Value float64
}

// SpeciesRef points a reaction slot at a unit or a polymer container.
// Exactly one of Unit and Poly is set.
type SpeciesRef struct {
	Unit *Unit
	Poly *PolymerContainer
}

// Species returns the registered identity behind the reference.
func (r SpeciesRef) Species() registry.RegisteredSpecies {
	if r.Unit != nil {
		return r.Unit.RegisteredSpecies
	}
	return r.Poly.RegisteredSpecies
}

// Count returns the live count of the referenced species.
func (r SpeciesRef) Count() uint64 {
	if r.Unit != nil {
		return r.Unit.Count
	}
	return r.Poly.Count
}

// FireContext carries the state a reaction mutates beyond its own species.
type FireContext struct {
	Arena *PolymerArena
	RNG   *KMCRandom

	// CompressTerminated compresses terminated chains right after they are
	// placed in a product container that no reaction draws from.
	CompressTerminated bool
	NumBuckets         int
	Monomers           analysis.Monomers
}

// insert places id in c and compresses it when it is terminated.
func (fc *FireContext) insert(c *PolymerContainer, id PolymerID) error {
	if err := c.InsertPolymer(fc.Arena, id); err != nil {
		return err
	}
	if p := fc.Arena.Get(id); fc.CompressTerminated && p.State().IsTerminated() && !c.Reactive() {
		p.Compress(fc.NumBuckets, fc.Monomers)
	}
	return nil
}

// Reaction is one kinetic step. Kind selects both the rate law and the
// mutation applied by React.
type Reaction struct {
	Kind      ReactionKind
	Rate      RateConstant
	Reactants []SpeciesRef
	Products  []SpeciesRef

	// need[i] is the number of slots naming the unit in Reactants[i].
	need []uint64
	// shared lists the polymer types both termination reactants draw from.
	shared []*PolymerType
	label  string
}

// NewReaction validates the species against the schema of kind.
func NewReaction(kind ReactionKind, rate RateConstant, reactants, products []SpeciesRef) (*Reaction, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(identities(reactants), identities(products)); err != nil {
		return nil, err
	}

	r := &Reaction{Kind: kind, Rate: rate, Reactants: reactants, Products: products}
	r.need = make([]uint64, len(reactants))
	for idx, ref := range reactants {
		if ref.Poly != nil {
			ref.Poly.markReactive()
			continue
		}
		for _, other := range reactants {
			if other.Unit == ref.Unit {
				r.need[idx]++
			}
		}
	}
	if kind == TerminationCombination || kind == TerminationDisproportionation {
		r.shared = sharedTypes(reactants[0].Poly, reactants[1].Poly)
	}
	r.label = r.format()
	return r, nil
}

func sharedTypes(a, b *PolymerContainer) []*PolymerType {
	var out []*PolymerType
	for _, t := range a.types {
		if b.holds(t) {
			out = append(out, t)
		}
	}
	return out
}

func identities(refs []SpeciesRef) []registry.RegisteredSpecies {
	out := make([]registry.RegisteredSpecies, len(refs))
	for idx, ref := range refs {
		out[idx] = ref.Species()
	}
	return out
}

// SameReactant reports whether both termination reactants are one container.
func (r *Reaction) SameReactant() bool {
	return len(r.Reactants) == 2 && r.Reactants[0].Poly != nil && r.Reactants[0].Poly == r.Reactants[1].Poly
}

// overlap counts the chains both termination reactants could draw.
func (r *Reaction) overlap() float64 {
	var n uint64
	for _, t := range r.shared {
		n += t.Count
	}
	return float64(n)
}

// CalculateRate returns the propensity of the reaction for the current counts.
func (r *Reaction) CalculateRate(nav float64) float64 {
	k := r.Rate.Value
	c := func(idx int) float64 { return float64(r.Reactants[idx].Count()) }
	for idx, ref := range r.Reactants {
		if ref.Unit != nil && ref.Unit.Count < r.need[idx] {
			return 0
		}
	}

	switch r.Kind {
	case Elementary:
		rate := k
		for idx := range r.Reactants {
			rate *= c(idx)
		}
		return rate
	case InitiatorDecomposition, InitiatorDecompositionPolymer, Depropagation:
		return k * c(0)
	case Initiation, Propagation, ChainTransferToMonomer:
		return k * c(0) * c(1) / nav
	case TerminationDisproportionation, TerminationCombination:
		// A chain cannot react with itself: pairs drawing one chain twice are excluded.
		pairs := c(0)*c(1) - r.overlap()
		if pairs <= 0 {
			return 0
		}
		return k * pairs / nav
	case ThermalInitiationMonomer:
		m := c(0)
		return k * m * m * m / nav
	}
	return 0
}

// React applies the reaction's mutation. It fails with ErrZeroCountReactant
// instead of decrementing a zero count; any error leaves the run unusable.
func (r *Reaction) React(fc *FireContext) error {
	switch r.Kind {
	case Elementary:
		return r.reactElementary()
	case InitiatorDecomposition:
		return r.reactInitiatorDecomposition(fc)
	case InitiatorDecompositionPolymer:
		return r.reactInitiatorDecompositionPolymer(fc)
	case Initiation:
		return r.reactInitiation(fc)
	case Propagation:
		return r.reactPropagation(fc)
	case Depropagation:
		return r.reactDepropagation(fc)
	case TerminationDisproportionation:
		return r.reactTerminationDisproportionation(fc)
	case TerminationCombination:
		return r.reactTerminationCombination(fc)
	case ChainTransferToMonomer:
		return r.reactChainTransferToMonomer(fc)
	case ThermalInitiationMonomer:
		return r.reactThermalInitiation(fc)
	}
	return fmt.Errorf("%w %q", ErrUnknownReactionKind, r.Kind)
}

// consumeUnits decrements every unit in refs, checking first that each unit
// has enough molecules for all of its occurrences.
func consumeUnits(refs ...SpeciesRef) error {
	for idx, ref := range refs {
		var need uint64
		for _, other := range refs[:idx+1] {
			if other.Unit == ref.Unit {
				need++
			}
		}
		if ref.Unit.Count < need {
			return fmt.Errorf("%w: %s", ErrZeroCountReactant, ref.Unit.Name)
		}
	}
	for _, ref := range refs {
		ref.Unit.Count--
	}
	return nil
}

// newChain creates a live chain started by first and extended by rest.
func newChain(fc *FireContext, first registry.SpeciesID, rest ...registry.SpeciesID) (PolymerID, error) {
	id := fc.Arena.New()
	p := fc.Arena.Get(id)
	if err := p.Initiate(first); err != nil {
		return 0, err
	}
	for _, unit := range rest {
		if err := p.AddUnitToEnd(unit); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *Reaction) reactElementary() error {
	if err := consumeUnits(r.Reactants...); err != nil {
		return err
	}
	for _, ref := range r.Products {
		ref.Unit.Count++
	}
	return nil
}

// Each product radical forms independently with probability equal to the
// initiator efficiency.
func (r *Reaction) reactInitiatorDecomposition(fc *FireContext) error {
	initiator := r.Reactants[0].Unit
	if err := consumeUnits(r.Reactants[0]); err != nil {
		return err
	}
	for _, ref := range r.Products {
		if fc.RNG.Rand() <= initiator.Efficiency {
			ref.Unit.Count++
		}
	}
	return nil
}

func (r *Reaction) reactInitiatorDecompositionPolymer(fc *FireContext) error {
	initiator := r.Reactants[0].Unit
	if err := consumeUnits(r.Reactants[0]); err != nil {
		return err
	}
	for _, ref := range r.Products {
		if fc.RNG.Rand() > initiator.Efficiency {
			continue
		}
		id, err := newChain(fc, initiator.ID)
		if err != nil {
			return err
		}
		if err := fc.insert(ref.Poly, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reaction) reactInitiation(fc *FireContext) error {
	initiator, mon := r.Reactants[0].Unit, r.Reactants[1].Unit
	if err := consumeUnits(r.Reactants...); err != nil {
		return err
	}
	id, err := newChain(fc, initiator.ID, mon.ID)
	if err != nil {
		return err
	}
	return fc.insert(r.Products[0].Poly, id)
}

func (r *Reaction) reactPropagation(fc *FireContext) error {
	mon := r.Reactants[1].Unit
	if mon.Count == 0 {
		return fmt.Errorf("%w: %s", ErrZeroCountReactant, mon.Name)
	}
	id, err := r.Reactants[0].Poly.RemoveRandomPolymer(fc.RNG)
	if err != nil {
		return err
	}
	mon.Count--
	if err := fc.Arena.Get(id).AddUnitToEnd(mon.ID); err != nil {
		return err
	}
	return fc.insert(r.Products[0].Poly, id)
}

func (r *Reaction) reactDepropagation(fc *FireContext) error {
	id, err := r.Reactants[0].Poly.RemoveRandomPolymer(fc.RNG)
	if err != nil {
		return err
	}
	if _, err := fc.Arena.Get(id).RemoveUnitFromEnd(); err != nil {
		return err
	}
	if err := fc.insert(r.Products[0].Poly, id); err != nil {
		return err
	}
	r.Products[1].Unit.Count++
	return nil
}

// removePair draws two distinct chains. When the containers share types the
// first chain is weighted by how many partners remain for it in the second.
func (r *Reaction) removePair(fc *FireContext) (PolymerID, PolymerID, error) {
	first := r.Reactants[0].Poly
	var id1 PolymerID
	var err error
	if len(r.shared) > 0 && !r.SameReactant() {
		id1, err = first.removeRandomPolymerPaired(fc.RNG, r.Reactants[1].Poly)
	} else {
		id1, err = first.RemoveRandomPolymer(fc.RNG)
	}
	if err != nil {
		return 0, 0, err
	}
	id2, err := r.Reactants[1].Poly.RemoveRandomPolymer(fc.RNG)
	if err != nil {
		return 0, 0, err
	}
	return id1, id2, nil
}

func (r *Reaction) reactTerminationDisproportionation(fc *FireContext) error {
	id1, id2, err := r.removePair(fc)
	if err != nil {
		return err
	}
	fc.Arena.Get(id1).TerminateByDisproportionation()
	fc.Arena.Get(id2).TerminateByDisproportionation()
	if err := fc.insert(r.Products[0].Poly, id1); err != nil {
		return err
	}
	return fc.insert(r.Products[1].Poly, id2)
}

func (r *Reaction) reactTerminationCombination(fc *FireContext) error {
	id1, id2, err := r.removePair(fc)
	if err != nil {
		return err
	}
	if err := fc.Arena.Get(id1).TerminateByCombination(fc.Arena.Get(id2)); err != nil {
		return err
	}
	fc.Arena.Release(id2)
	return fc.insert(r.Products[0].Poly, id1)
}

// The terminated chain keeps its units; the new radical is a single monomer.
func (r *Reaction) reactChainTransferToMonomer(fc *FireContext) error {
	mon := r.Reactants[1].Unit
	if mon.Count == 0 {
		return fmt.Errorf("%w: %s", ErrZeroCountReactant, mon.Name)
	}
	id, err := r.Reactants[0].Poly.RemoveRandomPolymer(fc.RNG)
	if err != nil {
		return err
	}
	fc.Arena.Get(id).TerminateByChainTransfer()
	if err := fc.insert(r.Products[0].Poly, id); err != nil {
		return err
	}

	mon.Count--
	radical, err := newChain(fc, mon.ID)
	if err != nil {
		return err
	}
	return fc.insert(r.Products[1].Poly, radical)
}

// Three monomers form a dimer radical and a monomer radical.
func (r *Reaction) reactThermalInitiation(fc *FireContext) error {
	if err := consumeUnits(r.Reactants...); err != nil {
		return err
	}
	dimer, err := newChain(fc, r.Reactants[0].Unit.ID, r.Reactants[1].Unit.ID)
	if err != nil {
		return err
	}
	if err := fc.insert(r.Products[0].Poly, dimer); err != nil {
		return err
	}
	single, err := newChain(fc, r.Reactants[2].Unit.ID)
	if err != nil {
		return err
	}
	return fc.insert(r.Products[1].Poly, single)
}

// String renders the reaction as "PR: P + M -kp-> P".
func (r *Reaction) String() string {
	return r.label
}

func (r *Reaction) format() string {
	names := func(refs []SpeciesRef) string {
		parts := make([]string, len(refs))
		for idx, ref := range refs {
			parts[idx] = ref.Species().Name
		}
		return strings.Join(parts, " + ")
	}
	return fmt.Sprintf("%s: %s -%s-> %s", r.Kind, names(r.Reactants), r.Rate.Name, names(r.Products))
}
