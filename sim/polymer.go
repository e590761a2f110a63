package sim

import (
	"fmt"

	"github.com/polykmc/polykmc/sim/analysis"
	"github.com/polykmc/polykmc/sim/registry"
)

// PolymerState is the lifecycle state of a chain.
type PolymerState uint8

// TerminatedD, TerminatedC and TerminatedCT record how the chain died:
// disproportionation, combination or chain transfer.
const (
	Uninitiated PolymerState = iota
	Alive
	TerminatedD
	TerminatedC
	TerminatedCT
)

var polymerStateNames = [...]string{"UNINITIATED", "ALIVE", "TERMINATED_D", "TERMINATED_C", "TERMINATED_CT"}

func (s PolymerState) String() string {
	if int(s) < len(polymerStateNames) {
		return polymerStateNames[s]
	}
	return fmt.Sprintf("PolymerState(%d)", s)
}

// IsTerminated reports whether s is one of the terminated states.
func (s PolymerState) IsTerminated() bool {
	return s == TerminatedD || s == TerminatedC || s == TerminatedCT
}

// Polymer is one physical chain: the ordered unit IDs added to it and its state.
// A compressed chain keeps only its positional sequence stats and length.
type Polymer struct {
	sequence   []registry.SpeciesID
	state      PolymerState
	compressed bool
	length     int
	positional analysis.PositionalStats
}

// Initiate starts a chain with the given end-group unit and marks it alive.
func (p *Polymer) Initiate(id registry.SpeciesID) error {
	if err := p.AddUnitToEnd(id); err != nil {
		return err
	}
	p.state = Alive
	return nil
}

// AddUnitToEnd appends id to the chain.
func (p *Polymer) AddUnitToEnd(id registry.SpeciesID) error {
	if p.compressed {
		return ErrCompressedPolymer
	}
	p.sequence = append(p.sequence, id)
	return nil
}

// RemoveUnitFromEnd pops the last unit of the chain.
func (p *Polymer) RemoveUnitFromEnd() (registry.SpeciesID, error) {
	if p.compressed {
		return registry.UndefinedID, ErrCompressedPolymer
	}
	n := len(p.sequence)
	if n == 0 {
		return registry.UndefinedID, ErrEmptyPolymer
	}
	id := p.sequence[n-1]
	p.sequence = p.sequence[:n-1]
	return id, nil
}

// TerminateByDisproportionation marks the chain dead without changing its units.
func (p *Polymer) TerminateByDisproportionation() {
	p.state = TerminatedD
}

// TerminateByChainTransfer marks the chain dead without changing its units.
func (p *Polymer) TerminateByChainTransfer() {
	p.state = TerminatedCT
}

// TerminateByCombination joins other head-to-head onto the end of p:
// p's units followed by other's units in reverse order.
// The caller releases other afterwards.
func (p *Polymer) TerminateByCombination(other *Polymer) error {
	if p.compressed || other.compressed {
		return ErrCompressedPolymer
	}
	for i := len(other.sequence) - 1; i >= 0; i-- {
		p.sequence = append(p.sequence, other.sequence[i])
	}
	p.state = TerminatedC
	return nil
}

// EndGroupIs reports whether the trailing units of the chain equal endGroup.
// An empty end group matches every chain.
func (p *Polymer) EndGroupIs(endGroup []registry.SpeciesID) bool {
	k := len(endGroup)
	if k == 0 {
		return true
	}
	n := len(p.sequence)
	if n < k {
		return false
	}
	tail := p.sequence[n-k:]
	for i := range endGroup {
		if tail[i] != endGroup[i] {
			return false
		}
	}
	return true
}

// Compress replaces the raw sequence with its positional stats.
func (p *Polymer) Compress(numBuckets int, monomers analysis.Monomers) {
	if p.compressed {
		return
	}
	p.positional = analysis.CalculatePositionalSequenceStats(p.sequence, numBuckets, monomers)
	p.length = len(p.sequence)
	p.sequence = nil
	p.compressed = true
}

// Sequence returns the raw unit sequence; nil once compressed.
func (p *Polymer) Sequence() []registry.SpeciesID {
	return p.sequence
}

// Len returns the number of units in the chain, including non-monomer units.
func (p *Polymer) Len() int {
	if p.compressed {
		return p.length
	}
	return len(p.sequence)
}

func (p *Polymer) State() PolymerState {
	return p.state
}

func (p *Polymer) IsCompressed() bool {
	return p.compressed
}

// PositionalStats returns the stats computed by Compress; nil for raw chains.
func (p *Polymer) PositionalStats() analysis.PositionalStats {
	return p.positional
}

func (p *Polymer) reset() {
	p.sequence = p.sequence[:0]
	p.state = Uninitiated
	p.compressed = false
	p.length = 0
	p.positional = nil
}

// PolymerID addresses a chain in a PolymerArena.
type PolymerID int

// PolymerArena owns every chain of a run. Chains are addressed by PolymerID;
// released slots are reused by later New calls.
//
// Pointers returned by Get are invalidated by New.
type PolymerArena struct {
	polymers []Polymer
	free     []PolymerID
}

// NewPolymerArena returns an empty arena.
func NewPolymerArena() *PolymerArena {
	return &PolymerArena{}
}

// New returns the ID of an empty, uninitiated chain.
func (a *PolymerArena) New() PolymerID {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.polymers[id].reset()
		return id
	}
	a.polymers = append(a.polymers, Polymer{})
	return PolymerID(len(a.polymers) - 1)
}

// Get returns the chain stored under id.
func (a *PolymerArena) Get(id PolymerID) *Polymer {
	return &a.polymers[id]
}

// Release returns id's slot to the arena. The chain must not be referenced afterwards.
func (a *PolymerArena) Release(id PolymerID) {
	a.polymers[id].reset()
	a.free = append(a.free, id)
}

// Live returns the number of chains not released.
func (a *PolymerArena) Live() int {
	return len(a.polymers) - len(a.free)
}
