package sim

import (
	"fmt"

	"github.com/polykmc/polykmc/sim/registry"
)

// PolymerType holds the live chains sharing one end-group signature.
type PolymerType struct {
	registry.RegisteredSpecies

	Count    uint64
	EndGroup []registry.SpeciesID // trailing units identifying chains of this type

	polymers []PolymerID
	reactive bool // some reaction draws chains of this type
}

// NewPolymerType returns an empty polymer type.
func NewPolymerType(s registry.RegisteredSpecies, endGroup []registry.SpeciesID) *PolymerType {
	return &PolymerType{RegisteredSpecies: s, EndGroup: endGroup}
}

// InsertPolymer appends id.
func (t *PolymerType) InsertPolymer(id PolymerID) {
	t.polymers = append(t.polymers, id)
	t.Count++
}

// RemoveRandomPolymer removes a uniformly drawn chain by swapping it with the
// last one and popping.
func (t *PolymerType) RemoveRandomPolymer(rng *KMCRandom) (PolymerID, error) {
	n := len(t.polymers)
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrZeroCountReactant, t.Name)
	}
	i := rng.RandIndex(n)
	id := t.polymers[i]
	t.polymers[i] = t.polymers[n-1]
	t.polymers = t.polymers[:n-1]
	t.Count--
	return id, nil
}

// Polymers returns the IDs of the chains currently held.
func (t *PolymerType) Polymers() []PolymerID {
	return t.polymers
}

// PolymerContainer presents one or more polymer types as a single species.
// A polymer type declared in the model gets a container wrapping only itself;
// a label gets a container spanning all the types it names.
type PolymerContainer struct {
	registry.RegisteredSpecies

	Count uint64

	types      []*PolymerType
	typeCounts []uint64
}

// NewPolymerContainer wraps types under the identity s.
func NewPolymerContainer(s registry.RegisteredSpecies, types []*PolymerType) *PolymerContainer {
	c := &PolymerContainer{
		RegisteredSpecies: s,
		types:             types,
		typeCounts:        make([]uint64, len(types)),
	}
	c.UpdatePolymerCounts()
	return c
}

// InsertPolymer routes id to a member type. With several types the chain is
// classified by its end group and the first matching type wins.
func (c *PolymerContainer) InsertPolymer(arena *PolymerArena, id PolymerID) error {
	if len(c.types) == 1 {
		c.insertAt(0, id)
		return nil
	}
	p := arena.Get(id)
	for i, t := range c.types {
		if p.EndGroupIs(t.EndGroup) {
			c.insertAt(i, id)
			return nil
		}
	}
	return fmt.Errorf("%w: container %s", ErrEndGroupMismatch, c.Name)
}

func (c *PolymerContainer) insertAt(i int, id PolymerID) {
	c.types[i].InsertPolymer(id)
	c.typeCounts[i]++
	c.Count++
}

// RemoveRandomPolymer removes a chain from a member type drawn with
// probability proportional to its live count. Counts are resynchronized first
// since member types may be shared with other containers.
func (c *PolymerContainer) RemoveRandomPolymer(rng *KMCRandom) (PolymerID, error) {
	c.UpdatePolymerCounts()
	if c.Count == 0 {
		return 0, fmt.Errorf("%w: %s", ErrZeroCountReactant, c.Name)
	}
	i := 0
	if len(c.types) > 1 {
		i = rng.RandIndexWeighted(c.typeCounts)
	}
	id, err := c.types[i].RemoveRandomPolymer(rng)
	if err != nil {
		return 0, err
	}
	c.typeCounts[i]--
	c.Count--
	return id, nil
}

// removeRandomPolymerPaired removes a chain of c that still leaves a partner
// in other. A chain of a type held by both has other.Count-1 partners, any
// other chain has other.Count, and member types are weighted accordingly.
func (c *PolymerContainer) removeRandomPolymerPaired(rng *KMCRandom, other *PolymerContainer) (PolymerID, error) {
	c.UpdatePolymerCounts()
	other.UpdatePolymerCounts()
	weights := make([]uint64, len(c.types))
	var total uint64
	for i, t := range c.types {
		partners := other.Count
		if partners > 0 && other.holds(t) {
			partners--
		}
		if t.Count > 0 && partners > 0 {
			weights[i] = t.Count * partners
		}
		total += weights[i]
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: %s", ErrZeroCountReactant, other.Name)
	}
	i := rng.RandIndexWeighted(weights)
	id, err := c.types[i].RemoveRandomPolymer(rng)
	if err != nil {
		return 0, err
	}
	c.typeCounts[i]--
	c.Count--
	return id, nil
}

func (c *PolymerContainer) holds(t *PolymerType) bool {
	for _, member := range c.types {
		if member == t {
			return true
		}
	}
	return false
}

// UpdatePolymerCounts resynchronizes the container with its member types.
// Needed after other containers sharing a type inserted or removed chains.
func (c *PolymerContainer) UpdatePolymerCounts() {
	var total uint64
	for i, t := range c.types {
		c.typeCounts[i] = t.Count
		total += t.Count
	}
	c.Count = total
}

// markReactive records that a reaction draws chains from c.
func (c *PolymerContainer) markReactive() {
	for _, t := range c.types {
		t.reactive = true
	}
}

// Reactive reports whether any member type is drawn from by a reaction.
// Chains placed in a non-reactive container are never touched again.
func (c *PolymerContainer) Reactive() bool {
	for _, t := range c.types {
		if t.reactive {
			return true
		}
	}
	return false
}

// Types returns the member polymer types.
func (c *PolymerContainer) Types() []*PolymerType {
	return c.types
}

func (c *PolymerContainer) String() string {
	return fmt.Sprintf("%s: %d", c.Name, c.Count)
}
