package sim

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/polykmc/polykmc/sim/registry"
)

// speciesDef declares one species of a hand-built test network.
type speciesDef struct {
	name     string
	typ      registry.SpeciesType
	endGroup []string // polymer types
	members  []string // labels
}

func unitDef(name string, typ registry.SpeciesType) speciesDef {
	return speciesDef{name: name, typ: typ}
}

func polyDef(name string, endGroup ...string) speciesDef {
	return speciesDef{name: name, typ: registry.Polymer, endGroup: endGroup}
}

func labelDef(name string, members ...string) speciesDef {
	return speciesDef{name: name, typ: registry.Label, members: members}
}

// network is a hand-built species set for exercising reactions directly.
type network struct {
	t          *testing.T
	reg        *registry.Registry
	units      map[string]*Unit
	types      map[string]*PolymerType
	containers map[string]*PolymerContainer
	fc         *FireContext
}

func newNetwork(t *testing.T, defs ...speciesDef) *network {
	t.Helper()
	b := registry.NewBuilder()
	for _, d := range defs {
		_, err := b.RegisterNewSpecies(d.name, d.typ)
		require.NoError(t, err)
	}
	reg := b.Build()

	n := &network{
		t:          t,
		reg:        reg,
		units:      make(map[string]*Unit),
		types:      make(map[string]*PolymerType),
		containers: make(map[string]*PolymerContainer),
	}
	for _, d := range defs {
		sp, err := reg.SpeciesByName(d.name)
		require.NoError(t, err)
		switch d.typ {
		case registry.Polymer:
			ids := make([]registry.SpeciesID, len(d.endGroup))
			for i, name := range d.endGroup {
				u, err := reg.SpeciesByName(name)
				require.NoError(t, err)
				ids[i] = u.ID
			}
			pt := NewPolymerType(sp, ids)
			n.types[d.name] = pt
			n.containers[d.name] = NewPolymerContainer(sp, []*PolymerType{pt})
		case registry.Label:
			members := make([]*PolymerType, len(d.members))
			for i, name := range d.members {
				members[i] = n.types[name]
			}
			n.containers[d.name] = NewPolymerContainer(sp, members)
		default:
			n.units[d.name] = NewUnit(sp, 0, 0, 1)
		}
	}
	n.fc = &FireContext{
		Arena:      NewPolymerArena(),
		RNG:        NewKMCRandom(NewSimulationKey(1)),
		NumBuckets: 4,
		Monomers:   reg,
	}
	return n
}

func (n *network) unit(name string) SpeciesRef {
	u, ok := n.units[name]
	require.True(n.t, ok, "unit %s", name)
	return SpeciesRef{Unit: u}
}

func (n *network) poly(name string) SpeciesRef {
	c, ok := n.containers[name]
	require.True(n.t, ok, "container %s", name)
	return SpeciesRef{Poly: c}
}

func (n *network) setCount(name string, count uint64) {
	n.units[name].SetInitialCount(count)
}

// addChain inserts a live chain with the given units into container.
func (n *network) addChain(container string, units ...string) PolymerID {
	ids := make([]registry.SpeciesID, len(units))
	for i, name := range units {
		sp, err := n.reg.SpeciesByName(name)
		require.NoError(n.t, err)
		ids[i] = sp.ID
	}
	id, err := newChain(n.fc, ids[0], ids[1:]...)
	require.NoError(n.t, err)
	require.NoError(n.t, n.fc.insert(n.containers[container], id))
	return id
}

// chains returns the unit names of every chain in the polymer type.
func (n *network) chains(polymerType string) [][]string {
	var out [][]string
	for _, id := range n.types[polymerType].Polymers() {
		seq := n.fc.Arena.Get(id).Sequence()
		names := make([]string, len(seq))
		for i, u := range seq {
			names[i] = n.reg.Name(u)
		}
		out = append(out, names)
	}
	return out
}

func (n *network) reaction(kind ReactionKind, k float64, reactants, products []SpeciesRef) *Reaction {
	r, err := NewReaction(kind, RateConstant{Name: "k", Value: k}, reactants, products)
	require.NoError(n.t, err)
	return r
}

func refs(r ...SpeciesRef) []SpeciesRef {
	return r
}

// captureLogOutput runs fn at warn level and returns what it logged.
func captureLogOutput(fn func()) string {
	var buf bytes.Buffer
	logger := logrus.StandardLogger()
	origOutput, origLevel := logger.Out, logger.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.WarnLevel)
	defer func() {
		logrus.SetOutput(origOutput)
		logrus.SetLevel(origLevel)
	}()
	fn()
	return buf.String()
}
