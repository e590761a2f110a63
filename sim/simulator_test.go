package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polykmc/polykmc/sim/internal/testutil"
	"github.com/polykmc/polykmc/sim/model"
	"github.com/polykmc/polykmc/sim/registry"
	"github.com/polykmc/polykmc/sim/trace"
)

// runModel builds and runs m, returning the simulator and every snapshot with
// wall-clock fields zeroed.
func runModel(t *testing.T, m *model.Model, opts RunOptions) (*Simulator, []SystemState) {
	t.Helper()
	s, err := BuildModel(m, opts)
	require.NoError(t, err)

	var states []SystemState
	s.AddObserver(StateObserverFunc(func(st *SystemState) error {
		cp := *st
		cp.KMC.SimulationTime = 0
		cp.KMC.SimulationTimePer1e6Steps = 0
		if cp.Sequence != nil {
			seq := *cp.Sequence
			seq.KMC = cp.KMC
			cp.Sequence = &seq
		}
		states = append(states, cp)
		return nil
	}))
	require.NoError(t, s.Run(context.Background()))
	require.NotEmpty(t, states)
	return s, states
}

func unitCount(t *testing.T, s *Simulator, name string) uint64 {
	t.Helper()
	sp, err := s.Registry.SpeciesByName(name)
	require.NoError(t, err)
	return s.Species.Unit(sp.ID).Count
}

func TestSimulator_SameSeedIsDeterministic(t *testing.T) {
	// GIVEN two runs of the same model with the same seed
	_, first := runModel(t, testutil.CopolymerModel(10000), NewRunOptions(7, false, true))
	_, second := runModel(t, testutil.CopolymerModel(10000), NewRunOptions(7, false, true))

	// THEN every snapshot matches
	assert.Equal(t, first, second)
}

func TestSimulator_DifferentSeedsDiverge(t *testing.T) {
	_, a := runModel(t, testutil.CopolymerModel(10000), NewRunOptions(1, false, false))
	_, b := runModel(t, testutil.CopolymerModel(10000), NewRunOptions(2, false, false))

	assert.Equal(t, a[0], b[0], "initial states agree")
	assert.NotEqual(t, a[len(a)-1], b[len(b)-1])
}

func TestSimulator_ConservesUnits(t *testing.T) {
	// GIVEN a free-radical run that keeps raw sequences
	s, _ := runModel(t, testutil.FreeRadicalModel(10000), NewRunOptions(11, true, false))

	// WHEN units inside chains are counted
	inChains := make(map[registry.SpeciesID]uint64)
	for _, p := range s.Polymers() {
		require.False(t, p.IsCompressed())
		for _, id := range p.Sequence() {
			inChains[id]++
		}
	}

	// THEN every monomer is either free or in a chain
	m, err := s.Registry.SpeciesByName("M")
	require.NoError(t, err)
	assert.Equal(t, uint64(9900), unitCount(t, s, "M")+inChains[m.ID])

	// AND every radical fragment of a decomposed initiator is accounted for
	r, err := s.Registry.SpeciesByName("R")
	require.NoError(t, err)
	decomposed := uint64(99) - unitCount(t, s, "I")
	assert.Equal(t, 2*decomposed, unitCount(t, s, "R")+inChains[r.ID])
}

func TestSimulator_FreeRadicalPolymerization(t *testing.T) {
	s, states := runModel(t, testutil.FreeRadicalModel(10000), NewRunOptions(3, false, false))

	initial, final := states[0], states[len(states)-1]
	assert.Equal(t, uint64(0), initial.KMC.Iteration)
	assert.Equal(t, 0.0, initial.Species.MonomerConversion)
	testutil.AssertFloat64Equal(t, "NAV", 10000/1.01, initial.KMC.NAV, 1e-12)

	assert.Greater(t, final.Species.MonomerConversion, 0.0)
	assert.Greater(t, final.Analysis.NAvgCL, 1.0)
	assert.GreaterOrEqual(t, final.Analysis.WAvgCL, final.Analysis.NAvgCL)
	assert.GreaterOrEqual(t, final.Analysis.DispCL, 1.0)
	testutil.AssertFloat64Equal(t, "nAvgMW", 100*final.Analysis.NAvgCL, final.Analysis.NAvgMW, 1e-9)
	testutil.AssertFloat64Equal(t, "wAvgMW", 100*final.Analysis.WAvgCL, final.Analysis.WAvgMW, 1e-9)
	assert.Equal(t, s.Iteration(), final.KMC.Iteration)

	// Snapshots are time-ordered and none repeats an iteration.
	for i := 1; i < len(states); i++ {
		assert.GreaterOrEqual(t, states[i].KMC.KMCTime, states[i-1].KMC.KMCTime)
		assert.Greater(t, states[i].KMC.Iteration, states[i-1].KMC.Iteration)
	}
	var steps uint64
	for _, st := range states {
		steps += st.KMC.KMCStep
	}
	assert.Equal(t, final.KMC.Iteration, steps)
}

func TestSimulator_CombinationIntoLiveContainer(t *testing.T) {
	// GIVEN the homopolymerization network where combined chains return to P
	m := testutil.FreeRadicalModel(100000)
	m.Species.Polymers = m.Species.Polymers[:1]
	m.Reactions[3].Products = []string{"P"}

	// WHEN it runs with compression enabled
	s, states := runModel(t, m, NewRunOptions(13, false, true))

	// THEN chains grow and no monomer is lost
	final := states[len(states)-1]
	assert.Greater(t, final.Species.MonomerConversion, 0.0)
	assert.Greater(t, final.Analysis.NAvgCL, 1.0)
	assert.GreaterOrEqual(t, final.Analysis.WAvgCL, final.Analysis.NAvgCL)

	mon := s.Species.Unit(s.Registry.MonomerIDs()[0])
	incorporated := final.Sequence.Stats.Total(1).MonCounts[0]
	assert.Equal(t, mon.InitialCount(), mon.Count+incorporated)
	for _, p := range s.Polymers() {
		assert.False(t, p.IsCompressed())
	}
}

func TestSimulator_PopulationSequenceStatsMatchConsumption(t *testing.T) {
	s, states := runModel(t, testutil.CopolymerModel(10000), NewRunOptions(5, false, true))

	final := states[len(states)-1]
	require.NotNil(t, final.Sequence)
	require.Len(t, final.Sequence.Stats, s.Options.NumBuckets)

	total := final.Sequence.Stats.Total(s.Registry.NumMonomers())
	for idx, id := range s.Registry.MonomerIDs() {
		u := s.Species.Unit(id)
		assert.Equal(t, u.InitialCount()-u.Count, total.MonCounts[idx], "monomer %s", u.Name)
	}
}

func TestSimulator_DeadState(t *testing.T) {
	// GIVEN a model whose only reaction exhausts its reactant
	eff := 1.0
	m := &model.Model{
		Name:       "decomposition",
		Parameters: model.Parameters{NumUnits: 100, TerminationTime: 1e6, AnalysisTime: 1e5},
		Species: model.Species{Units: []model.Unit{
			{Name: "I", Type: "I", C0: 1, Efficiency: &eff},
			{Name: "R", Type: "U"},
		}},
		RateConstants: []model.RateConstant{{Name: "kd", Value: 1}},
		Reactions: []model.Reaction{
			{Type: "ID", RateConstant: "kd", Reactants: []string{"I"}, Products: []string{"R", "R"}},
		},
	}

	// WHEN it runs
	s, states := runModel(t, m, NewRunOptions(1, false, false))

	// THEN it stops early in a dead state after one firing per initiator
	assert.True(t, s.IsDead())
	assert.Equal(t, uint64(100), s.Iteration())
	assert.Less(t, s.Time(), 1e6)
	assert.Equal(t, uint64(200), unitCount(t, s, "R"))
	assert.Equal(t, s.Iteration(), states[len(states)-1].KMC.Iteration)

	// AND further steps are no-ops
	fired, err := s.Step()
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, []float64{0}, s.Propensities())
}

func TestSimulator_Run_ContextCanceled(t *testing.T) {
	s, err := BuildModel(testutil.FreeRadicalModel(10000), NewRunOptions(1, false, false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), s.Iteration())
}

func TestSimulator_Run_ObserverErrorStopsRun(t *testing.T) {
	s, err := BuildModel(testutil.FreeRadicalModel(10000), NewRunOptions(1, false, false))
	require.NoError(t, err)

	errFull := errors.New("disk full")
	calls := 0
	s.AddObserver(StateObserverFunc(func(*SystemState) error {
		calls++
		if calls == 2 {
			return errFull
		}
		return nil
	}))

	err = s.Run(context.Background())
	assert.ErrorIs(t, err, errFull)
	assert.Equal(t, 2, calls)
}

func TestSimulator_Trace_RecordsEveryFiring(t *testing.T) {
	opts := NewRunOptions(9, false, false)
	opts.TraceLevel = trace.TraceLevelFirings
	s, _ := runModel(t, testutil.FreeRadicalModel(2000), opts)

	require.True(t, s.Trace.Enabled())
	require.Len(t, s.Trace.Firings, int(s.Iteration()))
	first := s.Trace.Firings[0]
	assert.Equal(t, uint64(0), first.Iteration)
	assert.Equal(t, "ID: I -kd-> R + R", first.Reaction, "only decomposition can fire first")
	assert.InDelta(t, 1.0, first.Share(), 1e-12)

	s2, err := BuildModel(testutil.FreeRadicalModel(2000), NewRunOptions(9, false, false))
	require.NoError(t, err)
	assert.Nil(t, s2.Trace)
}

func TestSimulator_Trace_CapsStoredFirings(t *testing.T) {
	// GIVEN a firing trace limited to five records
	opts := NewRunOptions(9, false, false)
	opts.TraceLevel = trace.TraceLevelFirings
	opts.TraceMaxRecords = 5

	// WHEN the run fires many more reactions
	s, _ := runModel(t, testutil.FreeRadicalModel(2000), opts)

	// THEN only the first five are kept and the rest are counted
	require.Greater(t, s.Iteration(), uint64(5))
	assert.Len(t, s.Trace.Firings, 5)
	assert.Equal(t, int(s.Iteration())-5, s.Trace.Dropped)
	assert.Equal(t, uint64(4), s.Trace.Firings[4].Iteration)
}

func TestSimulator_EndGroupMismatchIsSimulationError(t *testing.T) {
	// GIVEN a label whose types accept only chains ending in A or B, and a
	// depropagation that strips the A from an R-A chain
	m := &model.Model{
		Name:       "mismatch",
		Parameters: model.Parameters{NumUnits: 10, TerminationTime: 100, AnalysisTime: 10},
		Species: model.Species{
			Units: []model.Unit{
				{Name: "R", Type: "U", C0: 1},
				{Name: "A", Type: "M", C0: 1},
				{Name: "B", Type: "M"},
			},
			Polymers: []model.PolymerType{
				{Name: "P[A]", EndGroupUnits: []string{"A"}},
				{Name: "P[B]", EndGroupUnits: []string{"B"}},
			},
			Labels: []model.Label{{Name: "L", PolymerNames: []string{"P[A]", "P[B]"}}},
		},
		RateConstants: []model.RateConstant{{Name: "ki", Value: 1}, {Name: "kdp", Value: 1000}},
		Reactions: []model.Reaction{
			{Type: "IN", RateConstant: "ki", Reactants: []string{"R", "A"}, Products: []string{"P[A]"}},
			{Type: "DP", RateConstant: "kdp", Reactants: []string{"L"}, Products: []string{"L", "A"}},
		},
	}
	s, err := BuildModel(m, NewRunOptions(1, false, false))
	require.NoError(t, err)

	// WHEN it runs
	err = s.Run(context.Background())

	// THEN the run fails with a SimulationError naming the reaction
	var simErr *SimulationError
	require.ErrorAs(t, err, &simErr)
	assert.ErrorIs(t, err, ErrEndGroupMismatch)
	assert.Equal(t, "DP: L -kdp-> L + A", simErr.Reaction)
	assert.Greater(t, simErr.Iteration, uint64(0))
}

func TestSimulator_RepeatedReactantsEndInDeadState(t *testing.T) {
	tests := []struct {
		name      string
		m         *model.Model
		unit      string
		wantLeft  uint64
		wantFired uint64
	}{
		{
			name: "thermal initiation stops with fewer than three monomers",
			m: &model.Model{
				Name:       "thermal",
				Parameters: model.Parameters{NumUnits: 100, TerminationTime: 1e9, AnalysisTime: 1e8},
				Species: model.Species{
					Units:    []model.Unit{{Name: "M", Type: "M", C0: 1, FW: 100}},
					Polymers: []model.PolymerType{{Name: "P"}},
				},
				RateConstants: []model.RateConstant{{Name: "kth", Value: 1}},
				Reactions: []model.Reaction{
					{Type: "TIM", RateConstant: "kth", Reactants: []string{"M", "M", "M"}, Products: []string{"P", "P"}},
				},
			},
			unit:      "M",
			wantLeft:  1,
			wantFired: 33,
		},
		{
			name: "dimerization stops at a single molecule",
			m: &model.Model{
				Name:       "dimer",
				Parameters: model.Parameters{NumUnits: 101, TerminationTime: 1e9, AnalysisTime: 1e8},
				Species: model.Species{Units: []model.Unit{
					{Name: "A", Type: "M", C0: 1, FW: 50},
					{Name: "B", Type: "U"},
				}},
				RateConstants: []model.RateConstant{{Name: "k", Value: 1}},
				Reactions: []model.Reaction{
					{Type: "EL", RateConstant: "k", Reactants: []string{"A", "A"}, Products: []string{"B"}},
				},
			},
			unit:      "A",
			wantLeft:  1,
			wantFired: 50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN the network runs until nothing can fire
			s, _ := runModel(t, tt.m, NewRunOptions(1, false, false))

			// THEN it ends dead instead of failing on the last molecules
			assert.True(t, s.IsDead())
			assert.Equal(t, tt.wantFired, s.Iteration())
			assert.Equal(t, tt.wantLeft, unitCount(t, s, tt.unit))
			assert.Equal(t, []float64{0}, s.Propensities())
		})
	}
}

func TestSimulator_CombinationWithOverlappingLabel(t *testing.T) {
	// GIVEN live chains P that also sit behind the label L, terminated by P + L
	eff := 0.5
	m := &model.Model{
		Name:       "overlap",
		Parameters: model.Parameters{NumUnits: 10000, TerminationTime: 1000, AnalysisTime: 100},
		Species: model.Species{
			Units: []model.Unit{
				{Name: "I", Type: "I", C0: 0.01, Efficiency: &eff},
				{Name: "M", Type: "M", C0: 1.0, FW: 100},
				{Name: "R", Type: "U"},
			},
			Polymers: []model.PolymerType{{Name: "P"}, {Name: "D"}},
			Labels:   []model.Label{{Name: "L", PolymerNames: []string{"P"}}},
		},
		RateConstants: []model.RateConstant{
			{Name: "kd", Value: 0.1},
			{Name: "ki", Value: 10},
			{Name: "kp", Value: 10},
			{Name: "kt", Value: 100},
		},
		Reactions: []model.Reaction{
			{Type: "ID", RateConstant: "kd", Reactants: []string{"I"}, Products: []string{"R", "R"}},
			{Type: "IN", RateConstant: "ki", Reactants: []string{"R", "M"}, Products: []string{"P"}},
			{Type: "PR", RateConstant: "kp", Reactants: []string{"P", "M"}, Products: []string{"P"}},
			{Type: "TC", RateConstant: "kt", Reactants: []string{"P", "L"}, Products: []string{"D"}},
		},
	}

	for seed := int64(1); seed <= 6; seed++ {
		// WHEN it runs
		s, err := BuildModel(m, NewRunOptions(seed, false, false))
		require.NoError(t, err)

		// THEN no step draws the same chain twice
		require.NoError(t, s.Run(context.Background()), "seed %d", seed)
		assert.Greater(t, s.Iteration(), uint64(0))
	}
}
