// Package testutil provides shared test infrastructure for the polykmc
// simulator: reference models and float assertion helpers used across the
// sim/ test packages.
package testutil

import (
	"math"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/polykmc/polykmc/sim/model"
)

// FreeRadicalModel is the homopolymerization reference: monomer M, initiator I
// decomposing into radical fragments R, live chains P and dead chains D formed
// by combination.
func FreeRadicalModel(numUnits uint64) *model.Model {
	eff := 1.0
	return &model.Model{
		Name:       "frp",
		Parameters: model.Parameters{NumUnits: numUnits, TerminationTime: 1000, AnalysisTime: 100},
		Species: model.Species{
			Units: []model.Unit{
				{Name: "I", Type: "I", C0: 0.01, Efficiency: &eff},
				{Name: "M", Type: "M", C0: 1.0, FW: 100},
				{Name: "R", Type: "U"},
			},
			Polymers: []model.PolymerType{{Name: "P"}, {Name: "D"}},
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
			{Type: "TC", RateConstant: "kt", Reactants: []string{"P", "P"}, Products: []string{"D"}},
		},
	}
}

// CopolymerModel copolymerizes A and B. Live chains are split by terminal
// unit into P[A] and P[B] behind the label P; dead chains collect in D.
func CopolymerModel(numUnits uint64) *model.Model {
	eff := 0.8
	return &model.Model{
		Name:       "copolymer",
		Parameters: model.Parameters{NumUnits: numUnits, TerminationTime: 500, AnalysisTime: 50},
		Species: model.Species{
			Units: []model.Unit{
				{Name: "I", Type: "I", C0: 0.01, Efficiency: &eff},
				{Name: "R", Type: "U"},
				{Name: "A", Type: "M", C0: 0.5, FW: 100},
				{Name: "B", Type: "M", C0: 0.5, FW: 50},
			},
			Polymers: []model.PolymerType{
				{Name: "P[A]", EndGroupUnits: []string{"A"}},
				{Name: "P[B]", EndGroupUnits: []string{"B"}},
				{Name: "D"},
			},
			Labels: []model.Label{{Name: "P", PolymerNames: []string{"P[A]", "P[B]"}}},
		},
		RateConstants: []model.RateConstant{
			{Name: "kd", Value: 0.1},
			{Name: "ki", Value: 10},
			{Name: "kAA", Value: 10},
			{Name: "kAB", Value: 20},
			{Name: "kBA", Value: 5},
			{Name: "kBB", Value: 10},
			{Name: "ktc", Value: 50},
			{Name: "ktd", Value: 50},
			{Name: "ktr", Value: 0.01},
			{Name: "kth", Value: 1e-9},
		},
		Reactions: []model.Reaction{
			{Type: "ID", RateConstant: "kd", Reactants: []string{"I"}, Products: []string{"R", "R"}},
			{Type: "IN", RateConstant: "ki", Reactants: []string{"R", "A"}, Products: []string{"P[A]"}},
			{Type: "IN", RateConstant: "ki", Reactants: []string{"R", "B"}, Products: []string{"P[B]"}},
			{Type: "PR", RateConstant: "kAA", Reactants: []string{"P[A]", "A"}, Products: []string{"P[A]"}},
			{Type: "PR", RateConstant: "kAB", Reactants: []string{"P[A]", "B"}, Products: []string{"P[B]"}},
			{Type: "PR", RateConstant: "kBA", Reactants: []string{"P[B]", "A"}, Products: []string{"P[A]"}},
			{Type: "PR", RateConstant: "kBB", Reactants: []string{"P[B]", "B"}, Products: []string{"P[B]"}},
			{Type: "TC", RateConstant: "ktc", Reactants: []string{"P", "P"}, Products: []string{"D"}},
			{Type: "TD", RateConstant: "ktd", Reactants: []string{"P", "P"}, Products: []string{"D", "D"}},
			{Type: "CTM", RateConstant: "ktr", Reactants: []string{"P", "A"}, Products: []string{"D", "P[A]"}},
			{Type: "TIM", RateConstant: "kth", Reactants: []string{"A", "A", "A"}, Products: []string{"P[A]", "P[A]"}},
		},
	}
}

// TestdataPath resolves name inside the repository's testdata/ directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
