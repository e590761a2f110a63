// Package model holds the declarative description of a KMC model as read from
// an input file: run parameters, species, rate constants and reactions.
//
// Two input formats decode into the same Model: a strict YAML document and the
// sectioned text format (parameters / species / rateconstants / reactions, each
// closed by "end"). Model knows nothing about the simulator; sim.BuildModel
// turns a validated Model into a runnable simulator.
package model

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model is the full description of one simulation input.
type Model struct {
	Name          string         `yaml:"name,omitempty"`
	Parameters    Parameters     `yaml:"parameters"`
	Species       Species        `yaml:"species"`
	RateConstants []RateConstant `yaml:"rate_constants"`
	Reactions     []Reaction     `yaml:"reactions"`
}

// Parameters are the run-level settings of a model.
type Parameters struct {
	NumUnits        uint64  `yaml:"num_units"`
	TerminationTime float64 `yaml:"termination_time"`
	AnalysisTime    float64 `yaml:"analysis_time"`
}

// Species groups the declared species by kind.
type Species struct {
	Units    []Unit        `yaml:"units"`
	Polymers []PolymerType `yaml:"polymers"`
	Labels   []Label       `yaml:"labels,omitempty"`
}

// Unit declares a unit-like species. Type is one of "U", "M" or "I".
type Unit struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	C0         float64  `yaml:"C0,omitempty"`
	FW         float64  `yaml:"FW,omitempty"`
	Efficiency *float64 `yaml:"efficiency,omitempty"`
}

// DefaultEfficiency applies to units that do not declare one.
const DefaultEfficiency = 1.0

// EfficiencyOrDefault returns the declared efficiency, or DefaultEfficiency.
func (u Unit) EfficiencyOrDefault() float64 {
	if u.Efficiency == nil {
		return DefaultEfficiency
	}
	return *u.Efficiency
}

// PolymerType declares a polymer type and the trailing units that identify it.
// An empty EndGroupUnits matches every chain.
type PolymerType struct {
	Name          string   `yaml:"name"`
	EndGroupUnits []string `yaml:"end_group_units"`
}

// Label declares a polymer container spanning several polymer types.
type Label struct {
	Name         string   `yaml:"name"`
	PolymerNames []string `yaml:"polymer_names"`
}

// RateConstant is a named kinetic constant.
type RateConstant struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Reaction references species and a rate constant by name.
// Type is a reaction tag such as "PR" or "TC".
type Reaction struct {
	Type         string   `yaml:"type"`
	RateConstant string   `yaml:"rate_constant"`
	Reactants    []string `yaml:"reactants"`
	Products     []string `yaml:"products"`
}

func (r Reaction) String() string {
	return fmt.Sprintf("%s: %s -%s-> %s", r.Type,
		strings.Join(r.Reactants, " + "), r.RateConstant, strings.Join(r.Products, " + "))
}

// Unit type tags accepted in model files.
var validUnitTypes = map[string]bool{
	"U": true, "M": true, "I": true,
}

// LoadModel reads path and decodes it according to its extension:
// .yaml/.yml as YAML, .txt as the sectioned text format.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}

	var m *Model
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		m, err = ParseYAML(data)
	case ".txt":
		m, err = ParseText(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported model file extension %q; use .yaml, .yml or .txt", ext)
	}
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// ParseYAML decodes a YAML model. Unrecognized keys are rejected.
func ParseYAML(data []byte) (*Model, error) {
	var m Model
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing YAML model: %w", err)
	}
	return &m, nil
}

// ToYAML renders the model in the YAML input format.
func (m *Model) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// Validate checks the model for errors that do not need the registry:
// parameter ranges, unique names, value ranges and rate-constant references.
func (m *Model) Validate() error {
	if m.Parameters.NumUnits == 0 {
		return fmt.Errorf("parameters: num_units must be positive, got 0")
	}
	if err := validateFinitePositive("parameters: termination_time", m.Parameters.TerminationTime); err != nil {
		return err
	}
	if err := validateFinitePositive("parameters: analysis_time", m.Parameters.AnalysisTime); err != nil {
		return err
	}

	if len(m.Species.Units) == 0 {
		return fmt.Errorf("species: at least one unit required")
	}
	names := make(map[string]bool)
	claim := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("species: %s with empty name", kind)
		}
		if names[name] {
			return fmt.Errorf("species: %q declared more than once", name)
		}
		names[name] = true
		return nil
	}
	for _, u := range m.Species.Units {
		if err := claim("unit", u.Name); err != nil {
			return err
		}
		if err := validateUnit(u); err != nil {
			return err
		}
	}
	for _, p := range m.Species.Polymers {
		if err := claim("polymer", p.Name); err != nil {
			return err
		}
	}
	for _, l := range m.Species.Labels {
		if err := claim("label", l.Name); err != nil {
			return err
		}
		if len(l.PolymerNames) == 0 {
			return fmt.Errorf("species: label %q names no polymer types", l.Name)
		}
	}

	rates := make(map[string]bool, len(m.RateConstants))
	for _, k := range m.RateConstants {
		if k.Name == "" {
			return fmt.Errorf("rate constants: empty name")
		}
		if rates[k.Name] {
			return fmt.Errorf("rate constants: %q declared more than once", k.Name)
		}
		rates[k.Name] = true
		if err := validateFiniteNonNegative(fmt.Sprintf("rate constant %q", k.Name), k.Value); err != nil {
			return err
		}
	}

	if len(m.Reactions) == 0 {
		return fmt.Errorf("reactions: at least one reaction required")
	}
	for i, r := range m.Reactions {
		prefix := fmt.Sprintf("reaction[%d] (%s)", i, r)
		if r.Type == "" {
			return fmt.Errorf("%s: missing type", prefix)
		}
		if !rates[r.RateConstant] {
			return fmt.Errorf("%s: unknown rate constant %q", prefix, r.RateConstant)
		}
		if len(r.Reactants) == 0 {
			return fmt.Errorf("%s: no reactants", prefix)
		}
	}
	return nil
}

func validateUnit(u Unit) error {
	prefix := fmt.Sprintf("species: unit %q", u.Name)
	if !validUnitTypes[u.Type] {
		return fmt.Errorf("%s: unknown type %q; valid: U, M, I", prefix, u.Type)
	}
	if err := validateFiniteNonNegative(prefix+" C0", u.C0); err != nil {
		return err
	}
	if err := validateFiniteNonNegative(prefix+" FW", u.FW); err != nil {
		return err
	}
	if eff := u.EfficiencyOrDefault(); math.IsNaN(eff) || eff < 0 || eff > 1 {
		return fmt.Errorf("%s: efficiency must be in [0, 1], got %f", prefix, eff)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return fmt.Errorf("%s must be non-negative, got %f", name, val)
	}
	return nil
}
