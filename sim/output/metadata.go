package output

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/polykmc/polykmc/sim"
	"github.com/polykmc/polykmc/sim/model"
	"github.com/polykmc/polykmc/sim/registry"
)

// RunInfo identifies one run.
type RunInfo struct {
	Version       string `yaml:"version"`
	RunID         string `yaml:"run_id"`
	Model         string `yaml:"model"`
	Seed          int64  `yaml:"seed"`
	Timestamp     string `yaml:"timestamp"`
	UnixTimestamp int64  `yaml:"unix_timestamp"`
}

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewRunInfo stamps a run with a fresh ID and the current time.
func NewRunInfo(version, modelName string, seed int64) RunInfo {
	now := time.Now()
	return RunInfo{
		Version:       version,
		RunID:         NewRunID(),
		Model:         modelName,
		Seed:          seed,
		Timestamp:     now.UTC().Format(time.RFC3339),
		UnixTimestamp: now.Unix(),
	}
}

// Metadata is the content of metadata.yaml.
type Metadata struct {
	RunInfo    RunInfo          `yaml:"run_info"`
	Parameters ParametersRecord `yaml:"parameters"`
	Species    SpeciesRecord    `yaml:"species"`
	Reactions  ReactionsRecord  `yaml:"reactions"`
}

type ParametersRecord struct {
	NumParticles    uint64  `yaml:"num_particles"`
	TerminationTime float64 `yaml:"termination_time"`
	AnalysisTime    float64 `yaml:"analysis_time"`
	NAV             float64 `yaml:"nav"`
	ReportSequences bool    `yaml:"report_sequences"`
	ReportPolymers  bool    `yaml:"report_polymers"`
	NumBuckets      int     `yaml:"num_buckets"`
}

type SpeciesRecord struct {
	Units             []UnitRecord        `yaml:"units"`
	PolymerTypes      []PolymerTypeRecord `yaml:"polymer_types"`
	PolymerContainers []ContainerRecord   `yaml:"polymer_containers"`
}

type UnitRecord struct {
	ID         registry.SpeciesID   `yaml:"id"`
	Name       string               `yaml:"name"`
	Type       registry.SpeciesType `yaml:"type"`
	C0         float64              `yaml:"C0"`
	FW         float64              `yaml:"FW"`
	Efficiency float64              `yaml:"efficiency"`
	InitCount  uint64               `yaml:"init_count"`
}

type PolymerTypeRecord struct {
	ID       registry.SpeciesID `yaml:"id"`
	Name     string             `yaml:"name"`
	EndGroup []string           `yaml:"end_group"`
}

type ContainerRecord struct {
	ID           registry.SpeciesID `yaml:"id"`
	Name         string             `yaml:"name"`
	PolymerTypes []string           `yaml:"polymer_types"`
}

type ReactionsRecord struct {
	NumReactions  int                  `yaml:"num_reactions"`
	Reactions     []ReactionRecord     `yaml:"reactions"`
	RateConstants []model.RateConstant `yaml:"rate_constants"`
}

type ReactionRecord struct {
	Type         string   `yaml:"type"`
	RateConstant string   `yaml:"rate_constant"`
	Reactants    []string `yaml:"reactants"`
	Products     []string `yaml:"products"`
}

// NewMetadata describes a built simulator.
func NewMetadata(info RunInfo, s *sim.Simulator) Metadata {
	md := Metadata{
		RunInfo: info,
		Parameters: ParametersRecord{
			NumParticles:    s.Config.NumParticles,
			TerminationTime: s.Config.TerminationTime,
			AnalysisTime:    s.Config.AnalysisTime,
			NAV:             s.Species.NAV(),
			ReportSequences: s.Options.ReportSequences,
			ReportPolymers:  s.Options.ReportPolymers,
			NumBuckets:      s.Options.NumBuckets,
		},
	}

	for _, u := range s.Species.Units() {
		md.Species.Units = append(md.Species.Units, UnitRecord{
			ID: u.ID, Name: u.Name, Type: u.Type,
			C0: u.C0, FW: u.FW, Efficiency: u.Efficiency, InitCount: u.InitialCount(),
		})
	}
	for _, t := range s.Species.PolymerTypes() {
		md.Species.PolymerTypes = append(md.Species.PolymerTypes, PolymerTypeRecord{
			ID: t.ID, Name: t.Name, EndGroup: namesOf(s.Registry, t.EndGroup),
		})
	}
	for _, c := range s.Species.Containers() {
		rec := ContainerRecord{ID: c.ID, Name: c.Name}
		for _, t := range c.Types() {
			rec.PolymerTypes = append(rec.PolymerTypes, t.Name)
		}
		md.Species.PolymerContainers = append(md.Species.PolymerContainers, rec)
	}

	seen := make(map[string]bool)
	md.Reactions.NumReactions = len(s.Reactions)
	for _, r := range s.Reactions {
		rec := ReactionRecord{Type: string(r.Kind), RateConstant: r.Rate.Name}
		for _, ref := range r.Reactants {
			rec.Reactants = append(rec.Reactants, ref.Species().Name)
		}
		for _, ref := range r.Products {
			rec.Products = append(rec.Products, ref.Species().Name)
		}
		md.Reactions.Reactions = append(md.Reactions.Reactions, rec)
		if !seen[r.Rate.Name] {
			seen[r.Rate.Name] = true
			md.Reactions.RateConstants = append(md.Reactions.RateConstants, model.RateConstant{Name: r.Rate.Name, Value: r.Rate.Value})
		}
	}
	return md
}

func namesOf(reg *registry.Registry, ids []registry.SpeciesID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = reg.Name(id)
	}
	return names
}

// RegistryRecord is the content of species.yaml.
type RegistryRecord struct {
	Species  []registry.RegisteredSpecies `yaml:"species"`
	Units    []string                     `yaml:"units"`
	Monomers []string                     `yaml:"monomers"`
	Polymers []string                     `yaml:"polymers"`
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteMetadata writes metadata.yaml.
func WriteMetadata(path string, md Metadata) error {
	return writeYAML(path, md)
}

// WriteSpeciesRegistry writes species.yaml.
func WriteSpeciesRegistry(path string, reg *registry.Registry) error {
	return writeYAML(path, RegistryRecord{
		Species:  reg.AllSpecies(),
		Units:    reg.UnitNames(),
		Monomers: reg.MonomerNames(),
		Polymers: reg.PolymerNames(),
	})
}

// WriteParsedInput writes the model in YAML input form.
func WriteParsedInput(path string, m *model.Model) error {
	data, err := m.ToYAML()
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
