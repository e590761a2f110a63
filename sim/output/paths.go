// Package output writes simulation results to an output directory:
// results.csv and sequences.csv (one row per snapshot), polymers.dat (raw
// chains), and YAML records of the run, the species registry and the parsed input.
package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates the result files of one run inside Dir.
type Paths struct {
	Dir string
}

// NewPaths returns the result locations under dir.
func NewPaths(dir string) Paths {
	return Paths{Dir: dir}
}

// Results is the per-snapshot results table.
func (p Paths) Results() string {
	return filepath.Join(p.Dir, "results.csv")
}

// Sequences is the per-bucket sequence table (--report-sequences).
func (p Paths) Sequences() string {
	return filepath.Join(p.Dir, "sequences.csv")
}

// Polymers holds one raw chain per line (--report-polymers).
func (p Paths) Polymers() string {
	return filepath.Join(p.Dir, "polymers.dat")
}

func (p Paths) Metadata() string {
	return filepath.Join(p.Dir, "metadata.yaml")
}

func (p Paths) Registry() string {
	return filepath.Join(p.Dir, "species.yaml")
}

// ParsedInput echoes the model as it was understood, in YAML form.
func (p Paths) ParsedInput() string {
	return filepath.Join(p.Dir, "input.kmc.yaml")
}

// Prepare creates the output directory and its parents.
func (p Paths) Prepare() error {
	if p.Dir == "" {
		return fmt.Errorf("output directory not set")
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}
