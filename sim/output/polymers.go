package output

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/polykmc/polykmc/sim"
	"github.com/polykmc/polykmc/sim/registry"
)

// WritePolymers writes one line per raw chain: its unit names separated by
// spaces, first unit first. Compressed chains are skipped.
func WritePolymers(path string, reg *registry.Registry, polymers []*sim.Polymer) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating polymer file: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)
	var names []string
	for _, p := range polymers {
		if p.IsCompressed() {
			continue
		}
		names = names[:0]
		for _, id := range p.Sequence() {
			names = append(names, reg.Name(id))
		}
		if _, err := fmt.Fprintln(w, strings.Join(names, " ")); err != nil {
			return fmt.Errorf("writing polymer file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing polymer file: %w", err)
	}
	return file.Close()
}
