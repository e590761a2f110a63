package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/polykmc/polykmc/sim"
	"github.com/polykmc/polykmc/sim/model"
)

var validateCmd = &cobra.Command{
	Use:   "validate <model>",
	Short: "Parse and build a model without running it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if err := validateModel(cmd.OutOrStdout(), args[0]); err != nil {
			logrus.Fatalf("Invalid model: %v", err)
		}
	},
}

// validateModel builds the model at path and reports its size to w.
func validateModel(w io.Writer, path string) error {
	m, err := model.LoadModel(path)
	if err != nil {
		return err
	}
	s, err := sim.BuildModel(m, sim.NewRunOptions(0, false, false))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "model %q OK: %d species, %d reactions, NAV=%g\n",
		m.Name, s.Registry.Len(), len(s.Reactions), s.Species.NAV())
	return err
}
