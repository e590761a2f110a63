package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/polykmc/polykmc/sim"
	"github.com/polykmc/polykmc/sim/analysis"
	"github.com/polykmc/polykmc/sim/model"
	"github.com/polykmc/polykmc/sim/output"
	"github.com/polykmc/polykmc/sim/store"
	"github.com/polykmc/polykmc/sim/trace"
)

// Version is recorded in metadata.yaml.
const Version = "0.1.0"

var (
	// CLI flags for the run command
	seed            int64  // Seed for the KMC random stream
	logLevel        string // Log verbosity level
	reportPolymers  bool   // Write raw chains to polymers.dat
	reportSequences bool   // Write positional sequence stats to sequences.csv
	parseOnly       bool   // Build the model and write metadata without stepping
	dbPath          string // Optional SQLite results database
	traceLevel      string // Firing trace verbosity
	traceMax        int    // Firing records kept before the rest are only counted
	numBuckets      int    // Positional buckets per chain
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "polykmc",
	Short: "Kinetic Monte Carlo simulator for free-radical polymerization",
}

// runConfig collects everything a run needs besides the model itself.
type runConfig struct {
	ModelPath       string
	OutDir          string
	Seed            int64
	ReportPolymers  bool
	ReportSequences bool
	ParseOnly       bool
	DBPath          string
	TraceLevel      string
	TraceMax        int
	NumBuckets      int
}

// runResult is what a finished run leaves behind for the caller.
type runResult struct {
	Simulator *sim.Simulator
	RunID     string
}

// runCmd executes the simulation for a model file
var runCmd = &cobra.Command{
	Use:   "run <model> <outdir>",
	Short: "Run a KMC simulation and write results to outdir",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		res, err := runSimulation(cmd.Context(), runConfig{
			ModelPath:       args[0],
			OutDir:          args[1],
			Seed:            seed,
			ReportPolymers:  reportPolymers,
			ReportSequences: reportSequences,
			ParseOnly:       parseOnly,
			DBPath:          dbPath,
			TraceLevel:      traceLevel,
			TraceMax:        traceMax,
			NumBuckets:      numBuckets,
		})
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if parseOnly {
			logrus.Info("Parse-only run complete.")
			return
		}
		res.Simulator.PrintSummary()
		logrus.Infof("Simulation complete. Results in %s (run %s)", args[1], res.RunID)
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runSimulation loads and builds the model, writes the run records, and
// unless ParseOnly is set, runs it with every requested observer attached.
func runSimulation(ctx context.Context, cfg runConfig) (res runResult, err error) {
	if !trace.IsValidTraceLevel(cfg.TraceLevel) {
		return res, fmt.Errorf("unknown trace level %q", cfg.TraceLevel)
	}

	m, err := model.LoadModel(cfg.ModelPath)
	if err != nil {
		return res, err
	}
	paths := output.NewPaths(cfg.OutDir)
	if err := paths.Prepare(); err != nil {
		return res, err
	}
	if err := output.WriteParsedInput(paths.ParsedInput(), m); err != nil {
		return res, err
	}

	opts := sim.NewRunOptions(cfg.Seed, cfg.ReportPolymers, cfg.ReportSequences)
	opts.NumBuckets = cfg.NumBuckets
	if cfg.TraceLevel != "" {
		opts.TraceLevel = trace.TraceLevel(cfg.TraceLevel)
	}
	opts.TraceMaxRecords = cfg.TraceMax
	s, err := sim.BuildModel(m, opts)
	if err != nil {
		return res, err
	}
	res.Simulator = s

	info := output.NewRunInfo(Version, m.Name, cfg.Seed)
	res.RunID = info.RunID
	if err := output.WriteSpeciesRegistry(paths.Registry(), s.Registry); err != nil {
		return res, err
	}
	if err := output.WriteMetadata(paths.Metadata(), output.NewMetadata(info, s)); err != nil {
		return res, err
	}
	if cfg.ParseOnly {
		logrus.Infof("Parse-only: wrote model records to %s", cfg.OutDir)
		return res, nil
	}

	results, err := output.NewResultsWriter(paths.Results(), s.Registry)
	if err != nil {
		return res, err
	}
	defer closeInto(&err, results)
	s.AddObserver(results)

	if cfg.ReportSequences {
		var sequences *output.SequencesWriter
		sequences, err = output.NewSequencesWriter(paths.Sequences(), s.Registry)
		if err != nil {
			return res, err
		}
		defer closeInto(&err, sequences)
		s.AddObserver(sequences)
	}

	var db *store.Store
	if cfg.DBPath != "" {
		db, err = store.Open(ctx, cfg.DBPath)
		if err != nil {
			return res, err
		}
		defer closeInto(&err, db)
		if err := db.CreateRun(ctx, info.RunID, m.Name, cfg.Seed); err != nil {
			return res, err
		}
		s.AddObserver(db.Observer(ctx, info.RunID, s.Registry))
	}

	runErr := s.Run(ctx)
	if db != nil {
		status := store.StatusCompleted
		if runErr != nil {
			status = store.StatusFailed
		}
		// The run context may already be canceled; the final status is still recorded.
		if err := db.FinishRun(context.WithoutCancel(ctx), info.RunID, status); err != nil {
			return res, errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return res, runErr
	}

	if cfg.ReportPolymers {
		if err := output.WritePolymers(paths.Polymers(), s.Registry, s.Polymers()); err != nil {
			return res, err
		}
	}
	return res, nil
}

// closeInto closes c and joins its error into *errp. The caller must pass its
// named error return.
func closeInto(errp *error, c io.Closer) {
	*errp = errors.Join(*errp, c.Close())
}

// Execute runs the CLI root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the KMC random stream")
	runCmd.Flags().BoolVar(&reportPolymers, "report-polymers", false, "Write every chain to polymers.dat (disables compression of terminated chains)")
	runCmd.Flags().BoolVar(&reportSequences, "report-sequences", false, "Write positional sequence stats to sequences.csv")
	runCmd.Flags().BoolVar(&parseOnly, "parse-only", false, "Build the model and write metadata without running")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database that also receives every snapshot")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Firing trace verbosity (none, firings)")
	runCmd.Flags().IntVar(&traceMax, "trace-max", sim.DefaultTraceMaxRecords, "Firing records kept in memory (0 = unbounded)")
	runCmd.Flags().IntVar(&numBuckets, "buckets", analysis.NumBuckets, "Positional buckets per chain")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
