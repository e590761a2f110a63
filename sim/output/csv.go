package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/polykmc/polykmc/sim"
	"github.com/polykmc/polykmc/sim/registry"
)

// csvFile is a CSV file opened for a whole run and flushed after every snapshot.
type csvFile struct {
	file   *os.File
	writer *csv.Writer
}

func createCSV(path string, header []string) (*csvFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	c := &csvFile{file: file, writer: csv.NewWriter(file)}
	if err := c.writer.Write(header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	return c, nil
}

func (c *csvFile) flush() error {
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes buffered rows and closes the file.
func (c *csvFile) Close() error {
	if err := c.flush(); err != nil {
		_ = c.file.Close()
		return err
	}
	return c.file.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func prefixed(prefix string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}

// ResultsColumns returns the results.csv header for reg.
func ResultsColumns(reg *registry.Registry) []string {
	cols := []string{"Iteration", "KMC Step", "KMC Time", "Simulation Time", "Simulation Time per 1e6 KMC Steps", "NAV"}

	units := reg.UnitNames()
	cols = append(cols, prefixed("Conv_", units)...)
	cols = append(cols, "Conv_Total")
	cols = append(cols, prefixed("Count_", units)...)
	cols = append(cols, prefixed("Count_", reg.PolymerNames())...)

	cols = append(cols, "nAvgCL", "wAvgCL", "dispCL", "nAvgMW", "wAvgMW", "dispMW")
	monomers := reg.MonomerNames()
	for _, prefix := range []string{"nAvgComp_", "nAvgSL_", "wAvgSL_", "dispSL_"} {
		cols = append(cols, prefixed(prefix, monomers)...)
	}
	return cols
}

// ResultsWriter appends one results.csv row per snapshot.
type ResultsWriter struct {
	*csvFile
	numColumns int
}

// NewResultsWriter creates path and writes the header.
func NewResultsWriter(path string, reg *registry.Registry) (*ResultsWriter, error) {
	header := ResultsColumns(reg)
	c, err := createCSV(path, header)
	if err != nil {
		return nil, err
	}
	return &ResultsWriter{csvFile: c, numColumns: len(header)}, nil
}

// ObserveState implements sim.StateObserver.
func (w *ResultsWriter) ObserveState(st *sim.SystemState) error {
	row := make([]string, 0, w.numColumns)
	k := st.KMC
	row = append(row,
		formatUint(k.Iteration),
		formatUint(k.KMCStep),
		formatFloat(k.KMCTime),
		formatFloat(k.SimulationTime),
		formatFloat(k.SimulationTimePer1e6Steps),
		formatFloat(k.NAV),
	)

	for _, c := range st.Species.UnitConversions {
		row = append(row, formatFloat(c))
	}
	row = append(row, formatFloat(st.Species.MonomerConversion))
	for _, n := range st.Species.UnitCounts {
		row = append(row, formatUint(n))
	}
	for _, n := range st.Species.PolymerCounts {
		row = append(row, formatUint(n))
	}

	a := st.Analysis
	for _, v := range []float64{a.NAvgCL, a.WAvgCL, a.DispCL, a.NAvgMW, a.WAvgMW, a.DispMW} {
		row = append(row, formatFloat(v))
	}
	for _, vs := range [][]float64{a.NAvgComp, a.NAvgSL, a.WAvgSL, a.DispSL} {
		for _, v := range vs {
			row = append(row, formatFloat(v))
		}
	}

	if len(row) != w.numColumns {
		return fmt.Errorf("results row has %d fields, header has %d", len(row), w.numColumns)
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("writing results row %d: %w", k.Iteration, err)
	}
	return w.flush()
}

// SequenceColumns returns the sequences.csv header for reg.
func SequenceColumns(reg *registry.Registry) []string {
	cols := []string{"Iteration", "KMC Time", "Bucket"}
	monomers := reg.MonomerNames()
	for _, prefix := range []string{"monCount_", "seqCount_", "seqLengths2_"} {
		cols = append(cols, prefixed(prefix, monomers)...)
	}
	return cols
}

// SequencesWriter appends one sequences.csv row per bucket per snapshot.
// Snapshots without sequence state are skipped.
type SequencesWriter struct {
	*csvFile
}

// NewSequencesWriter creates path and writes the header.
func NewSequencesWriter(path string, reg *registry.Registry) (*SequencesWriter, error) {
	c, err := createCSV(path, SequenceColumns(reg))
	if err != nil {
		return nil, err
	}
	return &SequencesWriter{csvFile: c}, nil
}

// ObserveState implements sim.StateObserver.
func (w *SequencesWriter) ObserveState(st *sim.SystemState) error {
	if st.Sequence == nil {
		return nil
	}
	for bucket, s := range st.Sequence.Stats {
		row := []string{
			formatUint(st.Sequence.KMC.Iteration),
			formatFloat(st.Sequence.KMC.KMCTime),
			strconv.Itoa(bucket),
		}
		for _, vs := range [][]uint64{s.MonCounts, s.SeqCounts, s.SeqLengths2} {
			for _, v := range vs {
				row = append(row, formatUint(v))
			}
		}
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("writing sequence row %d/%d: %w", st.Sequence.KMC.Iteration, bucket, err)
		}
	}
	return w.flush()
}
