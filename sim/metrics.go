// Prints the end-of-run summary: clock, conversions and chain-length moments.

package sim

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/polykmc/polykmc/sim/trace"
)

// PrintSummary writes the final snapshot in a human-readable block to stdout.
func (s *Simulator) PrintSummary() {
	s.WriteSummary(os.Stdout)
}

// WriteSummary writes the summary of the current state to w.
func (s *Simulator) WriteSummary(w io.Writer) {
	st := s.Snapshot()
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Iterations           : %d\n", st.KMC.Iteration)
	fmt.Fprintf(w, "KMC Time             : %.6g\n", st.KMC.KMCTime)
	fmt.Fprintf(w, "Wall Time            : %.3f s\n", st.KMC.SimulationTime)
	if st.KMC.Iteration > 0 {
		fmt.Fprintf(w, "Wall Time / 1e6 Steps: %.3f s\n", st.KMC.SimulationTimePer1e6Steps)
	}
	fmt.Fprintf(w, "NAV                  : %.6g\n", st.KMC.NAV)
	if s.dead {
		fmt.Fprintln(w, "Stopped              : dead state (no reaction can fire)")
	}
	fmt.Fprintf(w, "Monomer Conversion   : %.4f\n", st.Species.MonomerConversion)

	for i, name := range s.Registry.UnitNames() {
		fmt.Fprintf(w, "  %-12s count=%d conversion=%.4f\n", name, st.Species.UnitCounts[i], st.Species.UnitConversions[i])
	}
	for i, name := range s.Registry.PolymerNames() {
		fmt.Fprintf(w, "  %-12s count=%d\n", name, st.Species.PolymerCounts[i])
	}

	a := st.Analysis
	fmt.Fprintf(w, "Chain Length (n/w/Đ) : %.3f / %.3f / %.4f\n", a.NAvgCL, a.WAvgCL, a.DispCL)
	fmt.Fprintf(w, "Mol. Weight (n/w/Đ)  : %.3f / %.3f / %.4f\n", a.NAvgMW, a.WAvgMW, a.DispMW)
	for i, name := range s.Registry.MonomerNames() {
		fmt.Fprintf(w, "  %-12s comp=%.3f nSL=%.3f wSL=%.3f ĐSL=%.4f\n",
			name, a.NAvgComp[i], a.NAvgSL[i], a.WAvgSL[i], a.DispSL[i])
	}

	if s.Trace.Enabled() {
		ts := trace.Summarize(s.Trace)
		fmt.Fprintf(w, "Traced Firings       : %d (%d dropped), mean dt %.4g\n", ts.TotalFirings, ts.Dropped, ts.MeanDt)
		labels := make([]string, 0, len(ts.FiringDistribution))
		for label := range ts.FiringDistribution {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(w, "  %-30s %d (max share %.3f)\n", label, ts.FiringDistribution[label], ts.MaxShare[label])
		}
	}
}
