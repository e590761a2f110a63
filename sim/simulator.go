// sim/simulator.go
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polykmc/polykmc/sim/analysis"
	"github.com/polykmc/polykmc/sim/registry"
	"github.com/polykmc/polykmc/sim/trace"
)

// StateObserver receives every snapshot. Observers run between steps, never
// during a reaction, and an observer error stops the run.
type StateObserver interface {
	ObserveState(state *SystemState) error
}

// StateObserverFunc adapts a function to StateObserver.
type StateObserverFunc func(state *SystemState) error

func (f StateObserverFunc) ObserveState(state *SystemState) error {
	return f(state)
}

// Simulator is the KMC engine: it holds the clock, the species, the reactions
// and the single random stream, and runs the direct-method loop.
type Simulator struct {
	Config   SimulationConfig
	Options  RunOptions
	Registry *registry.Registry
	Species  *SpeciesSet

	// Reactions are evaluated and selected in this order.
	Reactions []*Reaction

	// Trace is non-nil when Options.TraceLevel records firings.
	Trace *trace.SimulationTrace

	rng          *KMCRandom
	fc           FireContext
	propensities []float64

	time             float64
	iteration        uint64
	stepsSinceReport uint64
	nextAnalysisTime float64
	lastReported     uint64
	reported         bool
	dead             bool

	started   time.Time
	observers []StateObserver
}

// NewSimulator wires a built species set and reaction list into an engine.
func NewSimulator(cfg SimulationConfig, opts RunOptions, reg *registry.Registry,
	species *SpeciesSet, reactions []*Reaction) (*Simulator, error) {

	if err := cfg.Validate(); err != nil {
		return nil, &ModelError{Section: "parameters", Err: err}
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("run options: %w", err)
	}
	if cfg.AnalysisTime > cfg.TerminationTime {
		logrus.Warnf("analysis_time (%g) exceeds termination_time (%g); only initial and final states will be reported",
			cfg.AnalysisTime, cfg.TerminationTime)
	}

	rng := NewKMCRandom(NewSimulationKey(opts.Seed))
	s := &Simulator{
		Config:       cfg,
		Options:      opts,
		Registry:     reg,
		Species:      species,
		Reactions:    reactions,
		rng:          rng,
		propensities: make([]float64, len(reactions)),
		fc: FireContext{
			Arena:              species.Arena(),
			RNG:                rng,
			CompressTerminated: opts.CompressTerminated,
			NumBuckets:         opts.NumBuckets,
			Monomers:           reg,
		},
	}
	if opts.TraceLevel == trace.TraceLevelFirings {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{
			Level:      opts.TraceLevel,
			MaxRecords: opts.TraceMaxRecords,
		})
	}
	return s, nil
}

// AddObserver registers o for every subsequent snapshot.
func (s *Simulator) AddObserver(o StateObserver) {
	s.observers = append(s.observers, o)
}

// Time returns the simulated time.
func (s *Simulator) Time() float64 {
	return s.time
}

// Iteration returns the number of fired events.
func (s *Simulator) Iteration() uint64 {
	return s.iteration
}

// IsDead reports whether the last step found zero total propensity.
func (s *Simulator) IsDead() bool {
	return s.dead
}

// Propensities returns the propensities computed by the last step.
func (s *Simulator) Propensities() []float64 {
	return s.propensities
}

// Step performs one direct-method iteration. It returns false without
// changing state when the total propensity is zero.
func (s *Simulator) Step() (bool, error) {
	s.Species.UpdatePolymerContainers()

	nav := s.Species.NAV()
	for j, r := range s.Reactions {
		s.propensities[j] = r.CalculateRate(nav)
	}

	ev, ok := nextEvent(s.rng, s.propensities)
	if !ok {
		s.dead = true
		return false, nil
	}

	r := s.Reactions[ev.Reaction]
	if ev.Propensity <= 0 {
		return false, s.simulationError(r, ErrZeroPropensity)
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debugf("[t=%.6g] firing %s (a=%g, A=%g)", s.time, r, ev.Propensity, ev.Total)
	}
	if err := r.React(&s.fc); err != nil {
		return false, s.simulationError(r, err)
	}

	s.time += ev.Dt
	s.iteration++
	s.stepsSinceReport++

	if s.Trace.Enabled() {
		s.Trace.RecordFiring(trace.FiringRecord{
			Iteration:       s.iteration - 1,
			Time:            s.time,
			Dt:              ev.Dt,
			Reaction:        r.String(),
			Propensity:      ev.Propensity,
			TotalPropensity: ev.Total,
		})
	}
	return true, nil
}

func (s *Simulator) simulationError(r *Reaction, err error) error {
	return &SimulationError{Iteration: s.iteration, Time: s.time, Reaction: r.String(), Err: err}
}

// Run steps until the termination time or a dead state, reporting a snapshot
// at start, at every analysis interval and at the end. ctx is checked between steps.
func (s *Simulator) Run(ctx context.Context) error {
	s.started = time.Now()
	logrus.Infof("Starting KMC run: %d reactions, termination_time=%g, seed=%d",
		len(s.Reactions), s.Config.TerminationTime, s.Options.Seed)

	if err := s.report(); err != nil {
		return err
	}
	s.nextAnalysisTime = s.Config.AnalysisTime

	for s.time < s.Config.TerminationTime {
		if s.iteration%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		fired, err := s.Step()
		if err != nil {
			return err
		}
		if !fired {
			logrus.Infof("[t=%.6g] dead state after %d iterations: no reaction can fire", s.time, s.iteration)
			break
		}

		if s.time >= s.nextAnalysisTime {
			if err := s.report(); err != nil {
				return err
			}
			for s.nextAnalysisTime <= s.time {
				s.nextAnalysisTime += s.Config.AnalysisTime
			}
		}
	}

	if s.lastReported != s.iteration {
		if err := s.report(); err != nil {
			return err
		}
	}
	logrus.Infof("[t=%.6g] KMC run ended after %d iterations", s.time, s.iteration)
	return nil
}

// report builds a snapshot and hands it to every observer.
func (s *Simulator) report() error {
	state := s.Snapshot()
	s.stepsSinceReport = 0
	s.lastReported = s.iteration
	s.reported = true

	logrus.Infof("[t=%.6g] iteration %d: conversion=%.4f nAvgCL=%.3f dispCL=%.3f",
		state.KMC.KMCTime, state.KMC.Iteration, state.Species.MonomerConversion,
		state.Analysis.NAvgCL, state.Analysis.DispCL)

	for _, o := range s.observers {
		if err := o.ObserveState(state); err != nil {
			return fmt.Errorf("observer at iteration %d: %w", s.iteration, err)
		}
	}
	return nil
}

// Snapshot computes a fresh SystemState from the current species.
// It does not reset the step counter.
func (s *Simulator) Snapshot() *SystemState {
	s.Species.UpdatePolymerContainers()

	kmc := KMCState{
		Iteration: s.iteration,
		KMCStep:   s.stepsSinceReport,
		KMCTime:   s.time,
		NAV:       s.Species.NAV(),
	}
	if !s.started.IsZero() {
		kmc.SimulationTime = time.Since(s.started).Seconds()
		if s.iteration > 0 {
			kmc.SimulationTimePer1e6Steps = kmc.SimulationTime / float64(s.iteration) * 1e6
		}
	}

	summary := analysis.CalculateSequenceSummary(s.Species.RawSequenceData(), s.Options.NumBuckets, s.Registry)
	st := analysis.NewAnalysisState(s.Registry.NumMonomers())
	analysis.AnalyzeChainLengthDist(summary.Matrix, s.Species.MonomerFWs(), &st)
	analysis.AnalyzeSequenceLengthDist(summary.Matrix, &st)

	state := &SystemState{
		KMC:      kmc,
		Species:  s.Species.State(),
		Analysis: st,
	}
	if s.Options.ReportSequences {
		state.Sequence = &SequenceState{KMC: kmc, Stats: summary.Positional}
	}
	return state
}

// Polymers returns every live chain. The pointers are valid until the next Step.
func (s *Simulator) Polymers() []*Polymer {
	ids := s.Species.Polymers()
	arena := s.Species.Arena()
	out := make([]*Polymer, len(ids))
	for idx, id := range ids {
		out[idx] = arena.Get(id)
	}
	return out
}
