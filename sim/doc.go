// Package sim provides the kinetic Monte Carlo engine for free-radical
// (co)polymerization.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - polymer.go, polymer_type.go: chains, the arena that owns them, and the
//     containers reactions draw chains from
//   - reaction.go, schema.go: the ten reaction kinds, their rate laws and the
//     mutation each applies when fired
//   - event.go, simulator.go: direct-method selection and the stepping loop
//
// # Architecture
//
// The sim package holds the species and reaction model and the engine;
// supporting packages live beside it:
//   - sim/registry/: species identities and dense ID indices
//   - sim/analysis/: positional sequence stats and distribution moments
//   - sim/model/: model input (YAML and sectioned text)
//   - sim/output/: CSV, YAML and polymer-dump result files
//   - sim/store/: SQLite result sink
//   - sim/trace/: reaction firing trace
//
// BuildModel turns a model.Model into a Simulator. Run steps the simulator and
// hands a SystemState to every StateObserver at each analysis interval.
//
// The engine is single-threaded. All random draws come from one KMCRandom, so
// a seed and a model fix the trajectory.
package sim
