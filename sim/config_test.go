package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polykmc/polykmc/sim/analysis"
	"github.com/polykmc/polykmc/sim/trace"
)

func TestSimulationConfig_Validate(t *testing.T) {
	valid := SimulationConfig{NumParticles: 1000, TerminationTime: 10, AnalysisTime: 1}

	tests := []struct {
		name    string
		mutate  func(c *SimulationConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *SimulationConfig) {}},
		{name: "zero particles", mutate: func(c *SimulationConfig) { c.NumParticles = 0 }, wantErr: "num_units"},
		{name: "negative termination", mutate: func(c *SimulationConfig) { c.TerminationTime = -1 }, wantErr: "termination_time must be positive"},
		{name: "infinite termination", mutate: func(c *SimulationConfig) { c.TerminationTime = math.Inf(1) }, wantErr: "finite"},
		{name: "zero analysis", mutate: func(c *SimulationConfig) { c.AnalysisTime = 0 }, wantErr: "analysis_time"},
		{name: "NaN analysis", mutate: func(c *SimulationConfig) { c.AnalysisTime = math.NaN() }, wantErr: "finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewRunOptions_Defaults(t *testing.T) {
	opts := NewRunOptions(5, false, true)
	assert.Equal(t, int64(5), opts.Seed)
	assert.True(t, opts.CompressTerminated, "compression on when polymers are not reported")
	assert.Equal(t, analysis.NumBuckets, opts.NumBuckets)
	assert.Equal(t, trace.TraceLevelNone, opts.TraceLevel)
	assert.Equal(t, DefaultTraceMaxRecords, opts.TraceMaxRecords)
	assert.NoError(t, opts.validate())

	withPolymers := NewRunOptions(5, true, false)
	assert.False(t, withPolymers.CompressTerminated)
	assert.NoError(t, withPolymers.validate())
}

func TestRunOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *RunOptions)
		wantErr string
	}{
		{name: "zero buckets", mutate: func(o *RunOptions) { o.NumBuckets = 0 }, wantErr: "buckets"},
		{name: "compress while reporting", mutate: func(o *RunOptions) {
			o.ReportPolymers = true
			o.CompressTerminated = true
		}, wantErr: "cannot compress"},
		{name: "negative trace cap", mutate: func(o *RunOptions) { o.TraceMaxRecords = -1 }, wantErr: "trace max records"},
		{name: "unknown trace level", mutate: func(o *RunOptions) { o.TraceLevel = "verbose" }, wantErr: "trace level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewRunOptions(1, false, false)
			tt.mutate(&o)
			assert.ErrorContains(t, o.validate(), tt.wantErr)
		})
	}
}
