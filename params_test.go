// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck_test

import (
	"testing"

	"github.com/db47h/nmcheck"
	"github.com/stretchr/testify/assert"
)

func TestDerive_defaults(t *testing.T) {
	p := nmcheck.DefaultParams()
	assert.Equal(t, nmcheck.DefaultPrimitives(), p.Primitives)
	for _, tt := range []struct {
		name      string
		got, want int
	}{
		{"MaxWeight", p.MaxWeight, 7},
		{"StateMachineCycle", p.StateMachineCycle, 3},
		{"NeuronCycles", p.NeuronCycles, 9},
		{"LearningCycles", p.LearningCycles, 21},
		{"StabilizationCycles", p.StabilizationCycles, 45},
		{"WeightUpdateDelay", p.WeightUpdateDelay, 21},
		{"NeuronStabilization", p.NeuronStabilization, 70},
		{"SpikeWindow", p.SpikeWindow, 100},
		{"TotalSpikeCheck", p.TotalSpikeCheck, 109},
	} {
		assert.Equal(t, tt.want, tt.got, tt.name)
	}
}

func TestDerive_deterministic(t *testing.T) {
	p := nmcheck.DefaultPrimitives()
	p.Neurons, p.MembraneTau = 5, 13
	assert.Equal(t, nmcheck.Derive(p), nmcheck.Derive(p))
	assert.Equal(t, nmcheck.DefaultParams(), nmcheck.DefaultParams())
}

func TestDerive_maxWeight(t *testing.T) {
	for bits, want := range map[int]int{2: 1, 3: 3, 4: 7, 5: 15, 8: 127} {
		p := nmcheck.DefaultPrimitives()
		p.WeightBits = bits
		assert.Equal(t, want, nmcheck.Derive(p).MaxWeight, "weight bits %d", bits)
	}
}

func TestDerive_neurons(t *testing.T) {
	p := nmcheck.DefaultPrimitives()
	p.Neurons = 4
	d := nmcheck.Derive(p)
	assert.Equal(t, 6, d.NeuronCycles)
	assert.Equal(t, 12, d.LearningCycles)
	assert.Equal(t, 30, d.StabilizationCycles)
	assert.Equal(t, 106, d.TotalSpikeCheck)
}

func TestPrimitives_Validate(t *testing.T) {
	assert.NoError(t, nmcheck.DefaultPrimitives().Validate())
	tests := []struct {
		name   string
		modify func(p *nmcheck.Primitives)
		errMsg string
	}{
		{"few neurons", func(p *nmcheck.Primitives) { p.Neurons = 2 }, "neuron count"},
		{"many neurons", func(p *nmcheck.Primitives) { p.Neurons = 9 }, "neuron count"},
		{"narrow weights", func(p *nmcheck.Primitives) { p.WeightBits = 1 }, "weight width"},
		{"wide weights", func(p *nmcheck.Primitives) { p.WeightBits = 9 }, "weight width"},
		{"membrane", func(p *nmcheck.Primitives) { p.MembraneTau = 0 }, "time constants"},
		{"recovery", func(p *nmcheck.Primitives) { p.RecoveryTau = -3 }, "time constants"},
		{"refractory", func(p *nmcheck.Primitives) { p.RefractoryPeriod = 0 }, "refractory period"},
		{"states", func(p *nmcheck.Primitives) { p.StateMachineStates = 2 }, "at least 3 states"},
		{"threshold", func(p *nmcheck.Primitives) { p.Threshold = 0 }, "firing threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := nmcheck.DefaultPrimitives()
			tt.modify(&p)
			assert.ErrorContains(t, p.Validate(), tt.errMsg)
		})
	}
}
