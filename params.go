// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck

import (
	"github.com/pkg/errors"
)

// Structural constants of the core timing model.
//
const (
	// PipelineOverhead is the number of cycles added to the neuron count for
	// a complete network update.
	PipelineOverhead = 2
	// Repetition is the repetition factor of the stabilization and spike
	// observation windows.
	Repetition = 5
)

// Primitives are the hardware parameters of the circuit under test. All
// timing windows used by the scenarios derive from them.
//
type Primitives struct {
	Neurons            int `json:"neurons" yaml:"neurons"`
	WeightBits         int `json:"weight_bits" yaml:"weight_bits"`
	MembraneTau        int `json:"membrane_tau" yaml:"membrane_tau"`
	RecoveryTau        int `json:"recovery_tau" yaml:"recovery_tau"`
	RefractoryPeriod   int `json:"refractory_period" yaml:"refractory_period"`
	StateMachineStates int `json:"state_machine_states" yaml:"state_machine_states"`
	Threshold          int `json:"threshold" yaml:"threshold"`
}

// DefaultPrimitives returns the parameters of the reference circuit.
//
func DefaultPrimitives() Primitives {
	return Primitives{
		Neurons:            7,
		WeightBits:         4,
		MembraneTau:        20,
		RecoveryTau:        50,
		RefractoryPeriod:   10,
		StateMachineStates: 3,
		Threshold:          20,
	}
}

// Validate checks that the parameters fit the 8 bit pin contract.
//
func (p Primitives) Validate() error {
	switch {
	case p.Neurons < 3 || p.Neurons > 8:
		return errors.Errorf("neuron count must be in 3..8, got %d", p.Neurons)
	case p.WeightBits < 2 || p.WeightBits > 8:
		return errors.Errorf("weight width must be in 2..8, got %d", p.WeightBits)
	case p.MembraneTau <= 0, p.RecoveryTau <= 0:
		return errors.Errorf("time constants must be positive, got membrane %d, recovery %d", p.MembraneTau, p.RecoveryTau)
	case p.RefractoryPeriod <= 0:
		return errors.Errorf("refractory period must be positive, got %d", p.RefractoryPeriod)
	case p.StateMachineStates < 3:
		return errors.Errorf("learning state machine needs at least 3 states, got %d", p.StateMachineStates)
	case p.Threshold <= 0:
		return errors.Errorf("firing threshold must be positive, got %d", p.Threshold)
	}
	return nil
}

// Params holds the primitives together with the timing windows derived from
// them. A Params value must only be built by Derive.
//
type Params struct {
	Primitives

	MaxWeight           int `json:"max_weight"`
	StateMachineCycle   int `json:"state_machine_cycle"`
	NeuronCycles        int `json:"neuron_cycles"`
	LearningCycles      int `json:"learning_cycles"`
	StabilizationCycles int `json:"stabilization_cycles"`
	WeightUpdateDelay   int `json:"weight_update_delay"`
	NeuronStabilization int `json:"neuron_stabilization"`
	SpikeWindow         int `json:"spike_window"`
	TotalSpikeCheck     int `json:"total_spike_check"`
}

// Derive computes the derived timing windows. It is a pure function of p.
//
func Derive(p Primitives) Params {
	d := Params{Primitives: p}
	d.MaxWeight = 1<<uint(p.WeightBits-1) - 1
	d.StateMachineCycle = p.StateMachineStates
	d.NeuronCycles = p.Neurons + PipelineOverhead
	d.LearningCycles = p.Neurons * d.StateMachineCycle
	d.StabilizationCycles = d.NeuronCycles * Repetition
	d.WeightUpdateDelay = d.StateMachineCycle * p.Neurons
	d.NeuronStabilization = p.MembraneTau + p.RecoveryTau
	d.SpikeWindow = p.MembraneTau * Repetition
	d.TotalSpikeCheck = d.SpikeWindow + d.NeuronCycles
	return d
}

// DefaultParams returns Derive(DefaultPrimitives()).
//
func DefaultParams() Params { return Derive(DefaultPrimitives()) }
