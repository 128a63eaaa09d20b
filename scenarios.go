// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Stimulus patterns of the scenarios.
const (
	hebbianPattern   = 0x03 // two adjacent neurons
	hebbianRounds    = 5
	recallPattern    = 0x07 // three active neurons
	recallPartial    = 0x03
	stabilityPattern = 0x05
	noisePattern     = 0x05
	noiseLevels      = 2
)

// Scenarios returns all verification scenarios in execution order.
//
func Scenarios() []Scenario {
	return []Scenario{
		{"reset_state", "idle outputs stay at zero after reset", resetState},
		{"single_unit_activation", "a single driven neuron spikes, then goes refractory", singleUnitActivation},
		{"hebbian_learning", "co-active neurons strengthen monotonically up to the weight limit", hebbianLearning},
		{"pattern_recall", "a partial pattern recalls the learned one", patternRecall},
		{"network_stability", "activity stays bounded without learning", networkStability},
		{"noise_robustness", "a learned pattern survives input noise", noiseRobustness},
	}
}

// Lookup returns the named scenarios, in the order given. It returns all
// scenarios if no name is given.
//
func Lookup(names ...string) ([]Scenario, error) {
	all := Scenarios()
	if len(names) == 0 {
		return all, nil
	}
	r := make([]Scenario, 0, len(names))
	for _, n := range names {
		found := false
		for _, sc := range all {
			if sc.Name == n {
				r = append(r, sc)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("unknown scenario %q (valid: %s)", n, strings.Join(scenarioNames(all), ", "))
		}
	}
	return r, nil
}

func scenarioNames(scs []Scenario) []string {
	names := make([]string, len(scs))
	for i, sc := range scs {
		names[i] = sc.Name
	}
	return names
}

// InjectNoise flips the level low order bits of pattern.
//
func InjectNoise(pattern uint8, level int) uint8 {
	return pattern ^ uint8(1<<uint(level)-1)
}

func resetState(s *Session) {
	samples := s.Exec(Program{Advance(1), Observe(Primary), Observe(Secondary)}.Repeat(s.Params.NeuronCycles))
	for _, smp := range samples {
		s.Checkf(smp.Value == 0, smp, "idle %s must be zero", smp.Port)
	}
	s.Log.Info("reset state verified", "samples", len(samples))
}

func singleUnitActivation(s *Session) {
	p := s.Params
	s.Exec(Program{Drive(0x01), Learn(false), Advance(p.NeuronStabilization)})

	var first Sample
	spike := false
	for i := 0; i < p.TotalSpikeCheck; i++ {
		s.Driver.Advance(1)
		if smp := s.Sample(Secondary); smp.Value&SpikeFlag != 0 {
			first, spike = smp, true
			break
		}
	}
	if !s.Checkf(spike, p.TotalSpikeCheck, "no spike within %d cycles", p.TotalSpikeCheck) {
		return
	}

	refractory := false
	var last Sample
	for i := 0; i < p.RefractoryPeriod; i++ {
		s.Driver.Advance(1)
		if last = s.Sample(Secondary); last.Value&SpikeFlag == 0 {
			refractory = true
			break
		}
	}
	s.Checkf(refractory, []Sample{first, last}, "no refractory within %d cycles of the spike", p.RefractoryPeriod)
	s.Log.Info("single unit activation verified", "spike", first.Cycle)
}

func hebbianLearning(s *Session) {
	p := s.Params
	s.Exec(Program{Learn(true), Drive(hebbianPattern), Advance(p.StateMachineCycle)})

	round := Program{Advance(p.WeightUpdateDelay), Advance(p.StateMachineCycle - 1), Observe(Primary)}
	act := s.Exec(round.Repeat(hebbianRounds)).Values(ActivityMask)
	for i := 1; i < len(act); i++ {
		s.Checkf(act[i] >= act[i-1], act, "weight update failed: activity decreased in round %d", i)
	}
	hi, lo := maxOf(act), minOf(act)
	s.Checkf(int(hi) <= p.MaxWeight, hi, "activity exceeded the %d bit weight limit %d", p.WeightBits, p.MaxWeight)
	s.Check(hi > lo, "no learning progression", act)
	s.Log.Info("hebbian learning verified", "activity", act)
}

func patternRecall(s *Session) {
	p := s.Params
	act := s.Exec(Program{
		Learn(true), Drive(recallPattern), Advance(p.LearningCycles * 5),
		Learn(false), Drive(recallPartial), Advance(p.StabilizationCycles),
	}.Then(EveryCycle(Primary, p.NeuronCycles)...)).Values(ActivityMask)

	hi := maxOf(act)
	s.Check(hi > recallPartial, "pattern completion failed", act)
	s.Checkf(int(hi) <= p.MaxWeight, hi, "activity exceeded weight limit %d", p.MaxWeight)
	s.Log.Info("pattern recall verified", "max_activity", hi)
}

func networkStability(s *Session) {
	p := s.Params
	rounds := p.StabilizationCycles / p.NeuronCycles
	act := s.Exec(Program{Drive(stabilityPattern)}.Then(
		Program{Advance(p.NeuronCycles), Observe(Primary)}.Repeat(rounds)...)).Values(ActivityMask)

	// the first round is still settling: it only counts towards the maximum.
	hi, lo := maxOf(act), minOf(act[1:])
	s.Checkf(int(hi) <= p.MaxWeight, act, "activity exceeded weight range %d", p.MaxWeight)
	s.Checkf(int(hi) < p.Neurons, act, "too many neurons active (limit %d)", p.Neurons)
	s.Check(lo > 0, "network activity died out", act)
	s.Checkf(int(hi-lo) <= p.MaxWeight/2, act, "excessive activity oscillation: range %d exceeds %d", hi-lo, p.MaxWeight/2)
	s.Log.Info("network stability verified", "activity", act)
}

func noiseRobustness(s *Session) {
	p := s.Params
	s.Exec(Program{Learn(true), Drive(noisePattern), Advance(p.LearningCycles * 3), Learn(false)})

	for level := 1; level <= noiseLevels; level++ {
		noisy := InjectNoise(noisePattern, level)
		smp := s.Exec(Program{Drive(noisy), Advance(p.StabilizationCycles)}.Then(EveryCycle(Secondary, p.NeuronCycles)...))
		var recovered uint8
		for _, v := range smp.Values(0xf0) {
			if v>>4 > recovered {
				recovered = v >> 4
			}
		}
		s.Checkf(recovered != 0, smp, "failed to recover pattern 0x%02x from noise level %d (input 0x%02x)", noisePattern, level, noisy)
		s.Checkf(bits.OnesCount8(recovered) <= p.MaxWeight, recovered, "recovered pattern exceeded weight limit at noise level %d", level)
		s.Log.Info("noise level verified", "level", level, "input", noisy, "recovered", recovered)
	}
}
