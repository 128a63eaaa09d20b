// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Constant wire names. They can be used as the circuit side of any input
// connection.
//
const (
	False = "false"
	True  = "true"
	Clk   = "clk"
)

const (
	cstFalse = iota
	cstTrue
	cstClk
	cstCount
)

// A Component is the update function of a mounted part. It is called once
// per simulation step and must Set all of its outputs.
//
type Component func(c *Circuit)

// Circuit is a runnable circuit simulation.
//
// Wire states are double buffered: components read the states of the
// previous step with Get and write the states of the next step with Set, so
// that every wire takes one step to propagate through a component.
//
type Circuit struct {
	s0    []bool // wire states frame #0
	s1    []bool // wire states frame #1
	cs    []Component
	count int  // wire count
	spc   uint // steps per clock cycle
	tick  uint64

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// stepsPerCycle indicates how many simulation steps to run per clock cycle.
// It is rounded up to the next power of two, with a minimum of 2.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, stepsPerCycle uint, parts Parts) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}

	cc := &Circuit{count: cstCount, spc: roundSPC(stepsPerCycle)}
	ups, err := cc.mount(parts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mount circuit")
	}
	ups = append(ups, updClock)
	cc.cs = ups
	cc.s0 = make([]bool, cc.count)
	cc.s1 = make([]bool, cc.count)
	cc.s0[cstClk] = true
	cc.s0[cstTrue] = true
	cc.s1[cstTrue] = true

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > len(ups) {
		workers = len(ups)
	}
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

func roundSPC(n uint) uint {
	if n < 2 {
		return 2
	}
	p := uint(2)
	for p < n {
		p <<= 1
	}
	return p
}

func updClock(c *Circuit) {
	if c.s0[cstFalse] || !c.s0[cstTrue] {
		panic("true or false constants have been overwritten")
	}
	next := c.tick + 1
	c.s1[cstClk] = next&uint64(c.spc-1) < uint64(c.spc/2)
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for range wc {
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
	c.wg.Done()
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func (c *Circuit) allocPin() int {
	n := c.count
	c.count++
	return n
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint64 { return c.tick }

// SPC returns the number of simulation steps per clock cycle.
//
func (c *Circuit) SPC() uint { return c.spc }

// Cycles returns the number of rising clock edges simulated so far.
//
func (c *Circuit) Cycles() uint64 {
	return (c.tick + uint64(c.spc) - 1) / uint64(c.spc)
}

// AtTick returns true if the current step is at the beginning of a clock cycle
// (rising edge of Clk).
//
func (c *Circuit) AtTick() bool {
	return c.tick&uint64(c.spc-1) == 0
}

// AtTock returns true if the current step is at the beginning of the second
// half of a clock cycle (falling edge of Clk).
//
func (c *Circuit) AtTock() bool {
	return (c.tick+uint64(c.spc/2))&uint64(c.spc-1) == 0
}

// Get returns the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) bool { return c.s0[n] }

// Set sets the state s of pin n for the next step.
//
func (c *Circuit) Set(n int, s bool) { c.s1[n] = s }

// Step advances the simulation by one step.
//
func (c *Circuit) Step() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}
	c.wg.Wait()
	c.tick++
	c.s0, c.s1 = c.s1, c.s0
}

// Tick runs the simulation until the beginning of the next half clock cycle.
//
func (c *Circuit) Tick() {
	for c.Get(cstClk) {
		c.Step()
	}
}

// Tock runs the simulation until the beginning of the next clock cycle.
// Once Tock returns, the output of clocked components have stabilized.
//
func (c *Circuit) Tock() {
	for !c.Get(cstClk) {
		c.Step()
	}
}

// TickTock runs the simulation for a whole clock cycle.
//
func (c *Circuit) TickTock() {
	c.Tick()
	c.Tock()
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }
