// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck

import (
	"fmt"
	"log/slog"
	"strings"
)

// Op is the kind of a scenario step.
//
type Op int

// Step kinds.
//
const (
	OpDrive   Op = iota // drive the stimulus port
	OpLearn             // set or clear learning enable
	OpAdvance           // wait for a number of rising edges
	OpSample            // sample an observed port
)

// A Step is a single driver operation of a scenario program.
//
type Step struct {
	Op     Op
	Value  uint8 // OpDrive
	Learn  bool  // OpLearn
	Cycles int   // OpAdvance
	Port   Port  // OpSample
}

// Drive returns a step driving the stimulus port with v.
func Drive(v uint8) Step { return Step{Op: OpDrive, Value: v} }

// Learn returns a step setting learning enable.
func Learn(on bool) Step { return Step{Op: OpLearn, Learn: on} }

// Advance returns a step waiting for n rising edges.
func Advance(n int) Step { return Step{Op: OpAdvance, Cycles: n} }

// Observe returns a step sampling port p.
func Observe(p Port) Step { return Step{Op: OpSample, Port: p} }

func (s Step) String() string {
	switch s.Op {
	case OpDrive:
		return fmt.Sprintf("drive(0x%02x)", s.Value)
	case OpLearn:
		return fmt.Sprintf("learn(%v)", s.Learn)
	case OpAdvance:
		return fmt.Sprintf("advance(%d)", s.Cycles)
	case OpSample:
		return "sample(" + s.Port.String() + ")"
	}
	return "step(?)"
}

// A Program is an ordered sequence of steps.
//
type Program []Step

// Repeat returns p repeated n times.
//
func (p Program) Repeat(n int) Program {
	r := make(Program, 0, len(p)*n)
	for i := 0; i < n; i++ {
		r = append(r, p...)
	}
	return r
}

// Then returns p followed by q.
//
func (p Program) Then(q ...Step) Program {
	r := make(Program, 0, len(p)+len(q))
	return append(append(r, p...), q...)
}

// EveryCycle returns a program sampling port on each of the next n rising
// edges.
//
func EveryCycle(port Port, n int) Program {
	return Program{Advance(1), Observe(port)}.Repeat(n)
}

func (p Program) String() string {
	s := make([]string, len(p))
	for i := range p {
		s[i] = p[i].String()
	}
	return strings.Join(s, " ")
}

// Sample is a port value observed at a given cycle.
//
type Sample struct {
	Cycle uint64
	Port  Port
	Value uint8
}

func (s Sample) String() string {
	return fmt.Sprintf("%s=0x%02x@%d", s.Port, s.Value, s.Cycle)
}

// Samples is a sequence of samples in cycle order.
//
type Samples []Sample

// Values returns the sample values masked with mask.
//
func (ss Samples) Values(mask uint8) []uint8 {
	r := make([]uint8, len(ss))
	for i, s := range ss {
		r[i] = s.Value & mask
	}
	return r
}

func maxOf(vs []uint8) uint8 {
	var m uint8
	for _, v := range vs {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vs []uint8) uint8 {
	if len(vs) == 0 {
		return 0
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// A Session is the execution context of one scenario run: a freshly reset
// circuit, the derived parameters and the scenario assertions.
//
type Session struct {
	*Assert
	Driver *Driver
	Params Params
	Log    *slog.Logger

	samples int
}

// Exec executes p and returns the samples it took.
//
func (s *Session) Exec(p Program) Samples {
	var out Samples
	for _, st := range p {
		switch st.Op {
		case OpDrive:
			s.Driver.SetInput(st.Value)
		case OpLearn:
			s.Driver.SetLearning(st.Learn)
		case OpAdvance:
			s.Driver.Advance(st.Cycles)
		case OpSample:
			out = append(out, s.Sample(st.Port))
		default:
			panic(s.Driver.usage("Exec", "unknown step %v", st))
		}
	}
	return out
}

// Sample samples port p at the current cycle.
//
func (s *Session) Sample(p Port) Sample {
	s.samples++
	return Sample{Cycle: s.Driver.Cycle(), Port: p, Value: s.Driver.Sample(p)}
}

// A Scenario is a verification case: a fixed protocol over the driver and
// the invariants checked on its samples. Run is called with a freshly reset
// circuit.
//
type Scenario struct {
	Name        string
	Description string
	Run         func(s *Session)
}
