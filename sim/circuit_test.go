// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim_test

import (
	"strings"
	"testing"

	"github.com/db47h/nmcheck/sim"
	"github.com/pkg/errors"
)

const testSPC = 4

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

var notSpec = &sim.PartSpec{
	Name:    "NOT",
	Inputs:  []string{"in"},
	Outputs: []string{"out"},
	Mount: func(s *sim.Socket) []sim.Component {
		in, out := s.Pin("in"), s.Pin("out")
		return []sim.Component{
			func(c *sim.Circuit) { c.Set(out, !c.Get(in)) },
		}
	}}

// dff latches in on every rising edge.
var dffSpec = &sim.PartSpec{
	Name:    "DFF",
	Inputs:  []string{"in"},
	Outputs: []string{"out"},
	Mount: func(s *sim.Socket) []sim.Component {
		in, out := s.Pin("in"), s.Pin("out")
		var q bool
		return []sim.Component{
			func(c *sim.Circuit) {
				if c.AtTick() {
					q = c.Get(in)
				}
				c.Set(out, q)
			}}
	}}

func input(f func() bool) sim.NewPartFn {
	return (&sim.PartSpec{
		Name:    "IN",
		Outputs: []string{"out"},
		Mount: func(s *sim.Socket) []sim.Component {
			out := s.Pin("out")
			return []sim.Component{func(c *sim.Circuit) { c.Set(out, f()) }}
		}}).NewPart
}

func output(f func(bool)) sim.NewPartFn {
	return (&sim.PartSpec{
		Name:   "OUT",
		Inputs: []string{"in"},
		Mount: func(s *sim.Socket) []sim.Component {
			in := s.Pin("in")
			return []sim.Component{func(c *sim.Circuit) { f(c.Get(in)) }}
		}}).NewPart
}

func TestNewCircuit_wiring(t *testing.T) {
	td := []struct {
		name  string
		parts func() sim.Parts
		err   string
	}{
		{"empty", func() sim.Parts { return nil }, "empty part list"},
		{"unknown pin", func() sim.Parts {
			return sim.Parts{notSpec.NewPart("in=true, foo=x")}
		}, `invalid pin name "foo"`},
		{"two drivers", func() sim.Parts {
			return sim.Parts{
				notSpec.NewPart("in=true, out=x"),
				notSpec.NewPart("in=false, out=x"),
			}
		}, "already driven"},
		{"undriven wire", func() sim.Parts {
			return sim.Parts{notSpec.NewPart("in=nowhere, out=x")}
		}, `wire "nowhere" not connected to any output`},
		{"output to true", func() sim.Parts {
			return sim.Parts{notSpec.NewPart("in=false, out=true")}
		}, "output connected to constant"},
		{"output to clk", func() sim.Parts {
			return sim.Parts{notSpec.NewPart("in=false, out=clk")}
		}, "output connected to constant"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			c, err := sim.NewCircuit(1, testSPC, d.parts())
			if err == nil {
				c.Dispose()
				t.Fatalf("expected error containing %q", d.err)
			}
			trace(t, err)
			if !strings.Contains(err.Error(), d.err) {
				t.Fatalf("expected error containing %q, got %q", d.err, err)
			}
		})
	}
}

func TestNewCircuit_discardedOutput(t *testing.T) {
	c, err := sim.NewCircuit(0, testSPC, sim.Parts{notSpec.NewPart("in=false, out=false")})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	// the constant check in the clock updater panics if out was wired to false.
	c.TickTock()
}

func TestCircuit_clock(t *testing.T) {
	for _, spc := range []uint{0, 2, 3, 4, 16} {
		var clk []bool
		c, err := sim.NewCircuit(0, spc, sim.Parts{
			output(func(b bool) { clk = append(clk, b) })("in=clk"),
		})
		if err != nil {
			t.Fatal(err)
		}
		exp := spc
		if exp < 2 {
			exp = 2
		} else if exp == 3 {
			exp = 4
		}
		if c.SPC() != exp {
			t.Errorf("spc %d: SPC() = %d, expected %d", spc, c.SPC(), exp)
		}
		for i := 0; i < 3; i++ {
			if !c.AtTick() {
				t.Errorf("spc %d: cycle %d does not start on a rising edge", spc, i)
			}
			c.TickTock()
		}
		if c.Steps() != 3*uint64(exp) || c.Cycles() != 3 {
			t.Errorf("spc %d: steps = %d, cycles = %d", spc, c.Steps(), c.Cycles())
		}
		// first half high, second half low
		for i, v := range clk {
			if want := uint(i)%exp < exp/2; v != want {
				t.Fatalf("spc %d: clk at step %d = %v", spc, i, v)
			}
		}
		c.Dispose()
	}
}

func TestCircuit_latency(t *testing.T) {
	var in, out bool
	c, err := sim.NewCircuit(0, testSPC, sim.Parts{
		input(func() bool { return in })("out=d"),
		dffSpec.NewPart("in=d, out=q"),
		notSpec.NewPart("in=q, out=nq"),
		output(func(b bool) { out = b })("in=nq"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	c.TickTock()
	if !out {
		t.Fatal("expected out = true after reset cycle")
	}
	in = true
	// the value driven between cycles misses the next rising edge.
	c.TickTock()
	if !out {
		t.Fatal("dff latched a value on the same edge it was driven")
	}
	c.TickTock()
	if out {
		t.Fatal("dff did not latch the driven value on the second edge")
	}
}

func TestCircuit_workers(t *testing.T) {
	var outs [8]bool
	parts := sim.Parts{input(func() bool { return true })("out=a")}
	for i := range outs {
		o := &outs[i]
		wire := sim.BusPinName("n", i)
		parts = append(parts,
			notSpec.NewPart("in=a, out="+wire),
			output(func(b bool) { *o = b })("in="+wire))
	}
	c, err := sim.NewCircuit(3, testSPC, parts)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	if c.Size() != len(parts)+1 {
		t.Fatalf("Size() = %d, expected %d", c.Size(), len(parts)+1)
	}
	c.TickTock()
	for i, o := range outs {
		if o {
			t.Errorf("output %d = true", i)
		}
	}
}
