// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simlib

import (
	"strconv"

	"github.com/db47h/nmcheck/sim"
)

// Int64 returns the pins as an int64. Pin 0 is lsb.
//
func Int64(c *sim.Circuit, pins []int) int64 {
	var out int64
	for bit, p := range pins {
		if c.Get(p) {
			out |= 1 << uint(bit)
		}
	}
	return out
}

// SetInt64 sets the pins to the given int64 value.
//
func SetInt64(c *sim.Circuit, pins []int, v int64) {
	for bit, p := range pins {
		c.Set(p, v&(1<<uint(bit)) != 0)
	}
}

// Input creates a function based input.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) sim.NewPartFn {
	return (&sim.PartSpec{
		Name:    "INPUT",
		Outputs: []string{pOut},
		Mount: func(s *sim.Socket) []sim.Component {
			out := s.Pin(pOut)
			return []sim.Component{
				func(c *sim.Circuit) { c.Set(out, f()) },
			}
		}}).NewPart
}

// InputN creates an input bus of the given bits size.
//
//	Outputs: out[bits]
//	Function: out = f()
//
func InputN(bits int, f func() int64) sim.NewPartFn {
	return (&sim.PartSpec{
		Name:    "INPUT" + strconv.Itoa(bits),
		Outputs: sim.IO(pOut + "[" + strconv.Itoa(bits) + "]"),
		Mount: func(s *sim.Socket) []sim.Component {
			pins := s.Bus(pOut, bits)
			return []sim.Component{
				func(c *sim.Circuit) { SetInt64(c, pins, f()) },
			}
		}}).NewPart
}

// OutputN creates an output bus probe of the given bits size. The f function
// is called with the bus value on every simulation step.
//
//	Inputs: in[bits]
//	Function: f(in)
//
func OutputN(bits int, f func(int64)) sim.NewPartFn {
	return (&sim.PartSpec{
		Name:   "OUTPUT" + strconv.Itoa(bits),
		Inputs: sim.IO(pIn + "[" + strconv.Itoa(bits) + "]"),
		Mount: func(s *sim.Socket) []sim.Component {
			pins := s.Bus(pIn, bits)
			return []sim.Component{
				func(c *sim.Circuit) { f(Int64(c, pins)) },
			}
		}}).NewPart
}

// BusConn returns a connection string connecting all bits of the part bus
// named pin to the circuit bus named wire.
//
//	BusConn("out", "data", 8) // "out[0..7]=data[0..7]"
//
func BusConn(pin, wire string, bits int) string {
	r := "[0.." + strconv.Itoa(bits-1) + "]"
	return pin + r + "=" + wire + r
}
