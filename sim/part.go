// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"github.com/pkg/errors"
)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &sim.PartSpec{
//		Name:    "Not",
//		Inputs:  []string{"in"},
//		Outputs: []string{"out"},
//		Mount: func(s *sim.Socket) []sim.Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []sim.Component{
//				func(c *sim.Circuit) { c.Set(out, !c.Get(in)) },
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Use IO() to expand a description like "a, bus[2]".
	Inputs []string
	// Output pin names.
	Outputs []string
	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	cs, err := ParseConnections(connections)
	if err != nil {
		panic(errors.Wrap(err, p.Name))
	}
	return Part{p, cs}
}

func (p *PartSpec) isInput(name string) bool {
	for _, n := range p.Inputs {
		if n == name {
			return true
		}
	}
	return false
}

func (p *PartSpec) isOutput(name string) bool {
	for _, n := range p.Outputs {
		if n == name {
			return true
		}
	}
	return false
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(connections string) Part

// A Part wraps a part specification together with its connections within a
// circuit.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// mount allocates a wire for every distinct wire name used in the part
// connections and mounts each part.
//
// Each wire must be driven by exactly one output, or be one of the constant
// wires. Unconnected inputs are wired to False.
//
func (c *Circuit) mount(parts Parts) ([]Component, error) {
	wires := map[string]int{False: cstFalse, True: cstTrue, Clk: cstClk}
	drivers := make(map[string]string)
	var readers []string

	wire := func(name string) int {
		n, ok := wires[name]
		if !ok {
			n = c.allocPin()
			wires[name] = n
		}
		return n
	}

	socks := make([]*Socket, len(parts))
	for i, p := range parts {
		s := newSocket(c)
		for _, cn := range p.Conns {
			switch {
			case p.isInput(cn.Pin):
				s.m[cn.Pin] = wire(cn.Wire)
				readers = append(readers, cn.Wire)
			case p.isOutput(cn.Pin):
				switch cn.Wire {
				case False:
					// discarded output
					s.m[cn.Pin] = c.allocPin()
					continue
				case True, Clk:
					return nil, errors.Errorf("%s.%s: output connected to constant %q", p.Name, cn.Pin, cn.Wire)
				}
				if d, ok := drivers[cn.Wire]; ok {
					return nil, errors.Errorf("%s.%s: wire %q already driven by %s", p.Name, cn.Pin, cn.Wire, d)
				}
				drivers[cn.Wire] = p.Name + "." + cn.Pin
				s.m[cn.Pin] = wire(cn.Wire)
			default:
				return nil, errors.Errorf("invalid pin name %q for part %s", cn.Pin, p.Name)
			}
		}
		for _, in := range p.Inputs {
			if _, ok := s.m[in]; !ok {
				s.m[in] = cstFalse
			}
		}
		for _, out := range p.Outputs {
			if _, ok := s.m[out]; !ok {
				s.m[out] = c.allocPin()
			}
		}
		socks[i] = s
	}

	for _, r := range readers {
		if _, ok := drivers[r]; ok || r == False || r == True || r == Clk {
			continue
		}
		return nil, errors.Errorf("wire %q not connected to any output", r)
	}

	var cs []Component
	for i, p := range parts {
		if p.Mount == nil {
			return nil, errors.Errorf("part %s has no mount function", p.Name)
		}
		cs = append(cs, p.Mount(socks[i])...)
	}
	return cs, nil
}
