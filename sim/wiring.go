// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Connection connects a part pin to a named wire of the circuit.
//
type Connection struct {
	Pin  string
	Wire string
}

// ParseConnections parses a connection configuration like
// "partPinX=wireY, ...". Bus ranges are expanded on both sides:
//
//	"in[0..3]=bus[4..7]"
//
// expands to in[0]=bus[4], in[1]=bus[5], in[2]=bus[6], in[3]=bus[7]. A single
// wire on the right hand side is connected to every pin of the left hand
// side range (this is mostly useful for tying a bus to false).
//
func ParseConnections(c string) ([]Connection, error) {
	var conns []Connection
	for _, item := range strings.Split(c, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		i := strings.IndexByte(item, '=')
		if i < 0 {
			return nil, errors.Errorf("invalid connection %q: missing '='", item)
		}
		k, v := strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+1:])
		if k == "" || v == "" {
			return nil, errors.Errorf("invalid connection %q", item)
		}
		ks, err := expandRange(k)
		if err != nil {
			return nil, errors.Wrap(err, "expand pin "+k)
		}
		vs, err := expandRange(v)
		if err != nil {
			return nil, errors.Wrap(err, "expand wire "+v)
		}
		switch {
		case len(ks) == len(vs):
			for i := range ks {
				conns = append(conns, Connection{ks[i], vs[i]})
			}
		case len(vs) == 1:
			for _, k := range ks {
				conns = append(conns, Connection{k, vs[0]})
			}
		default:
			return nil, errors.Errorf("pin count mismatch in connection %q", item)
		}
	}
	return conns, nil
}

func expandRange(name string) ([]string, error) {
	i := strings.IndexByte(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name")
	}
	n := name[i+1:]
	j := strings.IndexByte(n, ']')
	if j < 0 || j != len(n)-1 {
		return nil, errors.New("no terminating ] in bus range")
	}
	n = n[:j]
	k := strings.Index(n, "..")
	if k < 0 {
		if _, err := strconv.Atoi(n); err != nil {
			return nil, errors.Wrap(err, "bad bus index")
		}
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:k])
	if err != nil {
		return nil, errors.Wrap(err, "bad range start")
	}
	end, err := strconv.Atoi(n[k+2:])
	if err != nil {
		return nil, errors.Wrap(err, "bad range end")
	}
	if start > end {
		return nil, errors.Errorf("empty bus range %d..%d", start, end)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}

// IO expands an I/O specification string like "a, b, bus[8]" into individual
// pin names. Buses are expanded to one pin per bit:
//
//	IO("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
// IO panics on malformed input.
//
func IO(spec string) []string {
	var out []string
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		i := strings.IndexByte(name, '[')
		if i < 0 {
			out = append(out, name)
			continue
		}
		if i == 0 || !strings.HasSuffix(name, "]") {
			panic(errors.Errorf("invalid bus specification %q", name))
		}
		bits, err := strconv.Atoi(name[i+1 : len(name)-1])
		if err != nil || bits <= 0 {
			panic(errors.Errorf("invalid bus size in %q", name))
		}
		for b := 0; b < bits; b++ {
			out = append(out, BusPinName(name[:i], b))
		}
	}
	return out
}
