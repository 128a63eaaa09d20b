// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/db47h/nmcheck"
	"github.com/db47h/nmcheck/sim"
	sl "github.com/db47h/nmcheck/simlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// edgeFn is called on every rising edge with the driven control and stimulus
// values and returns the next primary and secondary outputs.
type edgeFn func(ctrl, stim uint8) (uo, uio uint8)

// testCUT returns a circuit under test with the core pin contract. newFn is
// called once per mounted circuit.
func testCUT(name string, newFn func() edgeFn) func(nmcheck.Params) sim.NewPartFn {
	return func(nmcheck.Params) sim.NewPartFn {
		return (&sim.PartSpec{
			Name:    name,
			Inputs:  sim.IO("rst_n, ena, ui_in[8], uio_in[8]"),
			Outputs: sim.IO("uo_out[8], uio_out[8]"),
			Mount: func(s *sim.Socket) []sim.Component {
				ctrl, stim := s.Bus(sl.PinControl, sl.PortBits), s.Bus(sl.PinStimulus, sl.PortBits)
				uo, uio := s.Bus(sl.PinPrimary, sl.PortBits), s.Bus(sl.PinSecondary, sl.PortBits)
				var qo, qio uint8
				f := newFn()
				return []sim.Component{
					func(c *sim.Circuit) {
						if c.AtTick() {
							qo, qio = f(uint8(sl.Int64(c, ctrl)), uint8(sl.Int64(c, stim)))
						}
						sl.SetInt64(c, uo, int64(qo))
						sl.SetInt64(c, uio, int64(qio))
					}}
			}}).NewPart
	}
}

// registerCUT latches stimulus into the primary port and control into the
// secondary port.
var registerCUT = testCUT("REGISTER", func() edgeFn {
	return func(ctrl, stim uint8) (uint8, uint8) { return stim, ctrl }
})

func constCUT(uo, uio uint8) func(nmcheck.Params) sim.NewPartFn {
	return testCUT(fmt.Sprintf("CONST_%02x_%02x", uo, uio), func() edgeFn {
		return func(uint8, uint8) (uint8, uint8) { return uo, uio }
	})
}

// fadingCUT starts at full activity and loses one level every 20 cycles
// with learning enabled.
var fadingCUT = testCUT("FADING", func() edgeFn {
	var n int
	return func(ctrl, _ uint8) (uint8, uint8) {
		if ctrl&0x01 != 0 {
			n++
		}
		if v := 7 - n/20; v > 0 {
			return uint8(v), 0
		}
		return 0, 0
	}
})

// ringingCUT alternates activity between 1 and 6 on every edge.
var ringingCUT = testCUT("RINGING", func() edgeFn {
	var odd bool
	return func(uint8, uint8) (uint8, uint8) {
		odd = !odd
		if odd {
			return 1, 0
		}
		return 6, 0
	}
})

func newDriver(t *testing.T, cut func(nmcheck.Params) sim.NewPartFn) *nmcheck.Driver {
	t.Helper()
	p := nmcheck.DefaultParams()
	d, err := nmcheck.NewDriver(p, cut(p))
	require.NoError(t, err)
	t.Cleanup(d.Stop)
	return d
}

func startDriver(t *testing.T, cut func(nmcheck.Params) sim.NewPartFn) *nmcheck.Driver {
	t.Helper()
	d := newDriver(t, cut)
	d.Start(context.Background())
	d.ResetAndInit()
	return d
}

// usagePanic checks that f panics with a *UsageError reported by op.
func usagePanic(t *testing.T, op string, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		v := recover()
		ue, ok := v.(*nmcheck.UsageError)
		if !assert.Truef(t, ok, "expected a *UsageError panic, got %v", v) {
			return
		}
		assert.Equal(t, op, ue.Op)
		assert.Contains(t, fmt.Sprintf("%+v", ue), "(*Driver).usage")
	}()
	f()
}

func TestDriver_resetAndInit(t *testing.T) {
	d := startDriver(t, nmcheck.NeuroCore)
	p := d.Params()
	assert.Equal(t, uint64(3*p.NeuronCycles), d.Cycle())
	assert.Zero(t, d.SamplePrimary())
	assert.Zero(t, d.SampleSecondary())
}

func TestDriver_latency(t *testing.T) {
	d := startDriver(t, registerCUT)

	d.SetInput(0x5a)
	d.SetLearning(true)
	d.Advance(1)
	assert.Zero(t, d.Sample(nmcheck.Primary), "stimulus latched on the edge following the write")
	assert.Zero(t, d.Sample(nmcheck.Secondary), "control latched on the edge following the write")
	d.Advance(1)
	assert.Equal(t, uint8(0x5a), d.Sample(nmcheck.Primary))
	assert.Equal(t, uint8(0x01), d.Sample(nmcheck.Secondary))

	d.SetLearning(false)
	d.Advance(2)
	assert.Zero(t, d.Sample(nmcheck.Secondary))
	assert.Equal(t, uint8(0x5a), d.Sample(nmcheck.Primary))
}

func TestDriver_cycle(t *testing.T) {
	d := startDriver(t, registerCUT)
	c := d.Cycle()
	d.Advance(0)
	assert.Equal(t, c, d.Cycle())
	d.Advance(17)
	assert.Equal(t, c+17, d.Cycle())
	d.Sample(nmcheck.Primary)
	d.SetInput(1)
	assert.Equal(t, c+17, d.Cycle(), "only Advance moves time")
}

func TestDriver_usage(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		d := newDriver(t, registerCUT)
		usagePanic(t, "ResetAndInit", d.ResetAndInit)
		usagePanic(t, "SetInput", func() { d.SetInput(1) })
		usagePanic(t, "Advance", func() { d.Advance(1) })
	})
	t.Run("not reset", func(t *testing.T) {
		d := newDriver(t, registerCUT)
		d.Start(context.Background())
		usagePanic(t, "Start", func() { d.Start(context.Background()) })
		usagePanic(t, "Advance", func() { d.Advance(1) })
		usagePanic(t, "SetLearning", func() { d.SetLearning(true) })
		usagePanic(t, "Sample", func() { d.Sample(nmcheck.Primary) })
	})
	t.Run("driven port", func(t *testing.T) {
		d := startDriver(t, registerCUT)
		usagePanic(t, "Sample", func() { d.Sample(nmcheck.Control) })
		usagePanic(t, "Sample", func() { d.Sample(nmcheck.Stimulus) })
	})
	t.Run("stopped", func(t *testing.T) {
		d := startDriver(t, registerCUT)
		d.Stop()
		d.Stop()
		usagePanic(t, "Sample", func() { d.Sample(nmcheck.Primary) })
		usagePanic(t, "Advance", func() { d.Advance(1) })
		usagePanic(t, "Start", func() { d.Start(context.Background()) })
	})
}

func TestDriver_cancelled(t *testing.T) {
	p := nmcheck.DefaultParams()
	d, err := nmcheck.NewDriver(p, registerCUT(p))
	require.NoError(t, err)
	defer d.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.ResetAndInit()
	cancel()

	for _, f := range []func(){
		func() { d.Advance(1) },
		func() { d.Sample(nmcheck.Primary) },
	} {
		func() {
			defer func() {
				v := recover()
				require.NotNil(t, v, "expected a panic after cancellation")
				_, usage := v.(*nmcheck.UsageError)
				assert.False(t, usage, "cancellation reported as a usage error: %v", v)
			}()
			f()
		}()
	}
	assert.Equal(t, uint64(3*p.NeuronCycles), d.Cycle())
}

func TestDriver_workers(t *testing.T) {
	p := nmcheck.DefaultParams()
	d, err := nmcheck.NewDriver(p, registerCUT(p), nmcheck.WithWorkers(3), nmcheck.WithStepsPerCycle(16), nmcheck.WithLogger(nil))
	require.NoError(t, err)
	defer d.Stop()
	d.Start(context.Background())
	d.ResetAndInit()
	d.SetInput(0x81)
	d.Advance(2)
	assert.Equal(t, uint8(0x81), d.SamplePrimary())
}

func TestDriver_badCUT(t *testing.T) {
	p := nmcheck.DefaultParams()
	bad := (&sim.PartSpec{
		Name:    "BAD",
		Inputs:  sim.IO("rst_n"),
		Outputs: sim.IO("uo_out[8]"),
		Mount:   func(*sim.Socket) []sim.Component { return nil },
	}).NewPart
	_, err := nmcheck.NewDriver(p, bad)
	assert.ErrorContains(t, err, "failed to build test bench")
}

func TestPort_String(t *testing.T) {
	for p, want := range map[nmcheck.Port]string{
		nmcheck.Control:   "ui_in",
		nmcheck.Stimulus:  "uio_in",
		nmcheck.Primary:   "uo_out",
		nmcheck.Secondary: "uio_out",
		nmcheck.Port(9):   "port(9)",
	} {
		assert.Equal(t, want, p.String())
	}
}
