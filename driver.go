// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/db47h/nmcheck/internal/logging"
	"github.com/db47h/nmcheck/sim"
	sl "github.com/db47h/nmcheck/simlib"
	"github.com/pkg/errors"
)

// Port identifies a bus of the circuit under test.
//
type Port int

// Circuit ports.
//
const (
	Control   Port = iota // driven, bit 0 enables learning
	Stimulus              // driven, one bit per neuron
	Primary               // observed, low 3 bits are the activity level
	Secondary             // observed, spike flag, recovered pattern and learning flags
)

// Pin returns the pin (bus) name of the port.
//
func (p Port) Pin() string {
	switch p {
	case Control:
		return sl.PinControl
	case Stimulus:
		return sl.PinStimulus
	case Primary:
		return sl.PinPrimary
	case Secondary:
		return sl.PinSecondary
	}
	return "port(" + fmt.Sprint(int(p)) + ")"
}

func (p Port) String() string { return p.Pin() }

// Output port masks.
//
const (
	ActivityMask = 0x07
	SpikeFlag    = sl.SecSpike
	learnEnable  = 0x01
)

// A UsageError reports a driver operation called out of order. It is a
// defect of the calling scenario, never a circuit fault. Driver methods panic
// with a *UsageError.
//
type UsageError struct {
	Op    string
	Cycle uint64
	err   error
}

func (e *UsageError) Error() string { return e.err.Error() }

// Unwrap returns the underlying error, which carries the call stack.
func (e *UsageError) Unwrap() error { return e.err }

// Format formats the error. The %+v verb prints the call stack.
func (e *UsageError) Format(s fmt.State, verb rune) {
	if f, ok := e.err.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	io.WriteString(s, e.Error())
}

type driverOptions struct {
	workers int
	spc     uint
	log     *slog.Logger
}

// An Option configures a Driver.
//
type Option func(*driverOptions)

// WithWorkers sets the number of simulation worker goroutines. The default
// of 1 suits the handful of components of a test bench.
//
func WithWorkers(n int) Option { return func(o *driverOptions) { o.workers = n } }

// WithStepsPerCycle sets the number of simulation steps per clock cycle.
//
func WithStepsPerCycle(n uint) Option { return func(o *driverOptions) { o.spc = n } }

// WithLogger sets the driver logger.
//
func WithLogger(l *slog.Logger) Option { return func(o *driverOptions) { o.log = l } }

// Driver owns the clocked interface to the circuit under test.
//
// The clock runs in a goroutine started by Start. Every rising edge is a
// rendezvous between that goroutine and the caller: the caller requests one
// cycle and waits for it to complete, so port values are never read or
// written while the circuit is being updated.
//
// Port writes (SetInput, SetLearning) take effect at the second rising edge
// following the call: the driven value needs one cycle to propagate to the
// circuit inputs. A sample taken right after Advance(1) does not reflect it.
//
type Driver struct {
	p   Params
	c   *sim.Circuit
	log *slog.Logger

	// driven pins, read by the input probes
	rstN, ena  bool
	ctrl, stim int64
	// observed pins, written by the output probes
	primary, secondary int64

	cycle   uint64
	ready   bool
	started bool
	stopped bool

	req    chan struct{}
	ack    chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDriver mounts the circuit under test returned by cut in a new circuit,
// surrounded by input probes for every driven pin and output probes for both
// observed ports.
//
func NewDriver(p Params, cut sim.NewPartFn, opts ...Option) (*Driver, error) {
	o := driverOptions{workers: 1, spc: 4, log: slog.New(discard{})}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(discard{})
	}
	d := &Driver{
		p:    p,
		log:  o.log,
		req:  make(chan struct{}),
		ack:  make(chan struct{}),
		done: make(chan struct{}),
	}
	c, err := sim.NewCircuit(o.workers, o.spc, sim.Parts{
		sl.Input(func() bool { return d.rstN })("out=" + sl.PinReset),
		sl.Input(func() bool { return d.ena })("out=" + sl.PinEnable),
		sl.InputN(sl.PortBits, func() int64 { return d.ctrl })(sl.BusConn("out", sl.PinControl, sl.PortBits)),
		sl.InputN(sl.PortBits, func() int64 { return d.stim })(sl.BusConn("out", sl.PinStimulus, sl.PortBits)),
		cut(cutConnections()),
		sl.OutputN(sl.PortBits, func(v int64) { d.primary = v })(sl.BusConn("in", sl.PinPrimary, sl.PortBits)),
		sl.OutputN(sl.PortBits, func(v int64) { d.secondary = v })(sl.BusConn("in", sl.PinSecondary, sl.PortBits)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build test bench")
	}
	d.c = c
	return d, nil
}

func cutConnections() string {
	conns := []string{
		sl.PinReset + "=" + sl.PinReset,
		sl.PinEnable + "=" + sl.PinEnable,
	}
	for _, bus := range []string{sl.PinControl, sl.PinStimulus, sl.PinPrimary, sl.PinSecondary} {
		conns = append(conns, sl.BusConn(bus, bus, sl.PortBits))
	}
	return strings.Join(conns, ", ")
}

func (d *Driver) usage(op, format string, args ...interface{}) *UsageError {
	return &UsageError{
		Op:    op,
		Cycle: d.cycle,
		err:   errors.Errorf("driver usage error: %s at cycle %d: %s", op, d.cycle, fmt.Sprintf(format, args...)),
	}
}

// Start starts the clock generator. The clock stops when ctx is cancelled or
// Stop is called. Once ctx is done, operations advancing or observing the
// circuit panic with a value the Runner reports as a cancelled run.
//
func (d *Driver) Start(ctx context.Context) {
	if d.started {
		panic(d.usage("Start", "clock already started"))
	}
	if d.stopped {
		panic(d.usage("Start", "driver stopped"))
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.started = true
	go d.clock(d.ctx)
	d.log.Debug("clock started", "spc", d.c.SPC())
}

// clock runs one whole clock cycle per request. A cycle is never interrupted.
func (d *Driver) clock(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.req:
			d.c.TickTock()
			d.ack <- struct{}{}
		}
	}
}

// Stop stops the clock generator and releases the circuit. It is safe to call
// Stop more than once.
//
func (d *Driver) Stop() {
	if d.stopped {
		return
	}
	d.stopped = true
	if d.started {
		d.cancel()
		<-d.done
	}
	d.c.Dispose()
	d.log.Debug("clock stopped", "cycles", d.cycle)
}

// interruption is the panic value of driver operations called once the
// context given to Start is done. It is not a usage error.
type interruption struct {
	err error
}

func (d *Driver) interrupted(op string) {
	if err := d.ctx.Err(); err != nil {
		panic(interruption{errors.Wrapf(err, "%s at cycle %d", op, d.cycle)})
	}
}

func (d *Driver) running(op string) {
	switch {
	case !d.started:
		panic(d.usage(op, "clock generator not started"))
	case d.stopped:
		panic(d.usage(op, "driver stopped"))
	}
	d.interrupted(op)
	select {
	case <-d.done:
		panic(d.usage(op, "clock generator is not running"))
	default:
	}
}

func (d *Driver) check(op string) {
	d.running(op)
	if !d.ready {
		panic(d.usage(op, "reset sequence not completed"))
	}
}

// edge runs the circuit up to the next rising edge. It is the only primitive
// advancing time.
func (d *Driver) edge(op string) {
	d.interrupted(op)
	select {
	case d.req <- struct{}{}:
	case <-d.done:
		d.interrupted(op)
		panic(d.usage(op, "clock generator is not running"))
	}
	<-d.ack
	d.cycle++
}

// ResetAndInit runs the reset sequence: reset and enable asserted and all
// inputs cleared for 2×NeuronCycles cycles, then reset released and
// NeuronCycles cycles to settle. It must be called before any other driver
// operation but Start.
//
func (d *Driver) ResetAndInit() {
	const op = "ResetAndInit"
	d.running(op)
	d.rstN, d.ena, d.ctrl, d.stim = false, true, 0, 0
	for i := 0; i < 2*d.p.NeuronCycles; i++ {
		d.edge(op)
	}
	d.rstN = true
	for i := 0; i < d.p.NeuronCycles; i++ {
		d.edge(op)
	}
	d.ready = true
	d.log.Debug("reset sequence completed", "cycle", d.cycle)
}

// SetInput drives the stimulus port. See the Driver documentation for
// the propagation latency.
//
func (d *Driver) SetInput(v uint8) {
	d.check("SetInput")
	d.stim = int64(v)
	d.log.Log(context.Background(), logging.LevelTrace, "drive", "port", Stimulus, "value", v, "cycle", d.cycle)
}

// SetLearning drives the learning enable bit of the control port. See the
// Driver documentation for the propagation latency.
//
func (d *Driver) SetLearning(on bool) {
	d.check("SetLearning")
	if on {
		d.ctrl |= learnEnable
	} else {
		d.ctrl &^= learnEnable
	}
	d.log.Log(context.Background(), logging.LevelTrace, "drive", "port", Control, "learning", on, "cycle", d.cycle)
}

// Advance waits for n rising clock edges.
//
func (d *Driver) Advance(n int) {
	const op = "Advance"
	d.check(op)
	for i := 0; i < n; i++ {
		d.edge(op)
	}
}

// Sample returns the value of an observed port at the end of the last
// completed cycle.
//
func (d *Driver) Sample(p Port) uint8 {
	const op = "Sample"
	d.check(op)
	var v int64
	switch p {
	case Primary:
		v = d.primary
	case Secondary:
		v = d.secondary
	default:
		panic(d.usage(op, "port %s is not observable", p))
	}
	d.log.Log(context.Background(), logging.LevelTrace, "sample", "port", p, "value", v, "cycle", d.cycle)
	return uint8(v)
}

// SamplePrimary returns Sample(Primary).
func (d *Driver) SamplePrimary() uint8 { return d.Sample(Primary) }

// SampleSecondary returns Sample(Secondary).
func (d *Driver) SampleSecondary() uint8 { return d.Sample(Secondary) }

// Cycle returns the number of rising edges since Start.
//
func (d *Driver) Cycle() uint64 { return d.cycle }

// Params returns the parameters the driver was built with.
//
func (d *Driver) Params() Params { return d.p }

type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (d discard) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discard) WithGroup(string) slog.Handler           { return d }
