/*
Package nmcheck is a cycle-accurate verification harness for a neuromorphic
computing core: a small network of spiking neurons wired through a Hebbian
weight-update state machine.

The harness treats the core as a black box reached through its pins. It
derives all timing windows from a handful of hardware parameters (see
Derive), drives reset, stimulus and learning enable at those cycle counts
through a Driver, samples the outputs at precisely timed offsets and checks
behavioral invariants: spike detection, refractory enforcement, weight
saturation, learning monotonicity, pattern completion and noise recovery.

A typical run:

	p := nmcheck.DefaultParams()
	r := &nmcheck.Runner{Params: p}
	rep, err := r.Run(ctx, nmcheck.Scenarios())
	if err != nil {
		// a scenario misused the driver
	}
	rep.WriteText(os.Stdout)

By default the circuit under test is the NeuroCore behavioral model from
package simlib. Any part honoring the same pin contract can be mounted
instead through Runner.CUT.

*/
package nmcheck
