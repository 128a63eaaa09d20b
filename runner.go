// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/db47h/nmcheck/sim"
	sl "github.com/db47h/nmcheck/simlib"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// NeuroCore returns the behavioral model of the neuromorphic core configured
// from p, to be used as the circuit under test.
//
func NeuroCore(p Params) sim.NewPartFn {
	return sl.NeuroCore(sl.CoreConfig{
		Neurons:    p.Neurons,
		WeightBits: p.WeightBits,
		Threshold:  p.Threshold,
		Refractory: p.RefractoryPeriod,
	})
}

// Runner runs scenarios, each on its own freshly built and reset circuit.
//
type Runner struct {
	Params Params
	// CUT returns the circuit under test. Defaults to NeuroCore.
	CUT func(Params) sim.NewPartFn
	// Simulation worker goroutines per circuit and steps per clock cycle.
	Workers       int
	StepsPerCycle uint
	// Parallel is the maximum number of scenarios running at once. Values
	// below 2 run scenarios sequentially.
	Parallel int
	Logger   *slog.Logger
}

// Run runs the given scenarios and returns the aggregated report.
//
// Invariant violations are part of the report. A driver usage error aborts
// the whole run: Run then returns the partial report along with the error.
// Cancelling ctx aborts the running scenarios as "run cancelled" and the
// returned error has ctx.Err() as its cause.
//
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	rep := &Report{Params: r.Params}
	if r.Parallel < 2 {
		for _, sc := range scenarios {
			res, err := r.runOne(ctx, sc)
			rep.Results = append(rep.Results, res)
			if err != nil {
				return rep, err
			}
		}
		return rep, nil
	}

	rep.Results = make([]Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Parallel)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			res, err := r.runOne(gctx, sc)
			rep.Results[i] = res
			return err
		})
	}
	return rep, g.Wait()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(discard{})
	}
	return r.Logger
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) (res Result, err error) {
	res.Scenario = sc.Name
	log := r.logger().With("scenario", sc.Name)
	if err := ctx.Err(); err != nil {
		res.Aborted = "run cancelled"
		return res, errors.Wrapf(err, "scenario %s", sc.Name)
	}

	cut := r.CUT
	if cut == nil {
		cut = NeuroCore
	}
	var opts []Option
	if r.Workers > 0 {
		opts = append(opts, WithWorkers(r.Workers))
	}
	if r.StepsPerCycle > 0 {
		opts = append(opts, WithStepsPerCycle(r.StepsPerCycle))
	}
	d, err := NewDriver(r.Params, cut(r.Params), append(opts, WithLogger(log))...)
	if err != nil {
		res.Aborted = err.Error()
		return res, errors.Wrapf(err, "scenario %s", sc.Name)
	}
	defer d.Stop()

	a := NewAssert(sc.Name, d.Cycle)
	s := &Session{Assert: a, Driver: d, Params: r.Params, Log: log}
	start := time.Now()
	defer func() {
		res.Checks, res.Failures = a.Checks(), a.Failures()
		res.Samples, res.Cycles = s.samples, d.Cycle()
		res.Elapsed = time.Since(start)
		if v := recover(); v != nil {
			switch v := v.(type) {
			case *UsageError:
				res.Aborted = v.Error()
				err = errors.Wrapf(v, "scenario %s aborted", sc.Name)
				log.Error("scenario aborted", "err", v.Error())
			case interruption:
				res.Aborted = "run cancelled"
				err = errors.Wrapf(v.err, "scenario %s", sc.Name)
				log.Warn("scenario cancelled", "cycle", res.Cycles)
			default:
				panic(v)
			}
			return
		}
		if res.Passed() {
			log.Info("scenario passed", "checks", res.Checks, "cycles", res.Cycles)
		} else {
			log.Warn("scenario failed", "failures", len(res.Failures))
			for _, f := range res.Failures {
				log.Debug("invariant violated", "condition", f.Condition, "observed", f.Observed, "cycle", f.Cycle)
			}
		}
	}()

	d.Start(ctx)
	d.ResetAndInit()
	sc.Run(s)
	return res, nil
}
