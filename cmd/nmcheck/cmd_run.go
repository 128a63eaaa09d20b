// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/db47h/nmcheck"
	"github.com/db47h/nmcheck/internal/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run verification scenarios",
		Long: `Run the verification scenarios, each on its own freshly reset circuit,
and print a pass/fail summary. The exit status is 1 when a scenario failed
or the run was aborted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if names, _ := cmd.Flags().GetStringArray("scenario"); len(names) > 0 {
				cfg.Run.Scenarios = names
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Run.Parallel, _ = cmd.Flags().GetInt("parallel")
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}
			scs, err := nmcheck.Lookup(cfg.Run.Scenarios...)
			if err != nil {
				return err
			}

			log := newLogger(cfg, cmd.ErrOrStderr())
			r := &nmcheck.Runner{
				Params:        nmcheck.Derive(cfg.Params),
				Workers:       cfg.Sim.Workers,
				StepsPerCycle: cfg.Sim.StepsPerCycle,
				Parallel:      cfg.Run.Parallel,
				Logger:        log,
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			rep, runErr := r.Run(ctx, scs)
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				err = rep.WriteJSON(cmd.OutOrStdout())
			} else {
				err = rep.WriteText(cmd.OutOrStdout())
			}
			if runErr != nil {
				if logging.ParseLevel(cfg.Logging.Level) <= slog.LevelDebug {
					fmt.Fprintf(cmd.ErrOrStderr(), "%+v\n", runErr)
				}
				return runErr
			}
			if err != nil {
				return errors.Wrap(err, "writing report")
			}
			if failed := rep.Failed(); len(failed) > 0 {
				return errors.Errorf("%d of %d scenarios failed: %s", len(failed), len(rep.Results), strings.Join(failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringArray("scenario", nil, "Scenario to run (repeatable, default all)")
	cmd.Flags().Int("parallel", 1, "Maximum number of scenarios running at once")
	return cmd
}
