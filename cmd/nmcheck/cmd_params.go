// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/db47h/nmcheck"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the hardware parameters and derived timing windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Params.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}
			p := nmcheck.Derive(cfg.Params)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			for _, kv := range []struct {
				name string
				v    int
			}{
				{"neurons", p.Neurons},
				{"weight_bits", p.WeightBits},
				{"membrane_tau", p.MembraneTau},
				{"recovery_tau", p.RecoveryTau},
				{"refractory_period", p.RefractoryPeriod},
				{"state_machine_states", p.StateMachineStates},
				{"threshold", p.Threshold},
				{"max_weight", p.MaxWeight},
				{"state_machine_cycle", p.StateMachineCycle},
				{"neuron_cycles", p.NeuronCycles},
				{"learning_cycles", p.LearningCycles},
				{"stabilization_cycles", p.StabilizationCycles},
				{"weight_update_delay", p.WeightUpdateDelay},
				{"neuron_stabilization", p.NeuronStabilization},
				{"spike_window", p.SpikeWindow},
				{"total_spike_check", p.TotalSpikeCheck},
			} {
				fmt.Fprintf(tw, "%s\t%d\n", kv.name, kv.v)
			}
			return errors.WithStack(tw.Flush())
		},
	}
}
