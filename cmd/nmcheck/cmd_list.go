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

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List verification scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scs := nmcheck.Scenarios()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				type entry struct {
					Name        string `json:"name"`
					Description string `json:"description"`
				}
				list := make([]entry, len(scs))
				for i, sc := range scs {
					list[i] = entry{sc.Name, sc.Description}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			for _, sc := range scs {
				fmt.Fprintf(tw, "%s\t%s\n", sc.Name, sc.Description)
			}
			return errors.WithStack(tw.Flush())
		},
	}
}
