package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent classification decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine(cmd.Context())
			if err != nil {
				return err
			}
			decisions, err := eng.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(decisions)
			}
			if len(decisions) == 0 {
				fmt.Fprintln(out, "No decisions recorded")
				return nil
			}

			tbl := newTable("ID", "Decided", "Unknown", "Sources", "Winner", "Votes").alignRight(6)
			for _, d := range decisions {
				winner := d.Winner
				if d.Tie {
					winner += " (tie)"
				}
				tbl.row(
					d.ID,
					d.DecidedAt.Local().Format(time.DateTime),
					d.Unknown,
					d.Source1+" / "+d.Source2,
					winner,
					fmt.Sprintf("%d/%d", d.Votes1, d.Votes2),
				)
			}
			fmt.Fprintln(out, tbl)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of decisions to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print decisions as JSON")
	return cmd
}
