package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/model"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classify UNKNOWN SOURCE1 SOURCE2",
		Short: "Decide which source model an unknown model most likely came from",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine(cmd.Context())
			if err != nil {
				return err
			}
			d, err := eng.ClassifyNames(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			fmt.Fprintln(out, renderDecision(d, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the decision as JSON")
	return cmd
}

func renderDecision(d classify.Decision, colorize bool) string {
	tbl := newTable("Channel", d.Source1, d.Source2).alignRight(2, 3)
	for _, ch := range model.Channels() {
		tbl.scoreRow(ch.String(), d.Scores1.Get(ch), d.Scores2.Get(ch))
	}
	tbl.scoreFooter("weighted", d.Weighted1, d.Weighted2)

	verdict := fmt.Sprintf("%s most likely came from %s", d.Unknown, d.Winner)
	if d.Tie {
		verdict += " (tie, second source preferred)"
	}
	if colorize {
		if d.Tie {
			verdict = tieColor.Sprint(verdict)
		} else {
			verdict = winnerColor.Sprint(verdict)
		}
	}
	return fmt.Sprintf("%s\n%s\nvotes: %d/%d\n", tbl, verdict, d.Votes1, d.Votes2)
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report SELF OTHER",
		Short: "Show per-channel similarity of one model to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine(cmd.Context())
			if err != nil {
				return err
			}
			self, err := eng.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			other, err := eng.Load(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			r := eng.Report(self, other)
			tbl := newTable("Channel", "Log-likelihood").alignRight(2)
			for _, ch := range model.Channels() {
				tbl.scoreRow(ch.String(), r.Scores.Get(ch))
			}
			tbl.scoreFooter("overall", r.Overall)

			fmt.Fprintf(cmd.OutOrStdout(), "%s vs %s\n", r.Self, r.Other)
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
}
