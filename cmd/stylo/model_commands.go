package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cognicore/stylo/pkg/stylo/model"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Summarize a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine(cmd.Context())
			if err != nil {
				return err
			}
			m, err := eng.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, m.Summary())
			if top <= 0 {
				return nil
			}

			tbl := newTable("Word", "Count").alignRight(2)
			for _, e := range topEntries(m.Table(model.Words), top) {
				tbl.row(e.key, strconv.Itoa(e.count))
			}
			fmt.Fprintln(out, tbl)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of most frequent words to list")
	return cmd
}

type entry struct {
	key   string
	count int
}

// topEntries returns the n highest counts, ties broken by key.
func topEntries(t model.Table, n int) []entry {
	entries := make([]entry, 0, len(t))
	for k, v := range t {
		entries = append(entries, entry{k, v})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine(cmd.Context())
			if err != nil {
				return err
			}
			names, err := eng.Models(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No models stored")
				return nil
			}

			tbl := newTable("Model", "Words", "Distinct").alignRight(2, 3)
			for _, name := range names {
				m, err := eng.Load(cmd.Context(), name)
				if err != nil {
					tbl.row(name, "error", err.Error())
					continue
				}
				words := m.Table(model.Words)
				tbl.row(name, strconv.Itoa(words.Total()), strconv.Itoa(len(words)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine(cmd.Context())
			if err != nil {
				return err
			}
			if err := eng.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
