package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/model"
)

func newTrainCommand(ctx *commandContext) *cobra.Command {
	var corpus []string
	var appendFlag bool

	cmd := &cobra.Command{
		Use:   "train NAME [FILE...]",
		Short: "Build an author model from text files",
		Long: `Build an author model from text files and save it to the store.

Plain text and HTML files are accepted. Records from --corpus JSONL files
are added when their author field matches NAME. Unreadable sources are
reported and skipped. If no source can be read nothing is saved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine(cmd.Context())
			if err != nil {
				return err
			}
			name, files := args[0], args[1:]
			if len(files) == 0 && len(corpus) == 0 {
				return fmt.Errorf("no sources given for %s", name)
			}

			var m *model.Model
			if appendFlag {
				m, err = eng.Load(cmd.Context(), name)
				if errors.Is(err, internalerr.ErrNotFound) {
					m, err = eng.NewModel(name)
				}
			} else {
				m, err = eng.NewModel(name)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			added, skipped, err := eng.AddFiles(cmd.Context(), m, files)
			if err != nil {
				return err
			}
			for _, path := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %s: source unavailable\n", path)
			}
			for _, path := range corpus {
				n, err := eng.AddCorpus(m, path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped corpus %s: %v\n", path, err)
					continue
				}
				added += n
			}

			// Saving now would replace the stored model with an unchanged
			// or empty one.
			if added == 0 {
				return fmt.Errorf("no readable sources for %s: %w", name, internalerr.ErrSourceUnavailable)
			}
			if err := eng.Save(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Fprintf(out, "Trained %s from %d source(s)\n", name, added)
			fmt.Fprint(out, m.Summary())
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&corpus, "corpus", nil, "JSONL corpus file with author/text records (repeatable)")
	cmd.Flags().BoolVar(&appendFlag, "append", false, "Add to the stored model instead of replacing it")
	return cmd
}
