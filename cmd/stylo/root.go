package main

import (
	"io"

	"github.com/spf13/cobra"
)

// execute runs the command line and closes the store afterwards, also when
// the command failed.
func execute(args []string, stdout, stderr io.Writer) error {
	return executeWith(newCommandContext(), args, stdout, stderr)
}

func executeWith(ctx *commandContext, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand(ctx)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if closeErr := ctx.close(); err == nil {
		err = closeErr
	}
	return err
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stylo",
		Short:         "Stylometric authorship attribution",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.storeFlag, "store", "", "Store driver: file, sqlite, postgres or memory")
	rootCmd.PersistentFlags().StringVar(&ctx.pathFlag, "path", "", "Model directory (file) or database file (sqlite)")

	rootCmd.AddCommand(newTrainCommand(ctx))
	rootCmd.AddCommand(newClassifyCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
