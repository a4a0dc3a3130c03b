package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/cohort/internal/app"
	"github.com/spf13/cobra"
)

// withApp runs fn against the service wired from configuration.
func withApp(cmd *cobra.Command, opts *options, fn func(*app.App) error) error {
	a, err := app.New(cmd.Context(), opts.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Compute a file and save it as the last import in the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				imp, err := a.Service.Import(cmd.Context(), args[0], f)
				if err != nil {
					return err
				}
				if imp.PersistError != "" {
					return fmt.Errorf("matrix computed but not saved: %s", imp.PersistError)
				}

				printSummary(cmd.ErrOrStderr(), imp.Result)
				fmt.Fprintf(cmd.OutOrStdout(), "saved import %s (%s)\n", imp.ID, opts.cfg.Store.Driver)
				return nil
			})
		},
	}
}

func newLastCmd(opts *options) *cobra.Command {
	var (
		format string
		view   string
	)

	cmd := &cobra.Command{
		Use:   "last",
		Short: "Recompute and print the last stored import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				imp, err := a.Service.LoadLast(cmd.Context())
				if err != nil {
					return err
				}
				if format == formatTable {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s imported %s\n", imp.FileName, imp.ImportedAt.Format("2006-01-02 15:04"))
				}
				return writeStats(cmd.OutOrStdout(), imp.Stats(), format, view)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output: table, json or yaml")
	cmd.Flags().StringVar(&view, "view", "perc", "cell values: perc or abs")
	return cmd
}

func newInsightsCmd(opts *options) *cobra.Command {
	var (
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Ask the narrative model about the last stored import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				imp, err := a.Service.LoadLast(cmd.Context())
				if err != nil {
					return err
				}
				text, err := a.Service.Narrate(cmd.Context(), imp.Stats())
				if err != nil {
					return err
				}
				if raw {
					fmt.Fprintln(cmd.OutOrStdout(), text)
					return nil
				}
				return printMarkdown(cmd.OutOrStdout(), text, width)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the model output without terminal rendering")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width for rendered output")
	return cmd
}
