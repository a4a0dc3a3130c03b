package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/cohort/internal/export"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		output   string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the three-sheet retention workbook for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, res, err := opts.computeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = "Analise_Retencao_" + base + ".xlsx"
			}

			var exportOpts export.Options
			if progress {
				bar := progressbar.NewOptions(len(rows),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("exportando"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				exportOpts.OnRow = func(done, _ int) { _ = bar.Set(done) }
				defer bar.Finish()
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := export.Write(f, rows, res, exportOpts); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d cohorts, %d rows)\n", output, len(res.Stats.Cohorts), len(rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: Analise_Retencao_<name>.xlsx)")
	cmd.Flags().BoolVar(&progress, "progress", true, "show a progress bar on stderr")
	return cmd
}
