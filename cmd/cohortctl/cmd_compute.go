package main

import (
	"github.com/spf13/cobra"
)

func newComputeCmd(opts *options) *cobra.Command {
	var (
		format string
		view   string
	)

	cmd := &cobra.Command{
		Use:   "compute <file>",
		Short: "Print the retention matrix of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			_, res, err := opts.computeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == formatTable {
				printSummary(cmd.ErrOrStderr(), res)
			}
			return writeStats(cmd.OutOrStdout(), res.Stats, format, view)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output: table, json or yaml")
	cmd.Flags().StringVar(&view, "view", "perc", "cell values: perc or abs")
	return cmd
}
