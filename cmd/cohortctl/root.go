package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/JonMunkholm/cohort/internal/config"
	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/JonMunkholm/cohort/internal/logging"
	"github.com/JonMunkholm/cohort/internal/tabular"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by all commands.
type options struct {
	envFile  string
	logLevel string
	asOf     string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cohortctl",
		Short: "Cohort retention matrices from subscription exports",
		Long: `cohortctl reads a subscription export (CSV or XLSX), groups customers
into monthly acquisition cohorts and reports how many stayed active in each
following month.

Configuration is read from the environment (and an optional .env file) using
the same variables as the server: IMPORT_START_MARKERS, STORE_DRIVER, ...`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load if present")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.asOf, "as-of", "", "reference date YYYY-MM-DD (default: today)")

	root.AddCommand(
		newComputeCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newLastCmd(opts),
		newInsightsCmd(opts),
	)
	return root
}

// load reads the dotenv file and configuration. Existing environment
// variables win over the file.
func (o *options) load() error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.cfg = cfg

	// Logs go to stdout with the server; keep the CLI quiet unless asked.
	logging.Setup(o.logLevel, cfg.Logging.Format)
	return nil
}

// now returns the --as-of date or the current time.
func (o *options) now() (time.Time, error) {
	if o.asOf == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, o.asOf, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: want YYYY-MM-DD", o.asOf)
	}
	return t, nil
}

func (o *options) markers() core.ColumnMarkers {
	return core.ColumnMarkers{Start: o.cfg.Import.StartMarkers, Cancel: o.cfg.Import.CancelMarkers}
}

// computeFile reads path and computes its matrix without touching the store.
func (o *options) computeFile(ctx context.Context, path string) ([]core.RawRow, *core.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := tabular.NewReader(o.cfg.Import.MaxFileSize).ReadRows(ctx, path, f)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("read %s: %w", path, core.ErrEmptyDataset)
	}

	now, err := o.now()
	if err != nil {
		return nil, nil, err
	}

	res, err := core.Compute(rows, now, core.Options{Markers: o.markers()})
	if err != nil {
		return nil, nil, err
	}
	if err := core.RequireCohorts(res); err != nil {
		return nil, nil, err
	}
	return rows, res, nil
}
