package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/archive"
	"github.com/heal-ops/heal/internal/forecast"
	"github.com/heal-ops/heal/internal/logging"
	"github.com/heal-ops/heal/internal/output"
	"github.com/heal-ops/heal/internal/series"
)

var (
	fcServer    string
	fcPartition string
	fcFrom      string
	fcTo        string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project when each disk will be full",
	Long: `Read check_hdd history from the archive, build a usage series per disk,
and fit a straight line through it to estimate when it reaches 100%.

Examples:
  heal forecast
  heal forecast --server ip=10.0.0.1 --partition /dev/sda --from 2024-03-01`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().StringVar(&fcServer, "server", series.All, "server to project, or All")
	forecastCmd.Flags().StringVar(&fcPartition, "partition", series.All, "partition to project, or All")
	forecastCmd.Flags().StringVar(&fcFrom, "from", "", "first day (YYYY-MM-DD, default: oldest archived)")
	forecastCmd.Flags().StringVar(&fcTo, "to", "", "last day (YYYY-MM-DD, default: newest archived)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Archive.DSN == "" {
		return errors.New("archive.dsn is not set")
	}

	store, err := archive.Open(cfg.Archive.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	first, last, err := store.DateRange(ctx)
	if err != nil {
		return err
	}
	from, err := dayFlag(fcFrom, first)
	if err != nil {
		return err
	}
	to, err := dayFlag(fcTo, last)
	if err != nil {
		return err
	}

	rows, err := store.StorageHistory(ctx, aggregator.HDDCheck, from, to)
	if err != nil {
		return err
	}

	selected := series.ResolveSelection(fcServer, fcPartition, cfg.Servers, cfg.Partitions)
	set, errs := series.ExtractStorageSeries(rows, selected)
	if len(errs) > 0 {
		logging.Get().Warn("skipped undecodable storage rows", "count", len(errs), "err", errors.Join(errs...))
	}

	fs := forecast.ForecastSet(set)
	if jsonOutput() {
		return output.WriteForecastsJSON(cmd.OutOrStdout(), fs)
	}
	return output.WriteForecasts(cmd.OutOrStdout(), fs)
}

func dayFlag(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", value)
	}
	return t, nil
}
