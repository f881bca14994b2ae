package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/loader"
	"github.com/heal-ops/heal/internal/output"
	"github.com/heal-ops/heal/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Print the current health snapshot",
	Long: `Load every log file under dir (default: log_dir from the config), fold
the records into one health snapshot, and print it.

Examples:
  heal status
  heal status ./log_files --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := cfg.LogDir
	if len(args) == 1 {
		dir = args[0]
	}

	paths, err := watcher.Discover(dir, cfg.LogPattern)
	if err != nil {
		return fmt.Errorf("discover log files: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matching %q under %s", cfg.LogPattern, dir)
	}

	snap, err := snapshotOf(cfg.Servers, loader.LoadFiles(paths))
	if err != nil {
		return err
	}

	var renderer output.Renderer = output.NewTextRenderer(os.Stdout)
	if jsonOutput() {
		renderer = output.NewJSONRenderer(os.Stdout)
	}
	return renderer.Render(snap)
}

func snapshotOf(servers []string, batches []loader.Batch) (*aggregator.Snapshot, error) {
	sources := make([]string, 0, len(batches))
	for _, b := range batches {
		sources = append(sources, b.Source)
	}
	return aggregator.Take(servers, sources, loader.Records(batches), loader.Skipped(batches))
}
