package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heal-ops/heal/internal/archive"
	"github.com/heal-ops/heal/internal/loader"
	"github.com/heal-ops/heal/internal/logging"
	"github.com/heal-ops/heal/internal/watcher"
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Append log files to the history archive",
	Long: `Parse CSV log files and append their records to the archive named by
archive.dsn. Without arguments every file under log_dir is imported.

Examples:
  heal import ./log_files/2024-03-01.csv
  HEAL_ARCHIVE_DSN="user:pass@tcp(db:3306)/HEAL_history?parseTime=true" heal import`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Archive.DSN == "" {
		return errors.New("archive.dsn is not set")
	}

	paths := args
	if len(paths) == 0 {
		if paths, err = watcher.Discover(cfg.LogDir, cfg.LogPattern); err != nil {
			return fmt.Errorf("discover log files: %w", err)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files to import")
	}

	store, err := archive.Open(cfg.Archive.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	var imported, skipped int
	for _, b := range loader.LoadFiles(paths) {
		skipped += len(b.Errors)
		if len(b.Records) == 0 {
			continue
		}
		if err := store.Append(ctx, b.Records); err != nil {
			return fmt.Errorf("import %s: %w", b.Source, err)
		}
		imported += len(b.Records)
		logging.Get().Info("imported log file", "path", b.Source, "records", len(b.Records), "skipped", len(b.Errors))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d record(s) from %d file(s), %d skipped\n", imported, len(paths), skipped)
	return nil
}
