package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heal-ops/heal/internal/archive"
	"github.com/heal-ops/heal/internal/config"
	"github.com/heal-ops/heal/internal/hub"
	"github.com/heal-ops/heal/internal/loader"
	"github.com/heal-ops/heal/internal/logging"
	"github.com/heal-ops/heal/internal/server"
	"github.com/heal-ops/heal/internal/watcher"
)

// settle is how long file events are coalesced before a reload.
const settle = 500 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch the log directory and serve the live dashboard",
	Long: `Watch log_dir for CSV log files, rebuild the health snapshot whenever a
file changes (and every poll_interval), and serve it over HTTP and
WebSocket. With archive.dsn set, the history endpoints query the archive.

Examples:
  heal serve
  HEAL_HTTP_PORT=9090 heal serve --config /etc/heal.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Get()

	// --- Set up context with graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nheal shutting down gracefully...")
		cancel()
	}()

	// --- Initialize watcher ---
	w, err := watcher.New(cfg.LogDir, cfg.LogPattern)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// --- Optional archive ---
	var hist server.Archive
	if cfg.Archive.DSN != "" {
		store, err := archive.Open(cfg.Archive.DSN)
		if err != nil {
			log.Warn("archive disabled", "err", err)
		} else {
			defer store.Close()
			hist = store
		}
	}

	// --- Start pipeline ---
	input := make(chan []loader.Batch, 1)
	h := hub.New(input, cfg.Servers)
	srv := server.New(h, hist, server.Options{
		Port:       cfg.HTTP.Port,
		Servers:    cfg.Servers,
		Partitions: cfg.Partitions,
		Services:   cfg.Services,
	})

	go w.Start(ctx)
	go h.Start(ctx)
	go reload(ctx, cfg, w, input)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Info("serving health dashboard", "port", cfg.HTTP.Port, "log_dir", cfg.LogDir, "archive", hist != nil)

	select {
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

// reload feeds the hub a full set of batches at start, on every poll tick,
// and once file events have settled. Each pass re-reads every file.
func reload(ctx context.Context, cfg config.Config, w *watcher.Watcher, input chan<- []loader.Batch) {
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(settle)
	pending := true

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			logging.Get().Debug("log file changed", "path", ev.Path, "op", ev.Op.String())
			if !pending {
				debounce.Reset(settle)
				pending = true
			}
			continue
		case <-debounce.C:
			pending = false
		case <-ticker.C:
		}

		paths, err := w.Discover()
		if err != nil {
			logging.Get().Error("log discovery failed", "dir", cfg.LogDir, "err", err)
			continue
		}
		select {
		case input <- loader.LoadFiles(paths):
		case <-ctx.Done():
			return
		}
	}
}
