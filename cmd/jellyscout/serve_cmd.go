package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/daemon"
	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/paths"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/Nomadcxx/jellyscout/internal/watcher"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		addr     string
		interval time.Duration
		noWatch  bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic scanner, folder watcher and HTTP API",
		Long: `Run in the foreground: every configured folder is scanned at start-up and
then every scan.interval. New entries in a watched folder trigger a scan of
that folder after a quiet period. A small HTTP API reports health and status
and exposes the naming helpers.

Stop with Ctrl+C or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A slow chat service must not hold up the scan workers
			a, err := openApp(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			roots := a.roots()
			if len(roots) == 0 {
				return errors.New("no scan folders configured (set scan.movies or scan.tv)")
			}

			if interval == 0 {
				interval, err = a.cfg.ScanInterval()
				if err != nil {
					return err
				}
			}
			if addr == "" {
				addr = a.cfg.Daemon.HTTPAddr
			}

			s, err := a.newScanner(opts.dryRun)
			if err != nil {
				return err
			}
			periodic := scanner.NewPeriodicScanner(scanner.PeriodicConfig{
				Interval: interval,
				Roots:    roots,
				Scanner:  s,
				Logger:   a.logger,
			})

			var w *watcher.Watcher
			if a.cfg.Daemon.Watch && !noWatch {
				w, err = watcher.NewWatcher(periodic, roots,
					watcher.WithDebounce(debounce),
					watcher.WithLogger(a.logger))
				if err != nil {
					return err
				}
			}

			var server *daemon.Server
			if addr != "" {
				server = daemon.NewServer(daemon.ServerConfig{
					Addr:    addr,
					Scanner: periodic,
					Store:   a.store,
					Lookup:  a.lookup,
					Logger:  a.logger,
				})
			}

			d, err := daemon.New(daemon.Config{
				Scanner:  periodic,
				Watcher:  w,
				Server:   server,
				Notifier: a.notifier,
				LockPath: paths.LockPath(a.cfg.DatabasePath()),
				Logger:   a.logger,
			})
			if err != nil {
				if w != nil {
					w.Close()
				}
				return err
			}
			defer d.Close()

			if opts.dryRun {
				a.logger.Warn("daemon", "DRY RUN MODE - nothing is recorded or announced")
			}
			a.logger.Info("daemon", "Serving",
				logging.F("http_addr", addr),
				logging.F("interval", interval.String()),
				logging.F("watch", w != nil),
				logging.F("log_file", a.logger.FilePath()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := d.Run(ctx); err != nil {
				return fmt.Errorf("daemon stopped: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP API address, empty for daemon.http_addr")
	cmd.Flags().DurationVar(&interval, "interval", 0, "scan interval, 0 for scan.interval")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable folder watching")
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a watched folder is rescanned")

	return cmd
}
