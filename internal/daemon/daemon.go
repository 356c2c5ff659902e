package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/notify"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/Nomadcxx/jellyscout/internal/watcher"
	"golang.org/x/sync/errgroup"
)

// Daemon runs the periodic scanner, the optional folder watcher and the HTTP
// API until its context is cancelled
type Daemon struct {
	scanner  *scanner.PeriodicScanner
	watcher  *watcher.Watcher
	server   *Server
	notifier *notify.Manager
	lock     *Lock
	logger   *logging.Logger

	sent   atomic.Int64
	failed atomic.Int64
}

// Config holds the pieces a Daemon runs. Watcher, Server and Notifier may
// be nil. An async Notifier has its results drained while the daemon runs.
type Config struct {
	Scanner  *scanner.PeriodicScanner
	Watcher  *watcher.Watcher
	Server   *Server
	Notifier *notify.Manager
	LockPath string
	Logger   *logging.Logger
}

// New takes the single-instance lock and returns a Daemon ready to Run
func New(cfg Config) (*Daemon, error) {
	if cfg.Scanner == nil {
		return nil, errors.New("daemon requires a scanner")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	lock, err := AcquireLock(cfg.LockPath)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		scanner:  cfg.Scanner,
		watcher:  cfg.Watcher,
		server:   cfg.Server,
		notifier: cfg.Notifier,
		lock:     lock,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is cancelled or a component fails
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon", "Starting jellyscout daemon",
		logging.F("roots", len(d.scanner.Roots())),
		logging.F("lock", d.lock.Path()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.scanner.Start(gctx)
	})

	if d.watcher != nil {
		if err := d.watcher.Watch(); err != nil {
			return fmt.Errorf("watch roots: %w", err)
		}
		g.Go(func() error {
			return d.watcher.Start(gctx)
		})
	}

	if d.server != nil {
		g.Go(func() error {
			return d.server.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return d.server.Shutdown(shutdownCtx)
		})
	}

	if d.notifier != nil && d.notifier.Async() {
		g.Go(func() error {
			d.notifier.Drain(gctx, d.countNotification)
			return nil
		})
	}

	err := g.Wait()
	sent, failed := d.NotificationCounts()
	d.logger.Info("daemon", "Jellyscout daemon stopped",
		logging.F("notifications_sent", sent),
		logging.F("notifications_failed", failed))
	return err
}

func (d *Daemon) countNotification(result *notify.NotifyResult) {
	if result.Success {
		d.sent.Add(1)
		return
	}
	d.failed.Add(1)
}

// NotificationCounts returns the async notifications delivered and failed
// since Run started
func (d *Daemon) NotificationCounts() (sent, failed int64) {
	return d.sent.Load(), d.failed.Load()
}

// Close releases the watcher and the lock
func (d *Daemon) Close() error {
	var errs []error
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing watcher: %w", err))
		}
	}
	if err := d.lock.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}
	return errors.Join(errs...)
}
