package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/logging"
)

// PeriodicScanner re-runs every configured root on an interval and serves
// scan requests from the folder watcher
type PeriodicScanner struct {
	interval time.Duration
	roots    []Root
	scanner  *Scanner
	logger   *logging.Logger

	// runMu serializes scans so a watcher trigger never overlaps a tick
	runMu sync.Mutex

	// State tracking
	mu            sync.Mutex
	scanning      bool
	lastScan      time.Time
	lastSuccess   time.Time
	lastError     error
	skippedTicks  int64
	lastNew       int
	lastAnnounced int

	// Health tracking
	healthy bool
}

// NewPeriodicScanner creates a new scanner with the given config
func NewPeriodicScanner(cfg PeriodicConfig) *PeriodicScanner {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &PeriodicScanner{
		interval: cfg.Interval,
		roots:    cfg.Roots,
		scanner:  cfg.Scanner,
		logger:   logger,
		healthy:  true,
	}
}

// IsHealthy returns whether the scanner is in a healthy state
func (s *PeriodicScanner) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// Status returns the current scanner status for health reporting
func (s *PeriodicScanner) Status() ScannerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := ScannerStatus{
		Healthy:       s.healthy,
		LastScan:      s.lastScan,
		LastSuccess:   s.lastSuccess,
		SkippedTicks:  s.skippedTicks,
		Scanning:      s.scanning,
		Roots:         len(s.roots),
		LastNew:       s.lastNew,
		LastAnnounced: s.lastAnnounced,
	}

	if s.lastError != nil {
		status.LastError = s.lastError.Error()
	}

	return status
}

// Roots returns the configured roots
func (s *PeriodicScanner) Roots() []Root {
	return s.roots
}

// Start runs one scan immediately, then one per interval. Blocks until the
// context is cancelled.
func (s *PeriodicScanner) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("invalid scan interval %s", s.interval)
	}

	s.logger.Info("scanner", "Periodic scanner starting",
		logging.F("interval", s.interval.String()),
		logging.F("roots", len(s.roots)))

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner", "Periodic scanner stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *PeriodicScanner) tick(ctx context.Context) {
	s.mu.Lock()
	if s.scanning {
		s.skippedTicks++
		s.mu.Unlock()
		s.logger.Warn("scanner", "Periodic scan skipped - previous scan still running",
			logging.F("skipped_ticks", s.skippedTicks))
		return
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	s.record(s.runScan(ctx, s.roots))
}

// ScanRoot scans a single root now, waiting for any running scan to finish first
func (s *PeriodicScanner) ScanRoot(ctx context.Context, root Root) error {
	err := s.runScan(ctx, []Root{root})
	s.record(err)
	return err
}

func (s *PeriodicScanner) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastScan = time.Now()
	if err != nil {
		s.lastError = err
		s.healthy = false
		s.logger.Error("scanner", "Periodic scan failed", err)
		return
	}
	s.lastSuccess = s.lastScan
	s.lastError = nil
	s.healthy = true
}

func (s *PeriodicScanner) runScan(ctx context.Context, roots []Root) (err error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panic: %v", r)
			s.logger.Error("scanner", "Panic during periodic scan", err)
		}
	}()

	start := time.Now()
	var (
		errs      []error
		newItems  int
		announced int
	)
	for _, root := range roots {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		summary, err := s.scanner.Run(ctx, root.Path, root.Kind)
		if summary != nil {
			newItems += summary.New
			announced += summary.Announced
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", root.Path, err))
		}
	}

	s.mu.Lock()
	s.lastNew = newItems
	s.lastAnnounced = announced
	s.mu.Unlock()

	s.logger.Info("scanner", "Periodic scan complete",
		logging.F("duration_ms", time.Since(start).Milliseconds()),
		logging.F("roots", len(roots)),
		logging.F("new", newItems),
		logging.F("announced", announced),
		logging.F("errors", len(errs)))

	return errors.Join(errs...)
}
