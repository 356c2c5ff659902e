package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/google/uuid"
)

// Scan run states
const (
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ScanRun is one pass of the scanner over a root folder
type ScanRun struct {
	ID         string
	Root       string
	Kind       naming.MediaKind
	DryRun     bool
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	New        int
	Matched    int
	Unmatched  int
	Failed     int
	Error      string
}

// Duration returns how long the run took, or has taken so far
func (r *ScanRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StartScanRun records the start of a scan and returns the run to fill in
func (s *Store) StartScanRun(root string, kind naming.MediaKind, dryRun bool) (*ScanRun, error) {
	run := &ScanRun{
		ID:        uuid.NewString(),
		Root:      root,
		Kind:      kind,
		DryRun:    dryRun,
		Status:    ScanStatusRunning,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO scan_runs (id, root, kind, dry_run, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Root, kind.String(), dryRun, run.Status, run.StartedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("recording scan start: %w", err)
	}
	return run, nil
}

// FinishScanRun stores the counters of run. A run with Error set is marked failed.
func (s *Store) FinishScanRun(run *ScanRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	run.Status = ScanStatusCompleted
	if run.Error != "" {
		run.Status = ScanStatusFailed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE scan_runs SET
			status = ?, finished_at = ?, scanned = ?, new_items = ?,
			matched = ?, unmatched = ?, failed = ?, error_message = ?
		WHERE id = ?
	`, run.Status, run.FinishedAt.UnixMilli(), run.Scanned, run.New,
		run.Matched, run.Unmatched, run.Failed, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("recording scan finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scan run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// RecentScanRuns returns up to n runs, newest first
func (s *Store) RecentScanRuns(n int) ([]ScanRun, error) {
	if n <= 0 {
		n = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, root, kind, dry_run, status, started_at, finished_at,
		       scanned, new_items, matched, unmatched, failed, error_message
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("listing scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var (
			run        ScanRun
			kind       string
			startedAt  int64
			finishedAt sql.NullInt64
		)
		if err := rows.Scan(&run.ID, &run.Root, &kind, &run.DryRun, &run.Status, &startedAt, &finishedAt,
			&run.Scanned, &run.New, &run.Matched, &run.Unmatched, &run.Failed, &run.Error); err != nil {
			return nil, err
		}
		k, err := naming.ParseMediaKind(kind)
		if err != nil {
			return nil, fmt.Errorf("scan run %s: %w", run.ID, err)
		}
		run.Kind = k
		run.StartedAt = time.UnixMilli(startedAt)
		if finishedAt.Valid {
			run.FinishedAt = time.UnixMilli(finishedAt.Int64)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
