package scanner

import (
	"context"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/database"
	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/notify"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
)

// Notifier receives announcements. *notify.Manager satisfies it.
type Notifier interface {
	Notify(ctx context.Context, event notify.Event) []*notify.NotifyResult
}

// Config holds the dependencies of a Scanner
type Config struct {
	Store       *database.Store
	Lookup      resolver.Lookup
	Notifier    Notifier
	Logger      *logging.Logger
	Concurrency int
	DryRun      bool

	// ItemURL builds the page link put in announcements; defaults to TMDb
	ItemURL func(kind naming.MediaKind, id int64) string
}

// Root is a scanned folder and the kind of media it holds
type Root struct {
	Path string           `json:"path"`
	Kind naming.MediaKind `json:"kind"`
}

// Entry is one unseen name found during a scan
type Entry struct {
	Path    string               `json:"path"`
	Name    string               `json:"name"`
	Query   string               `json:"query"`
	Result  resolver.MatchResult `json:"result"`
	Seasons []SeasonEntry        `json:"seasons,omitempty"`
}

// SeasonEntry is a season folder below a series
type SeasonEntry struct {
	Path      string `json:"path"`
	Season    int    `json:"season"`
	HasSeason bool   `json:"has_season"`
}

// Summary reports what a single Run did
type Summary struct {
	RunID     string           `json:"run_id"`
	Root      string           `json:"root"`
	Kind      naming.MediaKind `json:"kind"`
	DryRun    bool             `json:"dry_run"`
	Scanned   int              `json:"scanned"`
	New       int              `json:"new"`
	Matched   int              `json:"matched"`
	Unmatched int              `json:"unmatched"`
	Failed    int              `json:"failed"`
	Announced int              `json:"announced"`
	Duration  time.Duration    `json:"duration"`
	Entries   []Entry          `json:"entries,omitempty"`
}

// PeriodicConfig holds configuration for the periodic scanner
type PeriodicConfig struct {
	Interval time.Duration
	Roots    []Root
	Scanner  *Scanner
	Logger   *logging.Logger
}

// ScannerStatus holds the current state for health reporting
type ScannerStatus struct {
	Healthy       bool      `json:"healthy"`
	LastScan      time.Time `json:"last_scan,omitempty"`
	LastSuccess   time.Time `json:"last_success,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	SkippedTicks  int64     `json:"skipped_ticks"`
	Scanning      bool      `json:"scanning"`
	Roots         int       `json:"roots"`
	LastAnnounced int       `json:"last_announced"`
	LastNew       int       `json:"last_new"`
}
