package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/database"
	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/notify"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
	"github.com/Nomadcxx/jellyscout/internal/tmdb"
	"golang.org/x/sync/errgroup"
)

// Scanner finds unseen names below a root, resolves them and announces the
// ones that match. Every announced path is recorded as seen before the
// announcement goes out, and only the call that records it announces it.
type Scanner struct {
	store       *database.Store
	resolver    *resolver.Resolver
	notifier    Notifier
	logger      *logging.Logger
	concurrency int
	dryRun      bool
	itemURL     func(kind naming.MediaKind, id int64) string
}

// New creates a Scanner. Store and Lookup are required.
func New(cfg Config) (*Scanner, error) {
	if cfg.Store == nil {
		return nil, errors.New("scanner requires a store")
	}
	if cfg.Lookup == nil {
		return nil, errors.New("scanner requires a lookup")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	itemURL := cfg.ItemURL
	if itemURL == nil {
		itemURL = tmdb.ItemURL
	}

	s := &Scanner{
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		logger:      logger,
		concurrency: concurrency,
		dryRun:      cfg.DryRun,
		itemURL:     itemURL,
	}
	s.resolver = resolver.New(cfg.Lookup, resolver.WithObserver(func(kind naming.MediaKind, a resolver.Attempt) {
		fields := []logging.Field{
			logging.F("query", a.Query),
			logging.F("kind", kind.String()),
			logging.F("found", a.Found),
		}
		if a.Err != nil {
			s.logger.Warn("scanner", "Lookup failed", append(fields, logging.F("error", a.Err.Error()))...)
			return
		}
		s.logger.Debug("scanner", "Lookup attempt", fields...)
	}))

	return s, nil
}

// DryRun reports whether the scanner only resolves and logs
func (s *Scanner) DryRun() bool {
	return s.dryRun
}

// Run scans root once in the given mode
func (s *Scanner) Run(ctx context.Context, root string, kind naming.MediaKind) (*Summary, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("scan %s: %w: %d", root, naming.ErrUnknownMediaKind, int(kind))
	}

	start := time.Now()
	summary := &Summary{Root: root, Kind: kind, DryRun: s.dryRun}

	run, err := s.store.StartScanRun(root, kind, s.dryRun)
	if err != nil {
		return nil, err
	}
	summary.RunID = run.ID

	s.logger.Info("scanner", "Scan starting",
		logging.F("root", root),
		logging.F("kind", kind.String()),
		logging.F("dry_run", s.dryRun))

	switch kind {
	case naming.MediaKindMovie:
		err = s.scanMovies(ctx, root, summary)
	case naming.MediaKindSeries:
		err = s.scanSeries(ctx, root, summary)
	}
	summary.Duration = time.Since(start)

	run.Scanned = summary.Scanned
	run.New = summary.New
	run.Matched = summary.Matched
	run.Unmatched = summary.Unmatched
	run.Failed = summary.Failed
	if err != nil {
		run.Error = err.Error()
	}
	if finishErr := s.store.FinishScanRun(run); finishErr != nil {
		s.logger.Error("scanner", "Failed to record scan run", finishErr, logging.F("run_id", run.ID))
	}

	if err != nil {
		s.logger.Error("scanner", "Scan failed", err, logging.F("root", root))
		return summary, err
	}

	s.logger.Info("scanner", "Scan complete",
		logging.F("root", root),
		logging.F("scanned", summary.Scanned),
		logging.F("new", summary.New),
		logging.F("matched", summary.Matched),
		logging.F("unmatched", summary.Unmatched),
		logging.F("announced", summary.Announced),
		logging.F("duration_ms", summary.Duration.Milliseconds()))

	return summary, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// scanMovies handles every directory and file below root
func (s *Scanner) scanMovies(ctx context.Context, root string, summary *Summary) error {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			s.logger.Warn("scanner", "Path inaccessible during scan",
				logging.F("path", path),
				logging.F("error", walkErr.Error()))
			summary.Failed++
			return nil
		}
		if path == root {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	entries, err := s.unseen(paths, summary)
	if err != nil {
		return err
	}
	if err := s.resolveAll(ctx, entries, naming.MediaKindMovie); err != nil {
		return err
	}

	for i := range entries {
		entry := &entries[i]
		summary.Entries = append(summary.Entries, *entry)

		if entry.Result.Found {
			summary.Matched++
		} else {
			summary.Unmatched++
		}
		s.logResolution(entry)

		if s.dryRun {
			continue
		}

		item := database.SeenItem{Path: entry.Path, Kind: naming.MediaKindMovie, Title: entry.Query}
		if entry.Result.Found {
			item.Title = entry.Result.Item.Title
			item.TMDbID = entry.Result.Item.ID
		}
		if !s.markSeen(item, summary) {
			continue
		}

		event := notify.Event{
			Type:  notify.EventNoMatch,
			Kind:  naming.MediaKindMovie,
			Path:  entry.Path,
			Query: entry.Query,
		}
		if entry.Result.Found {
			event.Type = notify.EventMovieAdded
			event.Title = entry.Result.Item.Title
			event.TMDbID = entry.Result.Item.ID
			event.URL = s.itemURL(naming.MediaKindMovie, entry.Result.Item.ID)
		}
		s.announce(ctx, event, summary)
	}

	return nil
}

// scanSeries treats each top-level directory of root as one series
func (s *Scanner) scanSeries(ctx context.Context, root string, summary *Summary) error {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}

	var paths []string
	for _, d := range dirs {
		if !d.IsDir() || isHidden(d.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(root, d.Name()))
	}

	// seen series still get their new season folders announced
	if !s.dryRun {
		for _, path := range paths {
			if err := s.checkKnownSeries(ctx, path, summary); err != nil {
				return err
			}
		}
	}

	entries, err := s.unseen(paths, summary)
	if err != nil {
		return err
	}
	if err := s.resolveAll(ctx, entries, naming.MediaKindSeries); err != nil {
		return err
	}

	for i := range entries {
		entry := &entries[i]
		entry.Seasons = s.seasonFolders(entry.Path, summary)
		summary.Entries = append(summary.Entries, *entry)
		s.logResolution(entry)

		if !entry.Result.Found {
			// left unseen so the next scan retries it
			summary.Unmatched++
			continue
		}
		summary.Matched++

		if s.dryRun {
			continue
		}
		s.announceSeries(ctx, entry.Path, entry.Result.Item.Title, entry.Result.Item.ID, entry.Seasons, summary)
	}

	return nil
}

// checkKnownSeries announces season folders added below an already seen series
func (s *Scanner) checkKnownSeries(ctx context.Context, path string, summary *Summary) error {
	known, err := s.store.GetSeen(path)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if known.TMDbID == 0 {
		return nil
	}

	for _, season := range s.seasonFolders(path, summary) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.announceSeason(ctx, known.Title, known.TMDbID, season, summary)
	}
	return nil
}

// announceSeries records and announces the unseen seasons of a matched
// series, then records the series itself
func (s *Scanner) announceSeries(ctx context.Context, path, title string, id int64, seasons []SeasonEntry, summary *Summary) {
	for _, season := range seasons {
		s.announceSeason(ctx, title, id, season, summary)
	}

	added := s.markSeen(database.SeenItem{
		Path:   path,
		Kind:   naming.MediaKindSeries,
		Title:  title,
		TMDbID: id,
	}, summary)

	if added && len(seasons) == 0 {
		s.announce(ctx, notify.Event{
			Type:   notify.EventSeriesAdded,
			Kind:   naming.MediaKindSeries,
			Path:   path,
			Title:  title,
			TMDbID: id,
			URL:    s.itemURL(naming.MediaKindSeries, id),
		}, summary)
	}
}

func (s *Scanner) announceSeason(ctx context.Context, title string, id int64, season SeasonEntry, summary *Summary) {
	added := s.markSeen(database.SeenItem{
		Path:      season.Path,
		Kind:      naming.MediaKindSeries,
		Title:     title,
		TMDbID:    id,
		Season:    season.Season,
		HasSeason: season.HasSeason,
	}, summary)
	if !added {
		return
	}

	s.announce(ctx, notify.Event{
		Type:      notify.EventSeasonAdded,
		Kind:      naming.MediaKindSeries,
		Path:      season.Path,
		Title:     title,
		TMDbID:    id,
		URL:       s.itemURL(naming.MediaKindSeries, id),
		Season:    season.Season,
		HasSeason: season.HasSeason,
	}, summary)
}

// seasonFolders lists the non-hidden sub-directories of a series, sorted by name
func (s *Scanner) seasonFolders(seriesPath string, summary *Summary) []SeasonEntry {
	dirs, err := os.ReadDir(seriesPath)
	if err != nil {
		s.logger.Warn("scanner", "Cannot read series folder",
			logging.F("path", seriesPath),
			logging.F("error", err.Error()))
		summary.Failed++
		return nil
	}

	var seasons []SeasonEntry
	for _, d := range dirs {
		if !d.IsDir() || isHidden(d.Name()) {
			continue
		}
		number, ok := naming.ExtractSeason(d.Name())
		seasons = append(seasons, SeasonEntry{
			Path:      filepath.Join(seriesPath, d.Name()),
			Season:    number,
			HasSeason: ok,
		})
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].Path < seasons[j].Path })
	return seasons
}

// unseen filters paths down to those not yet recorded, normalizing their names
func (s *Scanner) unseen(paths []string, summary *Summary) ([]Entry, error) {
	var entries []Entry
	for _, path := range paths {
		summary.Scanned++
		seen, err := s.store.IsSeen(path)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}
		name := filepath.Base(path)
		entries = append(entries, Entry{
			Path:  path,
			Name:  name,
			Query: naming.Normalize(name),
		})
	}
	summary.New = len(entries)
	return entries, nil
}

// resolveAll resolves entries in parallel. Results stay at their index so
// they are consumed in walk order.
func (s *Scanner) resolveAll(ctx context.Context, entries []Entry, kind naming.MediaKind) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range entries {
		g.Go(func() error {
			result, err := s.resolver.Resolve(gctx, entries[i].Query, kind)
			if err != nil {
				return err
			}
			entries[i].Result = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// a cancelled scan would otherwise record unfinished searches as misses
	return ctx.Err()
}

func (s *Scanner) markSeen(item database.SeenItem, summary *Summary) bool {
	added, err := s.store.MarkSeen(item)
	if err != nil {
		s.logger.Error("scanner", "Failed to record seen item", err, logging.F("path", item.Path))
		summary.Failed++
		return false
	}
	return added
}

func (s *Scanner) announce(ctx context.Context, event notify.Event, summary *Summary) {
	summary.Announced++
	if s.notifier == nil {
		return
	}
	for _, result := range s.notifier.Notify(ctx, event) {
		if result != nil && !result.Success {
			summary.Failed++
		}
	}
}

func (s *Scanner) logResolution(entry *Entry) {
	if entry.Result.Found {
		s.logger.Info("scanner", "Match found",
			logging.F("path", entry.Path),
			logging.F("query", entry.Result.MatchedQuery),
			logging.F("title", entry.Result.Item.Title),
			logging.F("tmdb_id", entry.Result.Item.ID))
		return
	}
	s.logger.Info("scanner", "No match",
		logging.F("path", entry.Path),
		logging.F("query", entry.Query),
		logging.F("outcome", entry.Result.Outcome().String()),
		logging.F("attempts", len(entry.Result.Attempts)))
}
