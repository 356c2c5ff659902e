package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/naming"
)

// SeenItem is a path that has been handled by a scan. A path is recorded at
// most once; later scans skip it.
type SeenItem struct {
	Path      string
	Kind      naming.MediaKind
	Title     string
	TMDbID    int64
	Season    int
	HasSeason bool
	SeenAt    time.Time
}

// IsSeen reports whether path has been recorded
func (s *Store) IsSeen(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM seen_items WHERE path = ?`, path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen %s: %w", path, err)
	}
	return true, nil
}

// MarkSeen records item and reports whether it was new. An existing row is
// left untouched.
func (s *Store) MarkSeen(item SeenItem) (bool, error) {
	if item.Path == "" {
		return false, errors.New("seen item has empty path")
	}
	if item.SeenAt.IsZero() {
		item.SeenAt = time.Now()
	}

	var season sql.NullInt64
	if item.HasSeason {
		season = sql.NullInt64{Int64: int64(item.Season), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO seen_items (path, kind, title, tmdb_id, season, seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.Path, item.Kind.String(), item.Title, item.TMDbID, season, item.SeenAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("marking seen %s: %w", item.Path, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetSeen returns the recorded item for path, or ErrNotFound
func (s *Store) GetSeen(path string) (*SeenItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT path, kind, title, tmdb_id, season, seen_at
		FROM seen_items WHERE path = ?
	`, path)

	item, err := scanSeen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListSeen returns the most recently seen items, newest first. kind filters by
// media kind ("" for all); limit <= 0 means no limit.
func (s *Store) ListSeen(kind string, limit int) ([]SeenItem, error) {
	query := `SELECT path, kind, title, tmdb_id, season, seen_at FROM seen_items`
	var args []any

	if kind != "" {
		k, err := naming.ParseMediaKind(kind)
		if err != nil {
			return nil, err
		}
		query += ` WHERE kind = ?`
		args = append(args, k.String())
	}
	query += ` ORDER BY seen_at DESC, path`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing seen items: %w", err)
	}
	defer rows.Close()

	var items []SeenItem
	for rows.Next() {
		item, err := scanSeen(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ForgetSeen removes path so the next scan treats it as new
func (s *Store) ForgetSeen(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM seen_items WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("forgetting %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSeen returns the number of recorded paths per kind
func (s *Store) CountSeen() (map[naming.MediaKind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM seen_items GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("counting seen items: %w", err)
	}
	defer rows.Close()

	counts := map[naming.MediaKind]int{
		naming.MediaKindMovie:  0,
		naming.MediaKindSeries: 0,
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		k, err := naming.ParseMediaKind(kind)
		if err != nil {
			continue
		}
		counts[k] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeen(row rowScanner) (*SeenItem, error) {
	var (
		item   SeenItem
		kind   string
		season sql.NullInt64
		seenAt int64
	)
	if err := row.Scan(&item.Path, &kind, &item.Title, &item.TMDbID, &season, &seenAt); err != nil {
		return nil, err
	}

	k, err := naming.ParseMediaKind(kind)
	if err != nil {
		return nil, fmt.Errorf("seen item %s: %w", item.Path, err)
	}
	item.Kind = k
	if season.Valid {
		item.Season = int(season.Int64)
		item.HasSeason = true
	}
	item.SeenAt = time.UnixMilli(seenAt)
	return &item, nil
}
