package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
)

// CachedLookup wraps a resolver.Lookup and stores its answers in the
// lookup_cache table. Hits and confirmed misses are reused until they are
// older than the TTL; failed searches are never stored.
type CachedLookup struct {
	store *Store
	next  resolver.Lookup
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedLookup returns next unchanged when ttl is not positive
func NewCachedLookup(store *Store, next resolver.Lookup, ttl time.Duration) resolver.Lookup {
	if ttl <= 0 || store == nil {
		return next
	}
	return &CachedLookup{
		store: store,
		next:  next,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Search implements resolver.Lookup
func (c *CachedLookup) Search(ctx context.Context, query string, kind naming.MediaKind) (*resolver.Item, error) {
	key := CacheKey(query)

	item, hit, err := c.store.cachedLookup(key, kind, c.now().Add(-c.ttl))
	if err == nil && hit {
		return item, nil
	}

	item, err = c.next.Search(ctx, query, kind)
	if err != nil {
		return nil, err
	}

	// a cache write failure still returns the live answer
	_ = c.store.storeLookup(key, kind, item, c.now())
	return item, nil
}

func (s *Store) cachedLookup(key string, kind naming.MediaKind, notBefore time.Time) (*resolver.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found     bool
		fetchedAt int64
		item      resolver.Item
	)
	err := s.db.QueryRow(`
		SELECT found, tmdb_id, title, original_title, year, overview, fetched_at
		FROM lookup_cache
		WHERE query_key = ? AND kind = ?
	`, key, kind.String()).Scan(&found, &item.ID, &item.Title, &item.OriginalTitle, &item.Year, &item.Overview, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading lookup cache: %w", err)
	}

	if time.UnixMilli(fetchedAt).Before(notBefore) {
		return nil, false, nil
	}
	if !found {
		return nil, true, nil
	}
	return &item, true, nil
}

func (s *Store) storeLookup(key string, kind naming.MediaKind, item *resolver.Item, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored resolver.Item
	if item != nil {
		stored = *item
	}

	_, err := s.db.Exec(`
		INSERT INTO lookup_cache (query_key, kind, found, tmdb_id, title, original_title, year, overview, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(query_key, kind) DO UPDATE SET
			found = excluded.found,
			tmdb_id = excluded.tmdb_id,
			title = excluded.title,
			original_title = excluded.original_title,
			year = excluded.year,
			overview = excluded.overview,
			fetched_at = excluded.fetched_at
	`, key, kind.String(), item != nil, stored.ID, stored.Title, stored.OriginalTitle, stored.Year, stored.Overview, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("writing lookup cache: %w", err)
	}
	return nil
}

// PurgeLookupCache deletes cache rows fetched before cutoff and returns how many went
func (s *Store) PurgeLookupCache(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM lookup_cache WHERE fetched_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging lookup cache: %w", err)
	}
	return res.RowsAffected()
}
