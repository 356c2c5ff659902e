package database

import (
	"testing"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkSeen_WriteOnce(t *testing.T) {
	db := setupTestDB(t)

	first := SeenItem{Path: "/tv/Show/Season 1", Kind: naming.MediaKindSeries, Title: "Show", TMDbID: 7, Season: 1, HasSeason: true}
	added, err := db.MarkSeen(first)
	require.NoError(t, err)
	assert.True(t, added)

	again := first
	again.Title = "Other"
	added, err = db.MarkSeen(again)
	require.NoError(t, err)
	assert.False(t, added, "second mark must be a no-op")

	got, err := db.GetSeen(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "Show", got.Title, "existing row must not be rewritten")
	assert.Equal(t, naming.MediaKindSeries, got.Kind)
	assert.Equal(t, int64(7), got.TMDbID)
	assert.True(t, got.HasSeason)
	assert.Equal(t, 1, got.Season)
}

func TestMarkSeen_EmptyPath(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.MarkSeen(SeenItem{})
	assert.Error(t, err)
}

func TestIsSeen(t *testing.T) {
	db := setupTestDB(t)

	seen, err := db.IsSeen("/movies/Heat")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = db.MarkSeen(SeenItem{Path: "/movies/Heat"})
	require.NoError(t, err)

	seen, err = db.IsSeen("/movies/Heat")
	require.NoError(t, err)
	assert.True(t, seen)

	// paths are compared exactly
	seen, err = db.IsSeen("/movies/heat")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGetSeen_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetSeen("/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSeen(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	items := []SeenItem{
		{Path: "/movies/A", Kind: naming.MediaKindMovie, SeenAt: base},
		{Path: "/movies/B", Kind: naming.MediaKindMovie, SeenAt: base.Add(time.Minute)},
		{Path: "/tv/C", Kind: naming.MediaKindSeries, SeenAt: base.Add(2 * time.Minute)},
	}
	for _, item := range items {
		_, err := db.MarkSeen(item)
		require.NoError(t, err)
	}

	all, err := db.ListSeen("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/tv/C", all[0].Path, "newest first")
	assert.Equal(t, base.Add(2*time.Minute).UnixMilli(), all[0].SeenAt.UnixMilli())

	movies, err := db.ListSeen("movie", 0)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "/movies/B", movies[0].Path)

	limited, err := db.ListSeen("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = db.ListSeen("anime", 0)
	assert.ErrorIs(t, err, naming.ErrUnknownMediaKind)
}

func TestForgetSeen(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.MarkSeen(SeenItem{Path: "/movies/A"})
	require.NoError(t, err)

	require.NoError(t, db.ForgetSeen("/movies/A"))
	seen, err := db.IsSeen("/movies/A")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.ErrorIs(t, db.ForgetSeen("/movies/A"), ErrNotFound)

	added, err := db.MarkSeen(SeenItem{Path: "/movies/A"})
	require.NoError(t, err)
	assert.True(t, added, "forgotten paths can be recorded again")
}

func TestCountSeen(t *testing.T) {
	db := setupTestDB(t)

	counts, err := db.CountSeen()
	require.NoError(t, err)
	assert.Equal(t, 0, counts[naming.MediaKindMovie])
	assert.Equal(t, 0, counts[naming.MediaKindSeries])

	for _, p := range []string{"/m/1", "/m/2"} {
		_, err := db.MarkSeen(SeenItem{Path: p, Kind: naming.MediaKindMovie})
		require.NoError(t, err)
	}
	_, err = db.MarkSeen(SeenItem{Path: "/tv/1", Kind: naming.MediaKindSeries})
	require.NoError(t, err)

	counts, err = db.CountSeen()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[naming.MediaKindMovie])
	assert.Equal(t, 1, counts[naming.MediaKindSeries])
}
