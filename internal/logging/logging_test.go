package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestLogger_ConsoleOnlyFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Console: &buf, NoFile: true})
	require.NoError(t, err)

	logger.Info("scanner", "hidden")
	logger.Warn("scanner", "visible", F("path", "/media/movies"))
	logger.Error("tmdb", "search failed", errors.New("timeout"), F("query", "Alien"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] [scanner] visible | path=/media/movies")
	assert.Contains(t, out, "[ERROR] [tmdb] search failed | error=timeout | query=Alien")
	assert.Empty(t, logger.FilePath())
}

func TestLogger_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "jellyscout.log")

	logger, err := New(Config{Level: "debug", File: path, Console: &buf})
	require.NoError(t, err)
	logger.Debug("naming", "normalized", F("title", "Show Name"))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `title="Show Name"`)
	assert.Equal(t, buf.String(), string(data))
}

func TestLogger_RotatesWhenFull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 2*1024*1024)), 0644))

	logger, err := New(Config{File: path, MaxSizeMB: 1, MaxBackups: 2, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info("test", "after rotation")
	require.NoError(t, logger.Close())

	_, err = os.Stat(filepath.Join(dir, "app.1.log"))
	assert.NoError(t, err, "expected rotated backup")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotation")
	assert.Less(t, len(data), 1024)
}

func TestLogger_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Console: &buf, NoFile: true})
	require.NoError(t, err)

	logger.Info("scanner", "Announced",
		F("path", "/media/Movie Title (2020)"),
		F("tmdb_id", 949),
		F("query", `a|b`))

	out := buf.String()
	assert.Contains(t, out, `| path="/media/Movie Title (2020)"`)
	assert.Contains(t, out, "| tmdb_id=949")
	assert.Contains(t, out, `| query="a|b"`)
	assert.True(t, logger.Enabled(LevelInfo))
	assert.False(t, logger.Enabled(LevelDebug))
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error("x", "y", errors.New("z"))
	assert.False(t, logger.Enabled(LevelError))
	assert.NoError(t, logger.Close())
}
