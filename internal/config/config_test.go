package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Scan.Concurrency)
	assert.Equal(t, "15m", cfg.Scan.Interval)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDb.BaseURL)
	assert.Equal(t, "en", cfg.Messages.Language)
}

func TestLoad_ReadsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[scan]
movies = ["/media/movies"]
tv = ["/media/tv"]
concurrency = 2

[tmdb]
api_key = "abc123"
language = "nl-NL"

[telegram]
enabled = true
bot_token = "123:xyz"
chat_id = "-1001"

[messages]
language = "nl"
request_link = "https://example.com/request"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/media/movies"}, cfg.Scan.Movies)
	assert.Equal(t, []string{"/media/tv"}, cfg.Scan.TV)
	assert.Equal(t, 2, cfg.Scan.Concurrency)
	assert.Equal(t, "abc123", cfg.TMDb.APIKey)
	assert.Equal(t, "nl-NL", cfg.TMDb.Language)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "-1001", cfg.Telegram.ChatID)
	assert.Equal(t, "nl", cfg.Messages.Language)
	// untouched keys keep defaults
	assert.Equal(t, 10, cfg.TMDb.TimeoutSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("JELLYSCOUT_TMDB_API_KEY", "from-env")
	t.Setenv("JELLYSCOUT_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TMDb.APIKey)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Scan.Movies = []string{"/data/films"}
	cfg.TMDb.APIKey = "key"
	cfg.Messages.Language = "nl"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Scan.Movies, loaded.Scan.Movies)
	assert.Equal(t, "key", loaded.TMDb.APIKey)
	assert.Equal(t, "nl", loaded.Messages.Language)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telegram.Enabled = true
	cfg.Scan.Concurrency = 0
	cfg.Scan.Interval = "10s"
	cfg.Messages.Language = "de"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"tmdb.api_key", "bot_token", "chat_id", "concurrency", "interval", "messages.language"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TMDb.APIKey = "abcdef123456"
	cfg.Telegram.BotToken = "abc"

	r := cfg.Redacted()
	assert.Equal(t, "********3456", r.TMDb.APIKey)
	assert.Equal(t, "****", r.Telegram.BotToken)
	assert.Equal(t, "abcdef123456", cfg.TMDb.APIKey, "original must be untouched")
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Path = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.DatabasePath())

	t.Setenv("JELLYSCOUT_HOME", "/srv/jellyscout")
	cfg.Database.Path = ""
	assert.Equal(t, "/srv/jellyscout/seen.db", cfg.DatabasePath())
}
