package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. JELLYSCOUT_TMDB_API_KEY
const EnvPrefix = "JELLYSCOUT"

type Config struct {
	Scan     ScanConfig     `mapstructure:"scan" toml:"scan"`
	TMDb     TMDbConfig     `mapstructure:"tmdb" toml:"tmdb"`
	Telegram TelegramConfig `mapstructure:"telegram" toml:"telegram"`
	Messages MessagesConfig `mapstructure:"messages" toml:"messages"`
	Daemon   DaemonConfig   `mapstructure:"daemon" toml:"daemon"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Logging  logging.Config `mapstructure:"logging" toml:"logging"`
}

// ScanConfig lists the folders to scan and how
type ScanConfig struct {
	Movies      []string `mapstructure:"movies" toml:"movies"`
	TV          []string `mapstructure:"tv" toml:"tv"`
	Concurrency int      `mapstructure:"concurrency" toml:"concurrency"`
	Interval    string   `mapstructure:"interval" toml:"interval"`
}

// TMDbConfig contains The Movie Database API settings
type TMDbConfig struct {
	APIKey         string `mapstructure:"api_key" toml:"api_key"`
	BaseURL        string `mapstructure:"base_url" toml:"base_url"`
	Language       string `mapstructure:"language" toml:"language"`
	IncludeAdult   bool   `mapstructure:"include_adult" toml:"include_adult"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
	CacheTTLHours  int    `mapstructure:"cache_ttl_hours" toml:"cache_ttl_hours"`
}

// TelegramConfig contains the bot used for announcements
type TelegramConfig struct {
	Enabled        bool   `mapstructure:"enabled" toml:"enabled"`
	BotToken       string `mapstructure:"bot_token" toml:"bot_token"`
	ChatID         string `mapstructure:"chat_id" toml:"chat_id"`
	APIURL         string `mapstructure:"api_url" toml:"api_url"`
	ParseMode      string `mapstructure:"parse_mode" toml:"parse_mode"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

// MessagesConfig selects the announcement wording. Template fields override
// the preset for that event when non-empty.
type MessagesConfig struct {
	Language    string `mapstructure:"language" toml:"language"`
	RequestLink string `mapstructure:"request_link" toml:"request_link"`
	MovieAdded  string `mapstructure:"movie_added" toml:"movie_added,omitempty"`
	SeasonAdded string `mapstructure:"season_added" toml:"season_added,omitempty"`
	SeriesAdded string `mapstructure:"series_added" toml:"series_added,omitempty"`
	NoMatch     string `mapstructure:"no_match" toml:"no_match,omitempty"`
}

type DaemonConfig struct {
	HTTPAddr string `mapstructure:"http_addr" toml:"http_addr"`
	Watch    bool   `mapstructure:"watch" toml:"watch"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Movies:      []string{},
			TV:          []string{},
			Concurrency: 4,
			Interval:    "15m",
		},
		TMDb: TMDbConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			IncludeAdult:   false,
			TimeoutSeconds: 10,
			CacheTTLHours:  24,
		},
		Telegram: TelegramConfig{
			Enabled:        false,
			APIURL:         "https://api.telegram.org",
			ParseMode:      "Markdown",
			TimeoutSeconds: 10,
		},
		Messages: MessagesConfig{
			Language: "en",
		},
		Daemon: DaemonConfig{
			HTTPAddr: ":8687",
			Watch:    true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads the config file at path (the default location when empty) and
// applies JELLYSCOUT_* environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	if path == "" {
		defaultPath, err := paths.ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("unable to get config path: %w", err)
		}
		path = defaultPath
	}
	v.SetConfigFile(path)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"tmdb.api_key", "tmdb.language",
		"telegram.enabled", "telegram.bot_token", "telegram.chat_id",
		"database.path", "logging.level",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration as TOML to path (the default location when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		defaultPath, err := paths.ConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	data, err := c.ToTOML()
	if err != nil {
		return err
	}
	// holds API tokens
	return os.WriteFile(path, data, 0600)
}

// ToTOML renders the configuration
func (c *Config) ToTOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	header := "# jellyscout configuration\n# Generated by: jellyscout config init\n\n"
	return append([]byte(header), data...), nil
}

// Redacted returns a copy with secrets masked, for display
func (c *Config) Redacted() *Config {
	out := *c
	out.TMDb.APIKey = mask(c.TMDb.APIKey)
	out.Telegram.BotToken = mask(c.Telegram.BotToken)
	return &out
}

func mask(secret string) string {
	if len(secret) <= 4 {
		if secret == "" {
			return ""
		}
		return "****"
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

// Validate reports every problem that would stop a scan from running
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TMDb.APIKey) == "" {
		errs = append(errs, errors.New("tmdb.api_key is required"))
	}
	if c.Telegram.Enabled {
		if strings.TrimSpace(c.Telegram.BotToken) == "" {
			errs = append(errs, errors.New("telegram.bot_token is required when telegram is enabled"))
		}
		if strings.TrimSpace(c.Telegram.ChatID) == "" {
			errs = append(errs, errors.New("telegram.chat_id is required when telegram is enabled"))
		}
	}
	if c.Scan.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("scan.concurrency must be at least 1, got %d", c.Scan.Concurrency))
	}
	if _, err := c.ScanInterval(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Messages.Language) {
	case "", "en", "nl":
	default:
		errs = append(errs, fmt.Errorf("messages.language must be \"en\" or \"nl\", got %q", c.Messages.Language))
	}

	return errors.Join(errs...)
}

// ScanInterval parses scan.interval
func (c *Config) ScanInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Scan.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid scan.interval %q: %w", c.Scan.Interval, err)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("scan.interval must be at least 1m, got %s", d)
	}
	return d, nil
}

// DatabasePath returns the configured seen database or the default location
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	dbPath, err := paths.DatabasePath()
	if err != nil {
		return "./seen.db"
	}
	return dbPath
}

// TMDbTimeout returns the request timeout for TMDb calls
func (c *Config) TMDbTimeout() time.Duration {
	return time.Duration(c.TMDb.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long lookup results are reused
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.TMDb.CacheTTLHours) * time.Hour
}
