package main

import (
	"fmt"
	"io"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/config"
	"github.com/Nomadcxx/jellyscout/internal/database"
	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/notify"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/Nomadcxx/jellyscout/internal/tmdb"
)

// app holds the dependencies built from the configuration for one command
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	store    *database.Store
	tmdb     *tmdb.Client
	lookup   resolver.Lookup
	notifier *notify.Manager
}

// loadConfig reads the config file and applies the persistent flag overrides
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, console io.Writer) (*logging.Logger, error) {
	logCfg := cfg.Logging
	logCfg.Console = console
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create logger: %w", err)
	}
	return logger, nil
}

// openApp validates the configuration and opens everything a scan needs.
// With asyncNotify set, announcements are sent in the background and their
// results must be drained from the notify manager.
func openApp(opts *globalOptions, console io.Writer, asyncNotify bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger, err := newLogger(cfg, console)
	if err != nil {
		return nil, err
	}

	store, err := database.OpenPath(cfg.DatabasePath())
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("unable to open seen database: %w", err)
	}

	client := newTMDbClient(cfg)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		tmdb:     client,
		lookup:   database.NewCachedLookup(store, client, cfg.CacheTTL()),
		notifier: notify.NewManager(asyncNotify, logger),
	}

	telegram, err := newTelegramNotifier(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.notifier.Register(telegram)
	if a.notifier.NotifierCount() == 0 {
		logger.Warn("app", "No notifier enabled, announcements are only logged")
	}

	return a, nil
}

func (a *app) newScanner(dryRun bool) (*scanner.Scanner, error) {
	return scanner.New(scanner.Config{
		Store:       a.store,
		Lookup:      a.lookup,
		Notifier:    a.notifier,
		Logger:      a.logger,
		Concurrency: a.cfg.Scan.Concurrency,
		DryRun:      dryRun,
		ItemURL:     tmdb.ItemURL,
	})
}

// roots lists the configured movie and TV folders
func (a *app) roots() []scanner.Root {
	roots := make([]scanner.Root, 0, len(a.cfg.Scan.Movies)+len(a.cfg.Scan.TV))
	for _, path := range a.cfg.Scan.Movies {
		roots = append(roots, scanner.Root{Path: path, Kind: naming.MediaKindMovie})
	}
	for _, path := range a.cfg.Scan.TV {
		roots = append(roots, scanner.Root{Path: path, Kind: naming.MediaKindSeries})
	}
	return roots
}

func (a *app) Close() {
	a.notifier.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Error("app", "Failed to close seen database", err)
	}
	a.logger.Close()
}

func newTMDbClient(cfg *config.Config) *tmdb.Client {
	return tmdb.NewClient(tmdb.Config{
		APIKey:       cfg.TMDb.APIKey,
		BaseURL:      cfg.TMDb.BaseURL,
		Language:     cfg.TMDb.Language,
		IncludeAdult: cfg.TMDb.IncludeAdult,
		Timeout:      cfg.TMDbTimeout(),
	})
}

func newFormatter(cfg *config.Config) (*notify.Formatter, error) {
	return notify.NewFormatter(notify.FormatterConfig{
		Language:    cfg.Messages.Language,
		RequestLink: cfg.Messages.RequestLink,
		Overrides: map[notify.EventType]string{
			notify.EventMovieAdded:  cfg.Messages.MovieAdded,
			notify.EventSeasonAdded: cfg.Messages.SeasonAdded,
			notify.EventSeriesAdded: cfg.Messages.SeriesAdded,
			notify.EventNoMatch:     cfg.Messages.NoMatch,
		},
	})
}

func newTelegramNotifier(cfg *config.Config) (*notify.TelegramNotifier, error) {
	formatter, err := newFormatter(cfg)
	if err != nil {
		return nil, err
	}
	return notify.NewTelegramNotifier(notify.TelegramConfig{
		Enabled:   cfg.Telegram.Enabled,
		BotToken:  cfg.Telegram.BotToken,
		ChatID:    cfg.Telegram.ChatID,
		APIURL:    cfg.Telegram.APIURL,
		ParseMode: cfg.Telegram.ParseMode,
		Timeout:   time.Duration(cfg.Telegram.TimeoutSeconds) * time.Second,
	}, formatter), nil
}
