package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pders01/flick/internal/config"
	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/detail"
	"github.com/pders01/flick/internal/genres"
	"github.com/pders01/flick/internal/storage"
	"github.com/pders01/flick/internal/summary"
	"github.com/pders01/flick/internal/tmdb"
	"github.com/pders01/flick/internal/validation"
	"github.com/pders01/flick/internal/watchlist"
)

// session is the wiring shared by the TUI and every subcommand: config,
// logging, the watchlist database and the provider clients.
type session struct {
	cfg       *config.Config
	watchlist *watchlist.Store
	kv        storage.KV
	closeKV   func() error
}

func openSession(flags *rootFlags) (*session, error) {
	configPath := flags.configPath
	if configPath != "" {
		p, err := validation.NewPermissivePathHandler().ExpandAndValidatePath(configPath)
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(level), cfg.Log.Path); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	if err := validateEndpoints(cfg); err != nil {
		debuglog.Close()
		return nil, err
	}

	dbPath, err := resolveDBPath(cfg, flags.dbPath)
	if err != nil {
		debuglog.Close()
		return nil, err
	}
	cfg.Database.Path = dbPath

	kv, closeKV, err := storage.Open(dbPath, cfg.Database.Timeout)
	if err != nil {
		debuglog.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	wl, err := watchlist.Open(kv)
	if err != nil {
		closeKV()
		debuglog.Close()
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	debuglog.Infof("session opened: db=%s", dbPath)
	return &session{cfg: cfg, watchlist: wl, kv: kv, closeKV: closeKV}, nil
}

// resolveDBPath applies the secure path rules to the configured database,
// and the permissive rules to an explicit --db flag.
func resolveDBPath(cfg *config.Config, flagPath string) (string, error) {
	if flagPath != "" {
		p, err := validation.NewPermissivePathHandler().GetSecureDBPath(flagPath)
		if err != nil {
			return "", fmt.Errorf("database path: %w", err)
		}
		return p, nil
	}
	p, err := validation.NewSecurePathHandler().GetSecureDBPath(cfg.Database.Path)
	if err != nil {
		return "", fmt.Errorf("database path %q: %w (use --db to choose another location)", cfg.Database.Path, err)
	}
	return p, nil
}

func validateEndpoints(cfg *config.Config) error {
	v := validation.NewEndpointValidator()
	for _, ep := range []struct {
		name string
		url  *string
	}{
		{"catalog.base_url", &cfg.Catalog.BaseURL},
		{"catalog.image_base_url", &cfg.Catalog.ImageBaseURL},
		{"catalog.web_base_url", &cfg.Catalog.WebBaseURL},
		{"summary.endpoint", &cfg.Summary.Endpoint},
	} {
		normalized, err := v.ValidateAndNormalize(*ep.url)
		if err != nil {
			return fmt.Errorf("%s: %w", ep.name, err)
		}
		*ep.url = normalized
	}
	return nil
}

func (s *session) catalog() (*tmdb.Client, error) {
	c := s.cfg.Catalog
	client, err := tmdb.New(tmdb.Options{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		AccessToken:       c.AccessToken,
		Language:          c.Language,
		Region:            c.Region,
		TrendingWindow:    c.TrendingWindow,
		UserAgent:         c.UserAgent,
		Timeout:           c.HTTPTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
	})
	if err != nil {
		return nil, credentialsHint(err)
	}
	return client, nil
}

// summarizer is nil when no summary key is configured, which the detail
// page shows as disabled summaries.
func (s *session) summarizer() detail.Summarizer {
	c := s.cfg.Summary
	client := summary.New(summary.Options{
		Endpoint:    c.Endpoint,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: c.Temperature,
		Timeout:     c.HTTPTimeout,
	})
	if !client.Available() {
		return nil
	}
	return client
}

func (s *session) genres(lister genres.Lister) *genres.Cache {
	return genres.NewCache(lister)
}

// genreName resolves ids through the cache when a catalog is available and
// through the static table otherwise.
func genreName(ctx context.Context, cache *genres.Cache) func(int) string {
	if cache != nil {
		return func(id int) string { return cache.Name(ctx, id) }
	}
	byID := make(map[int]string, len(genres.Fallback))
	for _, g := range genres.Fallback {
		byID[g.ID] = g.Name
	}
	return func(id int) string { return byID[id] }
}

func (s *session) Close() error {
	err := s.closeKV()
	if cerr := debuglog.Close(); err == nil {
		err = cerr
	}
	return err
}

// lastExport returns the recorded export time, or the zero time when the
// store keeps no metadata or nothing was exported yet.
func (s *session) lastExport() time.Time {
	md, ok := s.kv.(storage.Metadata)
	if !ok {
		return time.Time{}
	}
	v, err := md.GetMetadata(storage.LastExportKey)
	if err != nil || v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *session) recordExport(at time.Time) {
	md, ok := s.kv.(storage.Metadata)
	if !ok {
		return
	}
	if err := md.SetMetadata(storage.LastExportKey, at.UTC().Format(time.RFC3339)); err != nil {
		debuglog.Warnf("recording export time: %v", err)
	}
}
