package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CatalogConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	ImageBaseURL      string        `mapstructure:"image_base_url"`
	WebBaseURL        string        `mapstructure:"web_base_url"`
	APIKey            string        `mapstructure:"api_key"`
	AccessToken       string        `mapstructure:"access_token"`
	Language          string        `mapstructure:"language"`
	Region            string        `mapstructure:"region"`
	TrendingWindow    string        `mapstructure:"trending_window"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"`
}

type SummaryConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type UIConfig struct {
	Colors              UIColors      `mapstructure:"colors"`
	SearchDebounce      time.Duration `mapstructure:"search_debounce"`
	CellWidthPx         int           `mapstructure:"cell_width_px"`
	SummaryPreviewLines int           `mapstructure:"summary_preview_lines"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type MediaConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit            string `mapstructure:"quit"`
	Search          string `mapstructure:"search"`
	Watchlist       string `mapstructure:"watchlist"`
	ToggleWatchlist string `mapstructure:"toggle_watchlist"`
	CycleGenre      string `mapstructure:"cycle_genre"`
	CycleYear       string `mapstructure:"cycle_year"`
	RaiseRating     string `mapstructure:"raise_rating"`
	LowerRating     string `mapstructure:"lower_rating"`
	CycleSort       string `mapstructure:"cycle_sort"`
	Retry           string `mapstructure:"retry"`
	Open            string `mapstructure:"open"`
	Copy            string `mapstructure:"copy"`
	Expand          string `mapstructure:"expand"`
	Export          string `mapstructure:"export"`
	Clear           string `mapstructure:"clear"`
	Back            string `mapstructure:"back"`
}

// DefaultDir is ~/.flick, where the database, logs and exports live.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".flick")
}

func defaultConfig() *Config {
	dir := DefaultDir()

	return &Config{
		Database: DatabaseConfig{
			Path:    filepath.Join(dir, "flick.db"),
			Timeout: 1 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			WebBaseURL:        "https://www.themoviedb.org",
			Language:          "en-US",
			TrendingWindow:    "week",
			HTTPTimeout:       15 * time.Second,
			RequestsPerSecond: 20,
			UserAgent:         "flick/1.0 (https://github.com/pders01/flick)",
		},
		Summary: SummaryConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			HTTPTimeout: 60 * time.Second,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			SearchDebounce:      500 * time.Millisecond,
			CellWidthPx:         8,
			SummaryPreviewLines: 4,
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(dir, "flick.log"),
		},
		Media: MediaConfig{
			Darwin:        []string{"open"},
			Linux:         []string{"xdg-open", "sensible-browser", "firefox"},
			Windows:       []string{"start"},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:            "q",
				Search:          "/",
				Watchlist:       "w",
				ToggleWatchlist: "a",
				CycleGenre:      "g",
				CycleYear:       "y",
				RaiseRating:     "+",
				LowerRating:     "-",
				CycleSort:       "s",
				Retry:           "r",
				Open:            "o",
				Copy:            "c",
				Expand:          "m",
				Export:          "e",
				Clear:           "x",
				Back:            "esc",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultConfigPath is ~/.config/flick/config.toml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "flick", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultConfigPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FLICK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Decoding over the defaults keeps every key the file leaves out.
	config := defaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvSecrets(config)
	expandPaths(config)

	return config, nil
}

// applyEnvSecrets lets API credentials come from the environment so they
// never have to be written into the config file.
func applyEnvSecrets(cfg *Config) {
	lookups := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.Catalog.APIKey, []string{"FLICK_CATALOG_API_KEY", "TMDB_API_KEY"}},
		{&cfg.Catalog.AccessToken, []string{"FLICK_CATALOG_ACCESS_TOKEN", "TMDB_ACCESS_TOKEN"}},
		{&cfg.Summary.APIKey, []string{"FLICK_SUMMARY_API_KEY", "OPENAI_API_KEY"}},
	}
	for _, l := range lookups {
		if *l.dst != "" {
			continue
		}
		for _, k := range l.keys {
			if v := os.Getenv(k); v != "" {
				*l.dst = v
				break
			}
		}
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// expandPaths expands all paths in the config
func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

// ExpandPath is expandPath for callers outside the package (CLI flag overrides).
func ExpandPath(path string) string {
	return expandPath(path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	dbCfg := map[string]any{
		"path":    config.Database.Path,
		"timeout": config.Database.Timeout.String(),
	}

	catalogCfg := map[string]any{
		"base_url":            config.Catalog.BaseURL,
		"image_base_url":      config.Catalog.ImageBaseURL,
		"web_base_url":        config.Catalog.WebBaseURL,
		"api_key":             config.Catalog.APIKey,
		"access_token":        config.Catalog.AccessToken,
		"language":            config.Catalog.Language,
		"region":              config.Catalog.Region,
		"trending_window":     config.Catalog.TrendingWindow,
		"http_timeout":        config.Catalog.HTTPTimeout.String(),
		"requests_per_second": config.Catalog.RequestsPerSecond,
		"user_agent":          config.Catalog.UserAgent,
	}

	summaryCfg := map[string]any{
		"endpoint":     config.Summary.Endpoint,
		"api_key":      config.Summary.APIKey,
		"model":        config.Summary.Model,
		"temperature":  config.Summary.Temperature,
		"http_timeout": config.Summary.HTTPTimeout.String(),
	}

	c := config.UI.Colors
	uiCfg := map[string]any{
		"colors": map[string]any{
			"primary":    c.Primary,
			"secondary":  c.Secondary,
			"accent":     c.Accent,
			"background": c.Background,
			"surface":    c.Surface,
			"text":       c.Text,
			"muted":      c.Muted,
			"error":      c.Error,
			"success":    c.Success,
		},
		"search_debounce":       config.UI.SearchDebounce.String(),
		"cell_width_px":         config.UI.CellWidthPx,
		"summary_preview_lines": config.UI.SummaryPreviewLines,
	}

	mediaCfg := map[string]any{
		"darwin":         config.Media.Darwin,
		"linux":          config.Media.Linux,
		"windows":        config.Media.Windows,
		"default_opener": config.Media.DefaultOpener,
	}

	b := config.Keys.Bindings
	keysCfg := map[string]any{
		"modifier": config.Keys.Modifier,
		"bindings": map[string]any{
			"quit":             b.Quit,
			"search":           b.Search,
			"watchlist":        b.Watchlist,
			"toggle_watchlist": b.ToggleWatchlist,
			"cycle_genre":      b.CycleGenre,
			"cycle_year":       b.CycleYear,
			"raise_rating":     b.RaiseRating,
			"lower_rating":     b.LowerRating,
			"cycle_sort":       b.CycleSort,
			"retry":            b.Retry,
			"open":             b.Open,
			"copy":             b.Copy,
			"expand":           b.Expand,
			"export":           b.Export,
			"clear":            b.Clear,
			"back":             b.Back,
		},
	}

	v.Set("database", dbCfg)
	v.Set("catalog", catalogCfg)
	v.Set("summary", summaryCfg)
	v.Set("ui", uiCfg)
	v.Set("log", map[string]any{"level": config.Log.Level, "path": config.Log.Path})
	v.Set("media", mediaCfg)
	v.Set("keys", keysCfg)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
