package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := getDefaultOpener()

	if expectedOpener, ok := expected[runtime.GOOS]; ok {
		if opener != expectedOpener {
			t.Errorf("getDefaultOpener() = %s, want %s for %s", opener, expectedOpener, runtime.GOOS)
		}
	} else {
		// For unknown OS, should default to "open"
		if opener != "open" {
			t.Errorf("getDefaultOpener() = %s, want 'open' for unknown OS", opener)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Timeout != 1*time.Second {
		t.Errorf("Database.Timeout = %v, want 1s", cfg.Database.Timeout)
	}

	// Catalog defaults
	if cfg.Catalog.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("Catalog.BaseURL = %s", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.TrendingWindow != "week" {
		t.Errorf("Catalog.TrendingWindow = %s, want week", cfg.Catalog.TrendingWindow)
	}
	if cfg.Catalog.UserAgent == "" {
		t.Error("Catalog.UserAgent should not be empty")
	}

	// Summary defaults
	if cfg.Summary.Model != "gpt-3.5-turbo" {
		t.Errorf("Summary.Model = %s, want gpt-3.5-turbo", cfg.Summary.Model)
	}
	if cfg.Summary.Temperature != 0.7 {
		t.Errorf("Summary.Temperature = %v, want 0.7", cfg.Summary.Temperature)
	}

	if cfg.UI.SearchDebounce != 500*time.Millisecond {
		t.Errorf("UI.SearchDebounce = %v, want 500ms", cfg.UI.SearchDebounce)
	}
	if cfg.Log.Level != "off" {
		t.Errorf("Log.Level = %s, want off", cfg.Log.Level)
	}

	if cfg.Media.DefaultOpener == "" {
		t.Error("Media.DefaultOpener should not be empty")
	}

	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Keys.Bindings.Quit != "q" {
		t.Errorf("Keys.Bindings.Quit = %s, want 'q'", cfg.Keys.Bindings.Quit)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 500*time.Millisecond, cfg.UI.SearchDebounce)
	assert.True(t, filepath.IsAbs(cfg.Database.Path))
}

func TestLoad_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.toml")
	configContent := `
[database]
path = "/tmp/test.db"
timeout = "10s"

[catalog]
http_timeout = "60s"
language = "de-DE"
requests_per_second = 4

[ui]
search_debounce = "250ms"

[ui.colors]
primary = "#FF0000"
`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Database.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Catalog.HTTPTimeout)
	assert.Equal(t, "de-DE", cfg.Catalog.Language)
	assert.Equal(t, 4.0, cfg.Catalog.RequestsPerSecond)
	assert.Equal(t, 250*time.Millisecond, cfg.UI.SearchDebounce)
	assert.Equal(t, "#FF0000", cfg.UI.Colors.Primary)

	// Keys the file leaves out keep their defaults.
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Catalog.BaseURL)
	assert.Equal(t, "#4ECDC4", cfg.UI.Colors.Secondary)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Summary.Model)
}

func TestLoad_EnvSecrets(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[database]\ntimeout = \"2s\"\n"), 0o644))

	t.Setenv("TMDB_API_KEY", "tmdb-from-env")
	t.Setenv("OPENAI_API_KEY", "openai-from-env")
	t.Setenv("FLICK_SUMMARY_API_KEY", "flick-wins")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "tmdb-from-env", cfg.Catalog.APIKey)
	assert.Equal(t, "flick-wins", cfg.Summary.APIKey)
}

func TestLoad_FileKeyBeatsEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "keys.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[catalog]\napi_key = \"from-file\"\n"), 0o644))
	t.Setenv("TMDB_API_KEY", "from-env")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Catalog.APIKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[database\npath = "), 0o644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, filepath.Join(home, "x", "flick.db"), expandPath("~/x/flick.db"))
	assert.True(t, filepath.IsAbs(ExpandPath("relative/flick.db")))
}

func TestSave(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Path = "/test/path.db"
	cfg.Database.Timeout = 10 * time.Second
	cfg.Catalog.UserAgent = "test-save-agent"
	cfg.Catalog.RequestsPerSecond = 2.5
	cfg.UI.Colors.Primary = "#00FF00"
	cfg.Media.DefaultOpener = "test-opener"
	cfg.Keys.Modifier = "alt"
	cfg.Keys.Bindings.ToggleWatchlist = "t"

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	require.NoError(t, Save(cfg, savePath))

	_, statErr := os.Stat(savePath)
	require.NoError(t, statErr, "Save() did not create config file")

	loaded, err := Load(savePath)
	require.NoError(t, err)

	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)
	assert.Equal(t, cfg.Database.Timeout, loaded.Database.Timeout)
	assert.Equal(t, cfg.Catalog.UserAgent, loaded.Catalog.UserAgent)
	assert.Equal(t, cfg.Catalog.RequestsPerSecond, loaded.Catalog.RequestsPerSecond)
	assert.Equal(t, cfg.UI.Colors.Primary, loaded.UI.Colors.Primary)
	assert.Equal(t, cfg.Media.DefaultOpener, loaded.Media.DefaultOpener)
	assert.Equal(t, cfg.Keys.Modifier, loaded.Keys.Modifier)
	assert.Equal(t, "t", loaded.Keys.Bindings.ToggleWatchlist)
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	require.NoError(t, GenerateDefaultConfig(configPath))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Generated config has Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	assert.Equal(t, defaultConfig().UI.CellWidthPx, cfg.UI.CellWidthPx)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg == nil {
		t.Fatal("TestConfig() returned nil")
	}

	if cfg.Database.Path != ":memory:" {
		t.Errorf("TestConfig Database.Path = %s, want ':memory:'", cfg.Database.Path)
	}
	if cfg.Catalog.UserAgent != "flick-test/1.0" {
		t.Errorf("TestConfig Catalog.UserAgent = %s, want 'flick-test/1.0'", cfg.Catalog.UserAgent)
	}
}
