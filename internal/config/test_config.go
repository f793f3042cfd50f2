package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	d := defaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:", // Use in-memory database for tests
			Timeout: 1 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL:           "http://127.0.0.1:0",
			ImageBaseURL:      d.Catalog.ImageBaseURL,
			WebBaseURL:        d.Catalog.WebBaseURL,
			APIKey:            "test-key",
			Language:          "en-US",
			TrendingWindow:    "week",
			HTTPTimeout:       5 * time.Second,
			RequestsPerSecond: 0,
			UserAgent:         "flick-test/1.0",
		},
		Summary: SummaryConfig{
			Endpoint:    "http://127.0.0.1:0/v1/chat/completions",
			Model:       d.Summary.Model,
			Temperature: d.Summary.Temperature,
			HTTPTimeout: 5 * time.Second,
		},
		UI:    d.UI,
		Log:   LogConfig{Level: "off"},
		Media: d.Media,
		Keys:  d.Keys,
	}
}
