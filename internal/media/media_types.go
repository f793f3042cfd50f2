package media

import (
	_ "embed"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type Type int

const (
	TypeWeb Type = iota
	TypeImage
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeWeb:
		return "web"
	case TypeImage:
		return "image"
	default:
		return "unknown"
	}
}

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Image     TypeConfig                `toml:"image"`
	Web       TypeConfig                `toml:"web"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if err := toml.Unmarshal(mediaTypesTOML, &config); err != nil {
		return nil, err
	}

	return &TypeDetector{config: &config}, nil
}

func (d *TypeDetector) DetectType(url string) Type {
	lower := strings.ToLower(url)
	isURL := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")

	// Extension of the last path segment, ignoring query and fragment
	path := lower
	if i := strings.IndexAny(path, "?#"); i != -1 {
		path = path[:i]
	}
	path = path[strings.LastIndex(path, "/")+1:]
	var ext string
	if idx := strings.LastIndex(path, "."); idx != -1 {
		ext = path[idx+1:]
	}

	if ext != "" {
		if slices.Contains(d.config.Image.Extensions, ext) {
			return TypeImage
		}
		if slices.Contains(d.config.Web.Extensions, ext) {
			return TypeWeb
		}
	}

	if isURL {
		if d.matchesPattern(lower, d.config.Image.URLPatterns) {
			return TypeImage
		}
		if d.matchesPattern(lower, d.config.Web.URLPatterns) {
			return TypeWeb
		}
		return TypeWeb
	}

	return TypeUnknown
}

func (d *TypeDetector) GetDefaultOpener() string {
	if platformConfig, ok := d.config.Platforms[runtime.GOOS]; ok {
		return platformConfig.DefaultOpener
	}
	if fallback, ok := d.config.Platforms["fallback"]; ok {
		return fallback.DefaultOpener
	}
	return "open"
}

func (d *TypeDetector) matchesPattern(url string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(url, pattern) {
			return true
		}
	}
	return false
}
