package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// DefaultFilename is watchlist.json, watchlist.yaml or watchlist.toml.
func (f Format) DefaultFilename() string {
	return "watchlist." + string(f)
}

// Document wraps exported entries for formats that need a top-level table.
type Document struct {
	ID         string    `yaml:"id" toml:"id"`
	ExportedAt time.Time `yaml:"exported_at" toml:"exported_at"`
	Count      int       `yaml:"count" toml:"count"`
	Entries    []Entry   `yaml:"entries" toml:"entries"`
}

func newDocument(entries []Entry) Document {
	if entries == nil {
		entries = []Entry{}
	}
	return Document{
		ID:         uuid.NewString(),
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Count:      len(entries),
		Entries:    entries,
	}
}

// Export writes entries to w. JSON is a bare array indented by two spaces,
// the same shape the collection is stored in; YAML and TOML are wrapped in a
// Document.
func Export(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case FormatJSON:
		if entries == nil {
			entries = []Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(entries)); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(newDocument(entries)); err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
