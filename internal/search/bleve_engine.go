package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/watchlist"
)

// BleveEngine is a full-text index over watchlist entries.
type BleveEngine struct {
	mu      sync.RWMutex
	idx     bleve.Index
	entries map[string]watchlist.Entry
	genre   func(id int) string
}

// NewBleveEngine opens or creates an index at indexPath. An empty path keeps
// the index in memory.
func NewBleveEngine(indexPath string, genre func(id int) string) (*BleveEngine, error) {
	var idx bleve.Index
	var err error

	if indexPath == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating memory index: %w", err)
		}
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		// Try open first
		idx, err = bleve.Open(indexPath)
		if err != nil {
			idx, err = bleve.New(indexPath, buildIndexMapping())
			if err != nil {
				return nil, fmt.Errorf("creating index: %w", err)
			}
		}
	}

	return &BleveEngine{idx: idx, entries: map[string]watchlist.Entry{}, genre: genre}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	originalTitle := bleve.NewTextFieldMapping()
	originalTitle.Analyzer = standard.Name
	originalTitle.Store = true
	originalTitle.IncludeTermVectors = true

	overview := bleve.NewTextFieldMapping()
	overview.Analyzer = standard.Name
	overview.Store = true
	overview.IncludeTermVectors = true

	genres := bleve.NewTextFieldMapping()
	genres.Analyzer = standard.Name
	genres.Store = true
	genres.IncludeTermVectors = true

	year := bleve.NewTextFieldMapping()
	year.Analyzer = keyword.Name
	year.Store = true
	year.IncludeTermVectors = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("original_title", originalTitle)
	dm.AddFieldMappingsAt("overview", overview)
	dm.AddFieldMappingsAt("genres", genres)
	dm.AddFieldMappingsAt("year", year)

	im.DefaultMapping = dm
	return im
}

func docID(id int) string { return "movie:" + strconv.Itoa(id) }

func (b *BleveEngine) document(e watchlist.Entry) map[string]any {
	return map[string]any{
		"type":           "movie",
		"title":          e.Title,
		"original_title": e.OriginalTitle,
		"overview":       e.Overview,
		"genres":         genreText(e, b.genre),
		"year":           e.Year(),
	}
}

// Index replaces the indexed collection with entries.
func (b *BleveEngine) Index(entries []watchlist.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make(map[string]watchlist.Entry, len(entries))
	batch := b.idx.NewBatch()
	for _, e := range entries {
		id := docID(e.ID)
		next[id] = e
		if err := batch.Index(id, b.document(e)); err != nil {
			return fmt.Errorf("indexing %s: %w", id, err)
		}
	}
	for id := range b.entries {
		if _, keep := next[id]; !keep {
			batch.Delete(id)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("writing index batch: %w", err)
	}
	b.entries = next
	debuglog.Debugf("search: indexed %d watchlist entries", len(next))
	return nil
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < MinQueryLength {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	// Tokenize input and build an OR of per-term matches across key fields with boosts
	tokens := tokenize(query)
	var qs []bleveQuery.Query
	field := func(q interface {
		bleveQuery.Query
		SetField(string)
		SetBoost(float64)
	}, name string, boost float64) {
		q.SetField(name)
		q.SetBoost(boost)
		qs = append(qs, q)
	}
	for _, tok := range tokens {
		field(bleve.NewMatchQuery(tok), "title", 4.0)
		field(bleve.NewPrefixQuery(tok), "title", 3.5)
		field(bleve.NewMatchQuery(tok), "original_title", 3.0)
		field(bleve.NewPrefixQuery(tok), "original_title", 2.5)
		field(bleve.NewMatchQuery(tok), "genres", 2.0)
		field(bleve.NewMatchQuery(tok), "overview", 1.0)
		field(bleve.NewPrefixQuery(tok), "overview", 0.8)
		if isYear(tok) {
			field(bleve.NewTermQuery(tok), "year", 2.0)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	srch := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	srch.Fields = []string{"title", "original_title", "overview", "genres", "year"}
	srch.IncludeLocations = true

	b.mu.RLock()
	defer b.mu.RUnlock()

	res, err := b.idx.Search(srch)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		entry, ok := b.entries[h.ID]
		if !ok {
			continue
		}
		r := &Result{Entry: entry, Score: h.Score}
		for _, name := range srch.Fields {
			if _, hit := h.Locations[name]; !hit {
				continue
			}
			text, _ := h.Fields[name].(string)
			if name == "overview" {
				text = truncate(text, 160)
			}
			r.Matches = append(r.Matches, Match{Field: name, Text: text})
		}
		out = append(out, r)
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

// New returns a memory-backed bleve engine, falling back to the plain
// scoring Engine when the index cannot be created.
func New(genre func(id int) string) Searcher {
	be, err := NewBleveEngine("", genre)
	if err != nil {
		debuglog.Warnf("search: bleve unavailable, using simple engine: %v", err)
		return NewEngine(genre)
	}
	return be
}
