package search

import "github.com/pders01/flick/internal/watchlist"

// Result is one ranked watchlist entry.
type Result struct {
	Entry   watchlist.Entry
	Score   float64
	Matches []Match
}

// Match records which field of an entry matched.
type Match struct {
	Field  string // "title", "original_title", "overview", "genres", "year"
	Text   string // matched text snippet
	Weight float64
}

// Searcher defines the minimal search API used by the CLI and TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Indexer is implemented by engines that keep their own copy of the
// collection and must be told when it changes.
type Indexer interface {
	Index(entries []watchlist.Entry) error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// MinQueryLength is the shortest query that produces results.
const MinQueryLength = 2
