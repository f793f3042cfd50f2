package search

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pders01/flick/internal/watchlist"
)

// Engine scores entries in memory without an index. It is the fallback when
// a bleve index cannot be opened.
type Engine struct {
	entries []watchlist.Entry
	genre   func(id int) string
}

// NewEngine creates an engine. genre resolves genre ids to names and may be
// nil.
func NewEngine(genre func(id int) string) *Engine {
	return &Engine{genre: genre}
}

func (e *Engine) Index(entries []watchlist.Entry) error {
	e.entries = entries
	return nil
}

func (e *Engine) DocCount() (int, error) {
	return len(e.entries), nil
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < MinQueryLength {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	var results []*Result
	for _, entry := range e.entries {
		if r := e.searchEntry(entry, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchEntry(entry watchlist.Entry, terms []string) *Result {
	var matches []Match
	var totalScore float64

	add := func(field, text string, weight float64, snippet func(string) string) {
		if s := e.scoreField(text, terms, weight); s > 0 {
			matches = append(matches, Match{Field: field, Text: snippet(text), Weight: s})
			totalScore += s
		}
	}
	same := func(s string) string { return s }

	add("title", entry.Title, 4.0, same)
	if entry.OriginalTitle != entry.Title {
		add("original_title", entry.OriginalTitle, 3.0, same)
	}
	add("genres", genreText(entry, e.genre), 2.0, same)
	add("year", entry.Year(), 2.0, same)
	add("overview", entry.Overview, 1.0, func(s string) string {
		return e.findBestSnippet(s, terms, 160)
	})

	if totalScore == 0 {
		return nil
	}
	return &Result{Entry: entry, Score: totalScore, Matches: matches}
}

func genreText(entry watchlist.Entry, resolve func(int) string) string {
	var names []string
	for _, g := range entry.Genres {
		names = append(names, g.Name)
	}
	if len(names) == 0 && resolve != nil {
		for _, id := range entry.GenreIDs {
			if n := resolve(id); n != "" {
				names = append(names, n)
			}
		}
	}
	return strings.Join(names, " ")
}

// scoreField calculates relevance score for a field
func (e *Engine) scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		// Exact phrase match (highest score)
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	// Boost score if multiple terms match
	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet finds the most relevant text snippet containing search terms
func (e *Engine) findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8 // Approximate words in snippet
	if windowSize > len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0.0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		windowText := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0.0
		for _, term := range terms {
			if strings.Contains(windowText, term) {
				score += 1.0
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize breaks text into lowercase searchable terms. Single letters are
// dropped; four digit years are kept.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	flush := func() {
		if term := current.String(); len(term) > 1 {
			terms = append(terms, term)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			flush()
		}
	}
	flush()

	return terms
}

// truncate limits text length with ellipsis, on a rune boundary.
func truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}

func isYear(term string) bool {
	if len(term) != 4 {
		return false
	}
	_, err := strconv.Atoi(term)
	return err == nil
}
