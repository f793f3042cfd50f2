// Package watchlist keeps the user's saved movies in a single key of the
// local key/value store.
package watchlist

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/movie"
	"github.com/pders01/flick/internal/storage"
)

// Key is the storage key holding the whole collection as a JSON array.
const Key = "watchlist"

// Entry is a saved movie. The summary is stored by value so the list renders
// without a network round trip.
type Entry struct {
	movie.Summary `yaml:",inline"`
	AddedAt       time.Time `json:"added_at,omitzero" yaml:"added_at,omitempty" toml:"added_at,omitempty"`
}

type Sort string

const (
	SortRecentlyAdded Sort = "recently-added"
	SortTitleAsc      Sort = "title-asc"
	SortRatingDesc    Sort = "rating-desc"
	SortYearDesc      Sort = "year-desc"
)

var Sorts = []Sort{SortRecentlyAdded, SortTitleAsc, SortRatingDesc, SortYearDesc}

func ParseSort(s string) (Sort, error) {
	if s == "" {
		return SortRecentlyAdded, nil
	}
	opt := Sort(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Sorts, opt) {
		return opt, nil
	}
	return "", fmt.Errorf("unknown watchlist sort %q", s)
}

func (s Sort) Next() Sort {
	i := slices.Index(Sorts, s)
	return Sorts[(i+1)%len(Sorts)]
}

func (s Sort) Label() string {
	switch s {
	case SortTitleAsc:
		return "Title A-Z"
	case SortRatingDesc:
		return "Top rated"
	case SortYearDesc:
		return "Newest"
	default:
		return "Recently added"
	}
}

type Store struct {
	mu      sync.RWMutex
	kv      storage.KV
	entries []Entry
	now     func() time.Time
}

// Open loads the collection from kv. Unreadable stored data is logged and
// treated as an empty collection; a failing kv is an error.
func Open(kv storage.KV) (*Store, error) {
	s := &Store{kv: kv, now: time.Now}

	data, err := kv.Get(Key)
	if err != nil {
		return nil, fmt.Errorf("loading watchlist: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		debuglog.Warnf("watchlist data is corrupt, starting empty: %v", err)
		return s, nil
	}
	s.entries = dedupe(entries)
	return s, nil
}

func dedupe(entries []Entry) []Entry {
	seen := make(map[int]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// commitLocked writes next to storage and only then makes it current, so a
// failed write leaves memory and disk in agreement.
func (s *Store) commitLocked(next []Entry) error {
	if next == nil {
		next = []Entry{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding watchlist: %w", err)
	}
	if err := s.kv.Set(Key, data); err != nil {
		return fmt.Errorf("saving watchlist: %w", err)
	}
	s.entries = next
	return nil
}

func (s *Store) indexLocked(id int) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.ID == id })
}

func (s *Store) IsSaved(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Add inserts m at the front. Adding a saved id changes nothing and
// reports false.
func (s *Store) Add(m movie.Summary) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(m.ID) >= 0 {
		return false, nil
	}
	return true, s.addLocked(m)
}

func (s *Store) Remove(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	if err := s.removeLocked(i); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) addLocked(m movie.Summary) error {
	next := make([]Entry, 0, len(s.entries)+1)
	next = append(next, Entry{Summary: m, AddedAt: s.now().UTC()})
	next = append(next, s.entries...)
	if err := s.commitLocked(next); err != nil {
		return err
	}
	debuglog.Infof("watchlist: added %d %q", m.ID, m.DisplayTitle())
	return nil
}

func (s *Store) removeLocked(i int) error {
	id := s.entries[i].ID
	if err := s.commitLocked(slices.Delete(slices.Clone(s.entries), i, i+1)); err != nil {
		return err
	}
	debuglog.Infof("watchlist: removed %d", id)
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(nil)
}

// Toggle adds m when unsaved and removes it otherwise. It returns whether m
// is saved afterwards.
func (s *Store) Toggle(m movie.Summary) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(m.ID); i >= 0 {
		if err := s.removeLocked(i); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.addLocked(m); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the saved entry for id.
func (s *Store) Get(id int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Entries returns the collection, most recently added first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// List filters by a case-insensitive substring of the title or the release
// year, then orders by sort. Ties keep insertion order.
func (s *Store) List(query string, sort Sort) []Entry {
	entries := s.Entries()

	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" {
		entries = slices.DeleteFunc(entries, func(e Entry) bool {
			title := strings.ToLower(titleOf(e))
			return !strings.Contains(title, q) && !strings.Contains(e.Year(), q)
		})
	}

	switch sort {
	case SortTitleAsc:
		col := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return col.CompareString(titleOf(a), titleOf(b))
		})
	case SortRatingDesc:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return cmp.Compare(b.VoteAverage, a.VoteAverage)
		})
	case SortYearDesc:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return yearOf(b) - yearOf(a)
		})
	}
	return entries
}

// titleOf is the title used for filtering and sorting: the localized title,
// else the original one.
func titleOf(e Entry) string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return strings.TrimSpace(e.OriginalTitle)
}

func yearOf(e Entry) int {
	var y int
	if _, err := fmt.Sscanf(e.Year(), "%d", &y); err != nil {
		return 0
	}
	return y
}
