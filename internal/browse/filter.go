package browse

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pders01/flick/internal/movie"
)

type SortOption string

const (
	SortPopularityDesc SortOption = "popularity-desc"
	SortPopularityAsc  SortOption = "popularity-asc"
	SortDateDesc       SortOption = "date-desc"
	SortDateAsc        SortOption = "date-asc"
	SortRatingDesc     SortOption = "rating-desc"
	SortRatingAsc      SortOption = "rating-asc"
)

// SortOptions lists every option in display order.
var SortOptions = []SortOption{
	SortPopularityDesc,
	SortPopularityAsc,
	SortDateDesc,
	SortDateAsc,
	SortRatingDesc,
	SortRatingAsc,
}

func ParseSort(s string) (SortOption, error) {
	if s == "" {
		return SortPopularityDesc, nil
	}
	opt := SortOption(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortOptions, opt) {
		return opt, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

func (s SortOption) Label() string {
	switch s {
	case SortPopularityDesc:
		return "Most popular"
	case SortPopularityAsc:
		return "Least popular"
	case SortDateDesc:
		return "Newest"
	case SortDateAsc:
		return "Oldest"
	case SortRatingDesc:
		return "Top rated"
	case SortRatingAsc:
		return "Lowest rated"
	default:
		return string(s)
	}
}

// Next cycles to the following option, wrapping around.
func (s SortOption) Next() SortOption {
	i := slices.Index(SortOptions, s)
	return SortOptions[(i+1)%len(SortOptions)]
}

// AllYears is the Year value that disables the year filter.
const AllYears = "all"

type FilterState struct {
	Genre     int
	Year      string
	MinRating float64
}

func (f FilterState) yearSelected() bool {
	return f.Year != "" && f.Year != AllYears
}

func (f FilterState) Active() bool {
	return f.Genre != 0 || f.yearSelected() || f.MinRating > 0
}

func (f FilterState) match(m movie.Summary) bool {
	if f.Genre != 0 && !m.HasGenre(f.Genre) {
		return false
	}
	if f.yearSelected() && m.Year() != f.Year {
		return false
	}
	if f.MinRating > 0 && m.VoteAverage < f.MinRating {
		return false
	}
	return true
}

func compareBy(s SortOption) func(a, b movie.Summary) int {
	switch s {
	case SortPopularityAsc:
		return func(a, b movie.Summary) int { return cmp.Compare(a.Popularity, b.Popularity) }
	case SortDateDesc:
		return func(a, b movie.Summary) int { return b.Released().Compare(a.Released()) }
	case SortDateAsc:
		return func(a, b movie.Summary) int { return a.Released().Compare(b.Released()) }
	case SortRatingDesc:
		return func(a, b movie.Summary) int { return cmp.Compare(b.VoteAverage, a.VoteAverage) }
	case SortRatingAsc:
		return func(a, b movie.Summary) int { return cmp.Compare(a.VoteAverage, b.VoteAverage) }
	default:
		return func(a, b movie.Summary) int { return cmp.Compare(b.Popularity, a.Popularity) }
	}
}

// Apply filters and sorts items into a new slice. items is never modified
// and ties keep their input order.
func Apply(items []movie.Summary, f FilterState, s SortOption) []movie.Summary {
	out := make([]movie.Summary, 0, len(items))
	for _, m := range items {
		if f.match(m) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, compareBy(s))
	return out
}

// AvailableYears returns the distinct release years present, newest first.
func AvailableYears(items []movie.Summary) []string {
	seen := make(map[string]struct{})
	var years []string
	for _, m := range items {
		y := m.Year()
		if y == "" {
			continue
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}

type memoKey struct {
	version uint64
	filter  FilterState
	sort    SortOption
}

// Memo caches the last Apply result keyed by list version, filter and sort.
type Memo struct {
	mu     sync.Mutex
	key    memoKey
	valid  bool
	result []movie.Summary
}

func (m *Memo) Apply(version uint64, items []movie.Summary, f FilterState, s SortOption) []movie.Summary {
	key := memoKey{version: version, filter: f, sort: s}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.key == key {
		return m.result
	}
	m.result = Apply(items, f, s)
	m.key = key
	m.valid = true
	return m.result
}
