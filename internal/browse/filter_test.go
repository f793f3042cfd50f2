package browse

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pders01/flick/internal/movie"
)

// twentyFive builds 25 entries of which ids 3, 8, 14 and 21 are action
// movies rated 7 or better.
func twentyFive() []movie.Summary {
	items := make([]movie.Summary, 25)
	for i := range items {
		items[i] = movie.Summary{
			ID:          i + 1,
			Title:       fmt.Sprintf("Movie %02d", i+1),
			ReleaseDate: fmt.Sprintf("%d-06-01", 2000+i%5),
			Popularity:  float64(100 - i),
			VoteAverage: 5.0,
			GenreIDs:    []int{18},
		}
	}
	// Action but rated too low.
	items[0].GenreIDs = []int{28}
	items[0].VoteAverage = 6.9
	// Rated high but not action.
	items[1].VoteAverage = 9.1

	matches := map[int]float64{3: 7.0, 8: 8.4, 14: 7.5, 21: 9.0}
	for id, rating := range matches {
		items[id-1].GenreIDs = []int{12, 28}
		items[id-1].VoteAverage = rating
	}
	return items
}

func ids(items []movie.Summary) []int {
	out := make([]int, len(items))
	for i, m := range items {
		out[i] = m.ID
	}
	return out
}

func TestApply_GenreAndRating(t *testing.T) {
	f := FilterState{Genre: 28, Year: AllYears, MinRating: 7}

	assert.Equal(t, []int{3, 8, 14, 21}, ids(Apply(twentyFive(), f, SortPopularityDesc)))
	assert.Equal(t, []int{21, 8, 14, 3}, ids(Apply(twentyFive(), f, SortRatingDesc)))
	assert.Equal(t, []int{3, 14, 8, 21}, ids(Apply(twentyFive(), f, SortRatingAsc)))
}

func TestApply_Year(t *testing.T) {
	items := []movie.Summary{
		{ID: 1, ReleaseDate: "1999-03-31"},
		{ID: 2},
		{ID: 3, ReleaseDate: "1999-12-01"},
		{ID: 4, ReleaseDate: "2001-01-01"},
	}
	assert.Equal(t, []int{1, 3}, ids(Apply(items, FilterState{Year: "1999"}, SortPopularityDesc)))
	assert.Len(t, Apply(items, FilterState{Year: ""}, SortPopularityDesc), 4)
	assert.Len(t, Apply(items, FilterState{Year: AllYears}, SortPopularityDesc), 4)
}

func TestApply_GenreFromFullObjects(t *testing.T) {
	items := []movie.Summary{
		{ID: 1, Genres: []movie.Genre{{ID: 28, Name: "Action"}}},
		{ID: 2},
	}
	assert.Equal(t, []int{1}, ids(Apply(items, FilterState{Genre: 28}, SortPopularityDesc)))
}

func TestApply_DateSortMissingIsEpoch(t *testing.T) {
	items := []movie.Summary{
		{ID: 1, ReleaseDate: "2010-01-01"},
		{ID: 2},
		{ID: 3, ReleaseDate: "1960-01-01"},
	}
	assert.Equal(t, []int{1, 3, 2}, ids(Apply(items, FilterState{}, SortDateDesc)))
	assert.Equal(t, []int{2, 3, 1}, ids(Apply(items, FilterState{}, SortDateAsc)))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	items := twentyFive()
	before := slices.Clone(items)
	_ = Apply(items, FilterState{MinRating: 7}, SortRatingDesc)
	if diff := cmp.Diff(before, items); diff != "" {
		t.Errorf("Apply mutated its input (-before +after):\n%s", diff)
	}
}

func TestAvailableYears(t *testing.T) {
	items := []movie.Summary{
		{ReleaseDate: "2001-01-01"},
		{ReleaseDate: "1999-01-01"},
		{},
		{ReleaseDate: "2001-05-05"},
		{ReleaseDate: "2024-02-02"},
	}
	assert.Equal(t, []string{"2024", "2001", "1999"}, AvailableYears(items))
	assert.Empty(t, AvailableYears(nil))
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortPopularityDesc, s)

	s, err = ParseSort(" Rating-Desc ")
	require.NoError(t, err)
	assert.Equal(t, SortRatingDesc, s)

	_, err = ParseSort("alphabetical")
	assert.Error(t, err)
}

func TestSortOption_NextCycles(t *testing.T) {
	s := SortPopularityDesc
	for range SortOptions {
		s = s.Next()
	}
	assert.Equal(t, SortPopularityDesc, s)
	assert.Equal(t, "Top rated", SortRatingDesc.Label())
}

func TestMemo(t *testing.T) {
	var m Memo
	items := twentyFive()
	f := FilterState{Genre: 28, MinRating: 7}

	first := m.Apply(1, items, f, SortPopularityDesc)
	second := m.Apply(1, items, f, SortPopularityDesc)
	assert.Same(t, &first[0], &second[0], "same key should reuse the cached slice")

	third := m.Apply(2, items[:10], f, SortPopularityDesc)
	assert.Equal(t, []int{3, 8}, ids(third))

	fourth := m.Apply(2, items[:10], f, SortRatingDesc)
	assert.Equal(t, []int{8, 3}, ids(fourth))
}

func genSummary(t *rapid.T, label string) movie.Summary {
	year := rapid.IntRange(1990, 1995).Draw(t, label+"year")
	s := movie.Summary{
		ID:          rapid.IntRange(1, 1000).Draw(t, label+"id"),
		Popularity:  float64(rapid.IntRange(0, 5).Draw(t, label+"pop")),
		VoteAverage: float64(rapid.IntRange(0, 10).Draw(t, label+"vote")),
		GenreIDs:    rapid.SliceOfN(rapid.SampledFrom([]int{12, 18, 28, 35}), 0, 3).Draw(t, label+"genres"),
	}
	if rapid.Bool().Draw(t, label+"dated") {
		s.ReleaseDate = fmt.Sprintf("%d-01-01", year)
	}
	return s
}

func genItems(t *rapid.T) []movie.Summary {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	items := make([]movie.Summary, n)
	for i := range items {
		items[i] = genSummary(t, fmt.Sprintf("item%d.", i))
		// Position tag to observe stability.
		items[i].Title = fmt.Sprintf("%03d", i)
	}
	return items
}

func genFilter(t *rapid.T) FilterState {
	return FilterState{
		Genre:     rapid.SampledFrom([]int{0, 12, 18, 28, 35}).Draw(t, "genre"),
		Year:      rapid.SampledFrom([]string{"", AllYears, "1990", "1993"}).Draw(t, "year"),
		MinRating: float64(rapid.IntRange(0, 10).Draw(t, "min")),
	}
}

func TestApply_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := genItems(t)
		f := genFilter(t)
		s := rapid.SampledFrom(SortOptions).Draw(t, "sort")

		a := Apply(items, f, s)
		b := Apply(items, f, s)
		if !cmp.Equal(a, b) {
			t.Fatalf("Apply is not deterministic")
		}

		for _, m := range a {
			if !f.match(m) {
				t.Fatalf("result %+v does not satisfy filter %+v", m, f)
			}
		}
		kept := 0
		for _, m := range items {
			if f.match(m) {
				kept++
			}
		}
		if kept != len(a) {
			t.Fatalf("expected %d results, got %d", kept, len(a))
		}

		cmpFn := compareBy(s)
		for i := 1; i < len(a); i++ {
			c := cmpFn(a[i-1], a[i])
			if c > 0 {
				t.Fatalf("results out of order at %d", i)
			}
			if c == 0 && a[i-1].Title > a[i].Title {
				t.Fatalf("tie at %d not stable: %s before %s", i, a[i-1].Title, a[i].Title)
			}
		}
	})
}

func TestApply_ZeroFilterKeepsEverything(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := genItems(t)
		out := Apply(items, FilterState{}, SortPopularityDesc)
		if len(out) != len(items) {
			t.Fatalf("zero filter dropped items: %d -> %d", len(items), len(out))
		}
	})
}
