package watchlist

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pders01/flick/internal/movie"
	"github.com/pders01/flick/internal/storage"
)

type failingKV struct {
	storage.KV
	failSet bool
	failGet bool
}

func (f *failingKV) Get(key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("disk on fire")
	}
	return f.KV.Get(key)
}

func (f *failingKV) Set(key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.KV.Set(key, value)
}

func openStore(t *testing.T, kv storage.KV) *Store {
	t.Helper()
	s, err := Open(kv)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func ids(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestStore_AddFrontAndIdempotent(t *testing.T) {
	s := openStore(t, storage.NewMemoryKV())

	for _, id := range []int{1, 2, 3} {
		added, err := s.Add(movie.Summary{ID: id})
		require.NoError(t, err)
		assert.True(t, added)
	}
	assert.Equal(t, []int{3, 2, 1}, ids(s.Entries()))

	added, err := s.Add(movie.Summary{ID: 2, Title: "changed"})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []int{3, 2, 1}, ids(s.Entries()))

	e, ok := s.Get(2)
	require.True(t, ok)
	assert.Empty(t, e.Title, "re-adding must not overwrite the stored snapshot")
	assert.Equal(t, 2025, e.AddedAt.Year())
}

func TestStore_RemoveToggleClear(t *testing.T) {
	s := openStore(t, storage.NewMemoryKV())
	_, _ = s.Add(movie.Summary{ID: 1})
	_, _ = s.Add(movie.Summary{ID: 2})

	removed, err := s.Remove(1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.IsSaved(1))

	removed, err = s.Remove(99)
	require.NoError(t, err)
	assert.False(t, removed)

	saved, err := s.Toggle(movie.Summary{ID: 5})
	require.NoError(t, err)
	assert.True(t, saved)
	saved, err = s.Toggle(movie.Summary{ID: 5})
	require.NoError(t, err)
	assert.False(t, saved)

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Len())
}

func TestStore_PersistsFullCollection(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)
	_, _ = s.Add(movie.Summary{ID: 7, Title: "Se7en", VoteAverage: 8.4})
	_, _ = s.Add(movie.Summary{ID: 8, Title: "Heat"})

	raw, err := kv.Get(Key)
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, "Heat", stored[0]["title"])
	assert.Equal(t, float64(7), stored[1]["id"])

	reopened := openStore(t, kv)
	assert.Equal(t, []int{8, 7}, ids(reopened.Entries()))

	require.NoError(t, s.Clear())
	raw, _ = kv.Get(Key)
	assert.Equal(t, "[]", string(raw))
}

func TestOpen_CorruptDataIsEmpty(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(Key, []byte("{not json")))

	s, err := Open(kv)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	_, err = s.Add(movie.Summary{ID: 1})
	require.NoError(t, err)
	raw, _ := kv.Get(Key)
	assert.JSONEq(t, `[{"id":1,"added_at":"`+s.Entries()[0].AddedAt.Format(time.RFC3339Nano)+`"}]`, string(raw))
}

func TestOpen_DropsDuplicateIDs(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(Key, []byte(`[{"id":1,"title":"a"},{"id":1,"title":"b"},{"id":2}]`)))

	s := openStore(t, kv)
	assert.Equal(t, []int{1, 2}, ids(s.Entries()))
	e, _ := s.Get(1)
	assert.Equal(t, "a", e.Title)
}

func TestOpen_KVError(t *testing.T) {
	_, err := Open(&failingKV{KV: storage.NewMemoryKV(), failGet: true})
	assert.Error(t, err)
}

func TestStore_FailedWriteLeavesStateUnchanged(t *testing.T) {
	kv := &failingKV{KV: storage.NewMemoryKV()}
	s := openStore(t, kv)
	_, _ = s.Add(movie.Summary{ID: 1})

	kv.failSet = true
	_, err := s.Add(movie.Summary{ID: 2})
	assert.Error(t, err)
	assert.False(t, s.IsSaved(2))

	_, err = s.Remove(1)
	assert.Error(t, err)
	assert.True(t, s.IsSaved(1))

	assert.Error(t, s.Clear())
	assert.Equal(t, 1, s.Len())
}

func TestStore_List(t *testing.T) {
	s := openStore(t, storage.NewMemoryKV())
	for _, m := range []movie.Summary{
		{ID: 1, Title: "alien", ReleaseDate: "1979-05-25", VoteAverage: 8.1},
		{ID: 2, Title: "Aliens", ReleaseDate: "1986-07-18", VoteAverage: 7.9},
		{ID: 3, Title: "Blade Runner", ReleaseDate: "1982-06-25", VoteAverage: 7.9},
		{ID: 4, Title: "Arrival"},
	} {
		_, _ = s.Add(m)
	}

	assert.Equal(t, []int{4, 3, 2, 1}, ids(s.List("", SortRecentlyAdded)))
	assert.Equal(t, []int{2, 1}, ids(s.List("ALIEN", SortRecentlyAdded)))
	assert.Equal(t, []int{3}, ids(s.List("1982", SortRecentlyAdded)))
	assert.Empty(t, s.List("zzz", SortRecentlyAdded))

	assert.Equal(t, []int{1, 2, 4, 3}, ids(s.List("", SortTitleAsc)))
	// 2 and 3 tie on rating; 3 was added later so it comes first.
	assert.Equal(t, []int{1, 3, 2, 4}, ids(s.List("", SortRatingDesc)))
	assert.Equal(t, []int{2, 3, 1, 4}, ids(s.List("", SortYearDesc)))
}

func TestStore_ListFallsBackToOriginalTitle(t *testing.T) {
	s := openStore(t, storage.NewMemoryKV())
	for _, m := range []movie.Summary{
		{ID: 1, Title: "Zodiac"},
		{ID: 2, OriginalTitle: "Amélie"},
		{ID: 3, Title: "Metropolis"},
	} {
		_, _ = s.Add(m)
	}

	assert.Equal(t, []int{2, 3, 1}, ids(s.List("", SortTitleAsc)))
	assert.Equal(t, []int{2}, ids(s.List("amé", SortTitleAsc)))
}

func TestStore_ToggleConcurrent(t *testing.T) {
	s := openStore(t, storage.NewMemoryKV())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Toggle(movie.Summary{ID: 9})
		}()
	}
	wg.Wait()

	// An even number of toggles always ends unsaved, with no duplicate rows.
	assert.False(t, s.IsSaved(9))
	assert.Equal(t, 0, s.Len())

	saved, err := s.Toggle(movie.Summary{ID: 9})
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ToggleFailedWriteKeepsState(t *testing.T) {
	kv := &failingKV{KV: storage.NewMemoryKV()}
	s := openStore(t, kv)
	_, _ = s.Add(movie.Summary{ID: 1})

	kv.failSet = true
	saved, err := s.Toggle(movie.Summary{ID: 1})
	assert.Error(t, err)
	assert.True(t, saved)
	assert.True(t, s.IsSaved(1))

	saved, err = s.Toggle(movie.Summary{ID: 2})
	assert.Error(t, err)
	assert.False(t, saved)
	assert.False(t, s.IsSaved(2))
}

func TestParseSort(t *testing.T) {
	got, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortRecentlyAdded, got)

	got, err = ParseSort("Title-Asc")
	require.NoError(t, err)
	assert.Equal(t, SortTitleAsc, got)

	_, err = ParseSort("random")
	assert.Error(t, err)
	assert.Equal(t, SortRecentlyAdded, SortYearDesc.Next())
}

func TestStore_AddIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := Open(storage.NewMemoryKV())
		if err != nil {
			t.Fatal(err)
		}
		adds := rapid.SliceOf(rapid.IntRange(1, 15)).Draw(t, "adds")

		var firstSeen []int
		seen := map[int]bool{}
		for _, id := range adds {
			if _, err := s.Add(movie.Summary{ID: id}); err != nil {
				t.Fatal(err)
			}
			if !seen[id] {
				seen[id] = true
				firstSeen = append([]int{id}, firstSeen...)
			}
		}

		got := ids(s.Entries())
		if len(got) != len(firstSeen) {
			t.Fatalf("expected %d unique entries, got %d", len(firstSeen), len(got))
		}
		for i := range got {
			if got[i] != firstSeen[i] {
				t.Fatalf("order %v, want %v", got, firstSeen)
			}
		}
	})
}
