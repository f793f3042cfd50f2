package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pders01/flick/internal/config"
	"github.com/pders01/flick/internal/movie"
	"github.com/pders01/flick/internal/storage"
	"github.com/pders01/flick/internal/tmdb"
	"github.com/pders01/flick/internal/watchlist"
)

// fakeCatalog serves totalPages pages of trending movies with ids
// page*100+i, and search results titled after the query.
type fakeCatalog struct {
	mu         sync.Mutex
	totalPages int
	failPage   int
	calls      []string
}

func (c *fakeCatalog) page(prefix string, page int) (*movie.ResultPage, error) {
	c.mu.Lock()
	c.calls = append(c.calls, fmt.Sprintf("%s:%d", prefix, page))
	fail := c.failPage == page
	c.mu.Unlock()
	if fail {
		return nil, errors.New("boom")
	}

	res := &movie.ResultPage{Page: page, TotalPages: c.totalPages}
	for i := 1; i <= movie.PageSize; i++ {
		res.Results = append(res.Results, movie.Summary{
			ID:          page*100 + i,
			Title:       fmt.Sprintf("%s %d", prefix, page*100+i),
			ReleaseDate: fmt.Sprintf("%d-05-01", 2000+i%5),
			VoteAverage: float64(i%8) + 1,
			Popularity:  float64(100 - i),
			GenreIDs:    []int{18 + i%2*10},
		})
	}
	return res, nil
}

func (c *fakeCatalog) ListTrending(_ context.Context, page int) (*movie.ResultPage, error) {
	return c.page("Trending", page)
}

func (c *fakeCatalog) Search(_ context.Context, query string, page int) (*movie.ResultPage, error) {
	return c.page(strings.ToUpper(query), page)
}

func (c *fakeCatalog) GetByID(_ context.Context, id int) (*movie.Detail, error) {
	if id == 404 {
		return nil, tmdb.ErrNotFound
	}
	return &movie.Detail{Summary: movie.Summary{
		ID:          id,
		Title:       fmt.Sprintf("Movie %d", id),
		Overview:    "A very long overview about a movie.",
		ReleaseDate: "2021-10-22",
		VoteAverage: 7.8,
	}}, nil
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(_ context.Context, title, _ string) (string, error) {
	return "Teaser for " + title, nil
}

type staticGenres []movie.Genre

func (g staticGenres) All(context.Context) []movie.Genre { return g }

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *recordingOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

type testEnv struct {
	app       *App
	catalog   *fakeCatalog
	watchlist *watchlist.Store
	opener    *recordingOpener
	copied    *string
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config, *Deps)) *testEnv {
	t.Helper()

	cfg := config.TestConfig()
	wl, err := watchlist.Open(storage.NewMemoryKV())
	require.NoError(t, err)

	var copied string
	env := &testEnv{
		catalog:   &fakeCatalog{totalPages: 3},
		watchlist: wl,
		opener:    &recordingOpener{},
		copied:    &copied,
	}
	deps := Deps{
		Catalog:    env.catalog,
		Summarizer: fakeSummarizer{},
		Watchlist:  wl,
		Genres:     staticGenres{{ID: 18, Name: "Drama"}, {ID: 28, Name: "Action"}},
		Opener:     env.opener,
		Clipboard: func(s string) error {
			copied = s
			return nil
		},
		ExportDir: t.TempDir(),
	}
	for _, m := range mutate {
		m(cfg, &deps)
	}

	env.app = NewApp(cfg, deps)
	t.Cleanup(env.app.shutdown)

	env.app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return env
}

// loadFirstPage runs the startup fetch and genre lookup to completion.
func (e *testEnv) loadFirstPage(t *testing.T) {
	t.Helper()
	f, ok := e.app.browse.SetQuery("")
	require.True(t, ok)
	run(t, e.app, tea.Batch(e.app.fetchPage(f), e.app.loadGenres()))
	require.NotEmpty(t, e.app.browse.State().Items)
}

func (e *testEnv) press(t *testing.T, keys ...tea.KeyMsg) {
	t.Helper()
	for _, k := range keys {
		_, cmd := e.app.Update(k)
		run(t, e.app, cmd)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds resulting messages back into the app until
// nothing is left. Commands that block, like status timers, are dropped.
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 100; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := execCmd(c)
		if !ok {
			continue
		}
		switch m := msg.(type) {
		case nil, spinner.TickMsg, statusClearMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, m...)
		default:
			_, next := a.Update(m)
			queue = append(queue, next)
		}
	}
}

func execCmd(c tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case m := <-ch:
		return m, true
	case <-time.After(100 * time.Millisecond):
		return nil, false
	}
}
