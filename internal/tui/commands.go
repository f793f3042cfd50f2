package tui

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/flick/internal/browse"
	"github.com/pders01/flick/internal/detail"
	"github.com/pders01/flick/internal/validation"
	"github.com/pders01/flick/internal/watchlist"
)

func (a *App) fetchPage(f *browse.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		return pageLoadedMsg{err: a.browse.Do(a.ctx, f)}
	}
}

func (a *App) loadGenres() tea.Cmd {
	if a.genres == nil {
		return nil
	}
	return func() tea.Msg {
		return genresLoadedMsg{genres: a.genres.All(a.ctx)}
	}
}

// waitForQuery blocks until the debouncer settles on a query. It is re-armed
// after every delivery.
func (a *App) waitForQuery() tea.Cmd {
	return func() tea.Msg {
		select {
		case q := <-a.queries:
			return searchQueryMsg{query: q}
		case <-a.done:
			return nil
		}
	}
}

func (a *App) loadMovie(req *detail.Request) tea.Cmd {
	return func() tea.Msg {
		needSummary, err := a.detail.LoadMovie(a.ctx, req)
		return movieLoadedMsg{req: req, needSummary: needSummary, err: err}
	}
}

func (a *App) loadSummary(req *detail.Request) tea.Cmd {
	return func() tea.Msg {
		return summaryLoadedMsg{req: req, err: a.detail.LoadSummary(a.ctx, req)}
	}
}

func (a *App) copySummary() tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: a.detail.CopySummary()}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	if a.opener == nil {
		return nil
	}
	return func() tea.Msg {
		if err := a.opener.Open(url); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", url, err)}
		}
		return nil
	}
}

// exportWatchlist writes the watchlist as JSON into the export directory.
func (a *App) exportWatchlist() tea.Cmd {
	entries := a.watchlist.Entries()
	name := watchlist.FormatJSON.DefaultFilename()
	target := name
	if a.exportDir != "" {
		target = filepath.Join(a.exportDir, name)
	}

	return func() tea.Msg {
		path, err := validation.NewPermissivePathHandler().GetExportPath(target, name)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		var buf bytes.Buffer
		if err := watchlist.Export(&buf, entries, watchlist.FormatJSON); err != nil {
			return exportDoneMsg{err: err}
		}
		if err := retryOperation(func() error { return os.WriteFile(path, buf.Bytes(), 0o600) }); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path, count: len(entries)}
	}
}

// retryOperation retries a write up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				time.Sleep(baseDelay * time.Duration(1<<i))
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
