package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingTrending = "Loading trending movies…"
	MsgSearching       = "Searching…"
	MsgLoadingMore     = "Loading more…"
	MsgLoadingMovie    = "Loading movie…"
	MsgNoResults       = "No movies found"
	MsgNoMatches       = "No movies match these filters"
	MsgEmptyWatchlist  = "Your watchlist is empty. Press a on a movie to save it."
	MsgWatchlistClear  = "Watchlist cleared"
	MsgSummaryCopied   = "Summary copied to clipboard"
	MsgEndOfList       = "You've reached the end"
)

// StatusKind is the severity of a status bar message.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (k StatusKind) style() (lipgloss.Style, string) {
	switch k {
	case StatusSuccess:
		return StatusSuccessStyle, "✓ "
	case StatusWarn:
		return StatusWarnStyle, "! "
	case StatusError:
		return StatusErrorStyle, "✗ "
	}
	return StatusInfoStyle, ""
}

// statusTTL is how long transient messages stay in the status bar.
const statusTTL = 4 * time.Second

func MsgSaved(title string, saved bool) string {
	title = strings.TrimSpace(title)
	if saved {
		return fmt.Sprintf("Added '%s' to watchlist", title)
	}
	return fmt.Sprintf("Removed '%s' from watchlist", title)
}

func MsgExported(path string, count int) string {
	noun := "movies"
	if count == 1 {
		noun = "movie"
	}
	return fmt.Sprintf("Exported %d %s to %s", count, noun, filepath.Base(path))
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 movie"
	}
	return fmt.Sprintf("%d movies", n)
}

// setStatus shows text in the status bar. Info and success messages clear
// themselves after statusTTL.
func (a *App) setStatus(text string, kind StatusKind) tea.Cmd {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
	if kind == StatusError || text == "" {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (a *App) renderStatus() string {
	if a.status == "" {
		return ""
	}
	style, prefix := a.statusKind.style()
	return style.Render(prefix + a.status)
}
