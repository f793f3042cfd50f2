package tui

import (
	"github.com/pders01/flick/internal/detail"
	"github.com/pders01/flick/internal/movie"
)

type View int

const (
	ViewBrowse View = iota
	ViewDetail
	ViewWatchlist
	ViewClearConfirm
)

func (v View) String() string {
	switch v {
	case ViewBrowse:
		return "browse"
	case ViewDetail:
		return "detail"
	case ViewWatchlist:
		return "watchlist"
	case ViewClearConfirm:
		return "clear-confirm"
	default:
		return "unknown"
	}
}

// pageLoadedMsg reports that a browse fetch finished, committed or not.
type pageLoadedMsg struct {
	err error
}

// searchQueryMsg carries a query that survived the debounce window.
type searchQueryMsg struct {
	query string
}

type genresLoadedMsg struct {
	genres []movie.Genre
}

type movieLoadedMsg struct {
	req         *detail.Request
	needSummary bool
	err         error
}

type summaryLoadedMsg struct {
	req *detail.Request
	err error
}

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

type statusClearMsg struct {
	seq int
}

// copiedMsg reports the clipboard write for the open summary.
type copiedMsg struct {
	err error
}

type errorMsg struct {
	err error
}
