// Package detail drives the single-movie page: the movie record, the AI
// teaser that follows it, and the markdown the page is drawn from.
package detail

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/movie"
	"github.com/pders01/flick/internal/summary"
	"github.com/pders01/flick/internal/tmdb"
)

const (
	MsgLoadFailed      = "Failed to load movie. Please try again later."
	MsgNotFound        = "This movie could not be found."
	MsgSummaryFailed   = "Summary unavailable at the moment."
	MsgNoSummary       = "No summary available."
	MsgSummaryDisabled = "AI summaries are off. Set OPENAI_API_KEY to turn them on."
)

var ErrNothingToCopy = errors.New("no summary to copy")

type Catalog interface {
	GetByID(ctx context.Context, id int) (*movie.Detail, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, title, overview string) (string, error)
}

type State struct {
	ID              int
	Movie           *movie.Detail
	LoadingMovie    bool
	Error           string
	Summary         string
	LoadingSummary  bool
	SummaryError    string
	ShowFullSummary bool
}

// HasSummaryRegion reports whether the page should show a summary block
// with content, as opposed to the "no summary" placeholder.
func (s State) HasSummaryRegion() bool {
	return s.Movie != nil && strings.TrimSpace(s.Movie.Overview) != ""
}

// Request ties a load to the movie that was open when it started.
type Request struct {
	ID  int
	gen uint64
	ctx context.Context
}

type Option func(*Controller)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(c *Controller) {
		c.copy = write
	}
}

type Controller struct {
	mu         sync.Mutex
	catalog    Catalog
	summarizer Summarizer
	copy       func(string) error

	state  State
	gen    uint64
	cancel context.CancelFunc
}

// NewController builds a controller. summarizer may be nil, which disables
// AI summaries.
func NewController(catalog Catalog, summarizer Summarizer, opts ...Option) *Controller {
	c := &Controller{
		catalog:    catalog,
		summarizer: summarizer,
		copy:       clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open resets the page for id and returns the request to load it. Any load
// for the previous movie is cancelled.
func (c *Controller) Open(id int) *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = State{ID: id, LoadingMovie: true}
	return &Request{ID: id, gen: c.gen, ctx: ctx}
}

// Close cancels outstanding loads and forgets the page.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.state = State{}
}

func (c *Controller) currentLocked(r *Request) bool {
	return r != nil && r.gen == c.gen && r.ID == c.state.ID
}

func bind(ctx context.Context, r *Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(r.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// LoadMovie fetches the movie for r. It reports whether a summary should be
// requested next with LoadSummary.
func (c *Controller) LoadMovie(ctx context.Context, r *Request) (bool, error) {
	ctx, done := bind(ctx, r)
	defer done()

	d, err := c.catalog.GetByID(ctx, r.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(r) {
		return false, nil
	}

	c.state.LoadingMovie = false
	if err != nil {
		debuglog.WithFields(map[string]any{"id": r.ID}).Warnf("movie load failed: %v", err)
		if errors.Is(err, tmdb.ErrNotFound) {
			c.state.Error = MsgNotFound
		} else {
			c.state.Error = MsgLoadFailed
		}
		return false, err
	}

	c.state.Movie = d
	if strings.TrimSpace(d.Overview) == "" {
		return false, nil
	}
	if c.summarizer == nil {
		c.state.SummaryError = MsgSummaryDisabled
		return false, nil
	}
	c.state.LoadingSummary = true
	return true, nil
}

// LoadSummary asks the summarizer for the teaser of the loaded movie. A
// failure only touches the summary region.
func (c *Controller) LoadSummary(ctx context.Context, r *Request) error {
	c.mu.Lock()
	if !c.currentLocked(r) || c.state.Movie == nil {
		c.mu.Unlock()
		return nil
	}
	title, overview := c.state.Movie.DisplayTitle(), c.state.Movie.Overview
	c.mu.Unlock()

	ctx, done := bind(ctx, r)
	defer done()

	text, err := c.summarizer.Summarize(ctx, title, overview)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(r) {
		return nil
	}

	c.state.LoadingSummary = false
	switch {
	case errors.Is(err, summary.ErrNotConfigured):
		c.state.SummaryError = MsgSummaryDisabled
		return nil
	case err != nil:
		debuglog.WithFields(map[string]any{"id": r.ID}).Warnf("summary failed: %v", err)
		c.state.SummaryError = MsgSummaryFailed
		return err
	}
	c.state.Summary = text
	return nil
}

func (c *Controller) ToggleFullSummary() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Summary != "" {
		c.state.ShowFullSummary = !c.state.ShowFullSummary
	}
}

// CopySummary puts the summary text on the system clipboard.
func (c *Controller) CopySummary() error {
	c.mu.Lock()
	text := c.state.Summary
	c.mu.Unlock()

	if text == "" {
		return ErrNothingToCopy
	}
	return c.copy(text)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
