// Package browse turns a query string and a page cursor into a deduplicated,
// filterable, incrementally loaded movie list.
package browse

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/movie"
)

// MsgLoadFailed is the only text shown to the user when a page fails.
const MsgLoadFailed = "Couldn't load movies. Check your connection and retry."

// ErrStale is returned by Do when the response arrived after its query or
// page was superseded. Nothing was committed.
var ErrStale = errors.New("browse: stale response discarded")

// Catalog is the slice of the movie provider the controller needs.
type Catalog interface {
	ListTrending(ctx context.Context, page int) (*movie.ResultPage, error)
	Search(ctx context.Context, query string, page int) (*movie.ResultPage, error)
}

// State is a snapshot of the controller. Version changes whenever Items does.
type State struct {
	Query          string
	Page           int
	Items          []movie.Summary
	HasMore        bool
	LoadingInitial bool
	LoadingMore    bool
	Error          string
	Version        uint64
}

// Loading reports whether any page request is in flight.
func (s State) Loading() bool {
	return s.LoadingInitial || s.LoadingMore
}

// Fetch identifies one page request. It is only valid for the controller
// that issued it.
type Fetch struct {
	Query string
	Page  int
	gen   uint64
	ctx   context.Context
}

type Controller struct {
	mu      sync.Mutex
	catalog Catalog

	started bool
	query   string
	page    int
	items   []movie.Summary
	seen    map[int]struct{}
	hasMore bool
	version uint64

	loadingInitial bool
	loadingMore    bool
	errMsg         string

	gen       uint64
	genCtx    context.Context
	genCancel context.CancelFunc
}

func NewController(catalog Catalog) *Controller {
	return &Controller{catalog: catalog, hasMore: true}
}

// SetQuery switches to q (trimmed; empty means trending). It returns the
// page 1 fetch to run, or false when q is already the active query.
func (c *Controller) SetQuery(q string) (*Fetch, bool) {
	q = strings.TrimSpace(q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started && q == c.query {
		return nil, false
	}

	if c.genCancel != nil {
		c.genCancel()
	}
	c.gen++
	c.genCtx, c.genCancel = context.WithCancel(context.Background())

	c.started = true
	c.query = q
	c.page = 0
	c.items = nil
	c.seen = make(map[int]struct{})
	c.hasMore = true
	c.errMsg = ""
	c.loadingInitial = true
	c.loadingMore = false
	c.version++

	return c.newFetchLocked(1), true
}

// Reload restarts the active query from page 1 even if it did not change.
func (c *Controller) Reload() (*Fetch, bool) {
	c.mu.Lock()
	q := c.query
	c.started = false
	c.mu.Unlock()
	return c.SetQuery(q)
}

// LoadMore returns the next page fetch. It is a silent no-op when the end
// was reached, when any load is in flight, or while a failure is waiting
// for an explicit Retry.
func (c *Controller) LoadMore() (*Fetch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || !c.hasMore || c.loadingInitial || c.loadingMore || c.errMsg != "" {
		return nil, false
	}
	c.loadingMore = true
	return c.newFetchLocked(c.page + 1), true
}

// Retry re-requests the page that failed, from the same cursor.
func (c *Controller) Retry() (*Fetch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.errMsg == "" || c.loadingInitial || c.loadingMore {
		return nil, false
	}
	c.errMsg = ""
	next := c.page + 1
	if next == 1 {
		c.loadingInitial = true
	} else {
		c.loadingMore = true
	}
	return c.newFetchLocked(next), true
}

// DismissError hides the inline failure message. The list is untouched and
// LoadMore stays available.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

func (c *Controller) newFetchLocked(page int) *Fetch {
	return &Fetch{Query: c.query, Page: page, gen: c.gen, ctx: c.genCtx}
}

// Do runs f against the catalog and commits the result if f is still
// current. ctx is additionally cancelled when f's query is superseded.
func (c *Controller) Do(ctx context.Context, f *Fetch) error {
	if f == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if f.ctx != nil {
		stop := context.AfterFunc(f.ctx, cancel)
		defer stop()
	}

	var (
		res *movie.ResultPage
		err error
	)
	if f.Query == "" {
		res, err = c.catalog.ListTrending(ctx, f.Page)
	} else {
		res, err = c.catalog.Search(ctx, f.Query, f.Page)
	}
	return c.commit(f, res, err)
}

func (c *Controller) commit(f *Fetch, res *movie.ResultPage, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f.gen != c.gen || f.Page != c.page+1 {
		debuglog.Debugf("browse: dropping page %d for %q (generation %d, current %d)", f.Page, f.Query, f.gen, c.gen)
		return ErrStale
	}

	c.loadingInitial = false
	c.loadingMore = false

	if err == nil && res == nil {
		err = errors.New("browse: catalog returned no page")
	}
	if err != nil {
		debuglog.WithFields(map[string]any{
			"query": f.Query,
			"page":  f.Page,
		}).Warnf("page load failed: %v", err)
		c.errMsg = MsgLoadFailed
		return err
	}

	if f.Page == 1 {
		c.items = nil
		c.seen = make(map[int]struct{}, len(res.Results))
	}
	for _, m := range res.Results {
		if _, dup := c.seen[m.ID]; dup {
			continue
		}
		c.seen[m.ID] = struct{}{}
		c.items = append(c.items, m)
	}

	c.page = f.Page
	c.hasMore = len(res.Results) >= movie.PageSize && (res.TotalPages == 0 || f.Page < res.TotalPages)
	c.errMsg = ""
	c.version++
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Query:          c.query,
		Page:           c.page,
		Items:          slices.Clip(c.items),
		HasMore:        c.hasMore,
		LoadingInitial: c.loadingInitial,
		LoadingMore:    c.loadingMore,
		Error:          c.errMsg,
		Version:        c.version,
	}
}

// Close cancels any in-flight request.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genCancel != nil {
		c.genCancel()
	}
}
