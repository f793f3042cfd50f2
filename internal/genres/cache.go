// Package genres resolves TMDB genre ids to display names.
package genres

import (
	"context"
	"sync"

	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/movie"
)

type Lister interface {
	ListGenres(ctx context.Context) ([]movie.Genre, error)
}

// Fallback is the static TMDB movie genre table used when the provider
// cannot be reached.
var Fallback = []movie.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 14, Name: "Fantasy"},
	{ID: 36, Name: "History"},
	{ID: 27, Name: "Horror"},
	{ID: 10402, Name: "Music"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10749, Name: "Romance"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 10770, Name: "TV Movie"},
	{ID: 53, Name: "Thriller"},
	{ID: 10752, Name: "War"},
	{ID: 37, Name: "Western"},
}

// Cache fetches the genre list once per process. After a failed fetch,
// Name and Names answer from Fallback without going back to the network;
// only an explicit All call tries the provider again.
type Cache struct {
	mu     sync.Mutex
	lister Lister
	list   []movie.Genre
	byID   map[int]string
	failed bool
}

var fallbackByID = index(Fallback)

func index(list []movie.Genre) map[int]string {
	m := make(map[int]string, len(list))
	for _, g := range list {
		m[g.ID] = g.Name
	}
	return m
}

func NewCache(lister Lister) *Cache {
	return &Cache{lister: lister}
}

// All returns the provider's genre list, fetching it if no fetch has
// succeeded yet. On failure it returns Fallback.
func (c *Cache) All(ctx context.Context) []movie.Genre {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchLocked(ctx)
}

func (c *Cache) fetchLocked(ctx context.Context) []movie.Genre {
	if c.list != nil {
		return c.list
	}
	if c.lister == nil {
		return Fallback
	}

	list, err := c.lister.ListGenres(ctx)
	if err != nil || len(list) == 0 {
		debuglog.Warnf("genre list unavailable, using fallback: %v", err)
		c.failed = true
		return Fallback
	}

	c.list = list
	c.byID = index(list)
	c.failed = false
	return c.list
}

// lookup returns the id to name table, fetching only when nothing has been
// tried yet.
func (c *Cache) lookup(ctx context.Context) map[int]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.byID == nil && !c.failed {
		c.fetchLocked(ctx)
	}
	if c.byID != nil {
		return c.byID
	}
	return fallbackByID
}

// Name returns the display name for id, or "" when unknown.
func (c *Cache) Name(ctx context.Context, id int) string {
	return c.lookup(ctx)[id]
}

// Names maps ids to names, skipping unknown ones.
func (c *Cache) Names(ctx context.Context, ids []int) []string {
	byID := c.lookup(ctx)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := byID[id]; n != "" {
			out = append(out, n)
		}
	}
	return out
}
