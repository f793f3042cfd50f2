// Package tmdb is a client for The Movie Database v3 REST API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pders01/flick/internal/debuglog"
	"github.com/pders01/flick/internal/movie"
)

var (
	// ErrNotFound is returned when the provider has no record for an id.
	ErrNotFound = errors.New("movie not found")
	// ErrNoCredentials is returned by New when neither an API key nor an
	// access token is configured.
	ErrNoCredentials = errors.New("tmdb: no api key or access token configured")
	ErrEmptyQuery    = errors.New("tmdb: empty search query")
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Code       int    `json:"status_code"`
	Message    string `json:"status_message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tmdb API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tmdb API error (status %d)", e.StatusCode)
}

// Is makes a 404 match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Options struct {
	BaseURL           string
	APIKey            string
	AccessToken       string
	Language          string
	Region            string
	TrendingWindow    string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	apiKey   string
	language string
	region   string
	window   string
}

func New(opts Options) (*Client, error) {
	if opts.APIKey == "" && opts.AccessToken == "" {
		return nil, ErrNoCredentials
	}
	if opts.TrendingWindow == "" {
		opts.TrendingWindow = "week"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		hc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.AccessToken != "" {
		hc.SetAuthToken(opts.AccessToken)
	}

	return &Client{
		http:     hc,
		limiter:  rate.NewLimiter(limit, burst),
		apiKey:   opts.APIKey,
		language: opts.Language,
		region:   opts.Region,
		window:   opts.TrendingWindow,
	}, nil
}

// ListTrending returns one page of the trending listing. Pages are 1-based.
func (c *Client) ListTrending(ctx context.Context, page int) (*movie.ResultPage, error) {
	var out movie.ResultPage
	err := c.get(ctx, "/trending/movie/"+c.window, c.params(map[string]string{
		"page": strconv.Itoa(normalizePage(page)),
	}), &out)
	if err != nil {
		return nil, fmt.Errorf("listing trending page %d: %w", page, err)
	}
	return &out, nil
}

func (c *Client) Search(ctx context.Context, query string, page int) (*movie.ResultPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	params := c.params(map[string]string{
		"query":         query,
		"page":          strconv.Itoa(normalizePage(page)),
		"include_adult": "false",
	})
	if c.region != "" {
		params["region"] = c.region
	}

	var out movie.ResultPage
	if err := c.get(ctx, "/search/movie", params, &out); err != nil {
		return nil, fmt.Errorf("searching %q page %d: %w", query, page, err)
	}
	return &out, nil
}

func (c *Client) GetByID(ctx context.Context, id int) (*movie.Detail, error) {
	var out movie.Detail
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), c.params(nil), &out); err != nil {
		return nil, fmt.Errorf("fetching movie %d: %w", id, err)
	}
	return &out, nil
}

func (c *Client) ListGenres(ctx context.Context) ([]movie.Genre, error) {
	var out struct {
		Genres []movie.Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", c.params(nil), &out); err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}
	return out.Genres, nil
}

func (c *Client) params(extra map[string]string) map[string]string {
	p := make(map[string]string, len(extra)+2)
	if c.apiKey != "" {
		p["api_key"] = c.apiKey
	}
	if c.language != "" {
		p["language"] = c.language
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiErr := &APIError{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		SetError(apiErr).
		Get(path)
	if err != nil {
		debuglog.Warnf("tmdb GET %s failed: %v", path, err)
		return err
	}

	debuglog.Debugf("tmdb GET %s -> %d (%s)", path, resp.StatusCode(), resp.Time())
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		debuglog.Warnf("tmdb GET %s: status %d body %s", path, resp.StatusCode(), truncate(resp.String(), 200))
		return apiErr
	}
	return nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
