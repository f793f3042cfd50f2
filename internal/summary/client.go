// Package summary asks an OpenAI-compatible chat completions endpoint for a
// short spoiler-free teaser of a movie.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pders01/flick/internal/debuglog"
)

var (
	ErrNotConfigured = errors.New("summary: no api key configured")
	ErrEmptyResponse = errors.New("summary: response contained no choices")
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("summary API error (status %d): %s", e.StatusCode, e.Message)
}

type Options struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type Client struct {
	http        *resty.Client
	endpoint    string
	apiKey      string
	model       string
	temperature float64
}

func New(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = "gpt-3.5-turbo"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		http: resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("Content-Type", "application/json"),
		endpoint:    opts.Endpoint,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Prompt builds the user message sent for a title and overview.
func Prompt(title, overview string) string {
	return fmt.Sprintf("Summarise the movie %q in 3 short bullet points.\n"+
		"- Keep the tone engaging, like a teaser or movie poster.\n"+
		"- Highlight the setting, main theme, and genre without revealing key plot twists or the ending.\n"+
		"- Do not include spoilers.\n\n"+
		"Overview: %s", title, overview)
}

// Summarize returns the model's teaser text, trimmed.
func (c *Client) Summarize(ctx context.Context, title, overview string) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	body := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: Prompt(title, overview)}},
		Temperature: c.temperature,
	}

	var out chatResponse
	var env errorEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&env).
		Post(c.endpoint)
	if err != nil {
		debuglog.Warnf("summary request for %q failed: %v", title, err)
		return "", fmt.Errorf("summary request: %w", err)
	}

	if resp.IsError() {
		msg := env.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		debuglog.Warnf("summary API status %d: %s", resp.StatusCode(), msg)
		return "", &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}

	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	debuglog.Debugf("summary for %q: %d chars in %s", title, len(text), resp.Time())
	return text, nil
}
