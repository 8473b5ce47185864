// Package search implements the web search backends behind the web_search tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported search provider")
	ErrRateLimited         = errors.New("search provider rate limit exceeded")
)

const maxAttempts = 3

// retryDelay is the wait before the first retry; it doubles on each further one.
var retryDelay = time.Second

type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"` // 0..1, negative when the provider does not rank
}

type Response struct {
	Results []Result `json:"results"`
	Answer  string   `json:"answer,omitempty"`
}

type Searcher interface {
	Search(ctx context.Context, query string) (Response, error)
}

type Provider string

const (
	TavilyProvider Provider = "tavily"
	BraveProvider  Provider = "brave"
)

type Options struct {
	APIKey     string
	Depth      string
	MaxResults int
	Timeout    time.Duration
}

func New(provider Provider, opts Options) (Searcher, error) {
	client := &http.Client{Timeout: opts.Timeout}
	switch provider {
	case TavilyProvider:
		return NewTavily(opts.APIKey, opts.Depth, opts.MaxResults, client), nil
	case BraveProvider:
		return NewBrave(opts.APIKey, opts.MaxResults, client), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// do sends req, retrying on 429 with a doubling delay. It gives up with ErrRateLimited after
// maxAttempts tries.
func do(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	delay := retryDelay
	for attempt := 1; ; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()
		if attempt == maxAttempts {
			return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, attempt)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
