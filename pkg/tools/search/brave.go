package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

type Brave struct {
	APIKey     string
	MaxResults int
	BaseURL    string
	client     *http.Client
}

func NewBrave(apiKey string, maxResults int, client *http.Client) *Brave {
	if maxResults <= 0 {
		maxResults = 5
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Brave{APIKey: apiKey, MaxResults: maxResults, BaseURL: braveURL, client: client}
}

func (b *Brave) Search(ctx context.Context, query string) (Response, error) {
	if strings.TrimSpace(b.APIKey) == "" {
		return Response{}, errors.New("brave: API key is missing")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(b.MaxResults))

	resp, err := do(ctx, b.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.APIKey)
		return req, nil
	})
	if err != nil {
		return Response{}, fmt.Errorf("brave: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("brave API returned %d", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Response{}, fmt.Errorf("brave: decode: %w", err)
	}

	var out Response
	for i, r := range raw.Web.Results {
		if i >= b.MaxResults {
			break
		}
		// brave does not score results
		out.Results = append(out.Results, Result{Title: r.Title, URL: r.URL, Content: r.Description, Score: -1})
	}
	return out, nil
}
