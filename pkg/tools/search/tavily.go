package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const tavilyURL = "https://api.tavily.com"

type Tavily struct {
	APIKey     string
	Depth      string
	MaxResults int
	BaseURL    string
	client     *http.Client
}

func NewTavily(apiKey, depth string, maxResults int, client *http.Client) *Tavily {
	if depth == "" {
		depth = "advanced"
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Tavily{APIKey: apiKey, Depth: depth, MaxResults: maxResults, BaseURL: tavilyURL, client: client}
}

func (t *Tavily) Search(ctx context.Context, query string) (Response, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return Response{}, errors.New("tavily: API key is missing")
	}

	payload, err := json.Marshal(map[string]any{
		"query":          query,
		"search_depth":   t.Depth,
		"max_results":    t.MaxResults,
		"include_answer": true,
	})
	if err != nil {
		return Response{}, err
	}

	resp, err := do(ctx, t.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
		return req, nil
	})
	if err != nil {
		return Response{}, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("tavily API returned %d", resp.StatusCode)
	}

	var raw struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Response{}, fmt.Errorf("tavily: decode: %w", err)
	}

	out := Response{Answer: raw.Answer}
	for _, r := range raw.Results {
		out.Results = append(out.Results, Result{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return out, nil
}
