package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/tools/search"
)

const summaryLength = 150

type WebSearcher struct {
	searcher   search.Searcher
	cache      Cache
	cacheTTL   time.Duration
	topResults int
}

func NewWebSearcher(searcher search.Searcher, cache Cache, cacheTTL time.Duration, topResults int) *WebSearcher {
	if topResults <= 0 {
		topResults = 3
	}
	return &WebSearcher{searcher: searcher, cache: cache, cacheTTL: cacheTTL, topResults: topResults}
}

func (s *WebSearcher) Search(ctx context.Context, query string) Result {
	if h := historyFrom(ctx); h != nil {
		if past, ok := h.Similar(query); ok {
			return Result{Content: fmt.Sprintf("Note: Similar search already performed (%q). Current query: %q. Consider refining your search strategy or using existing results.", past, query)}
		}
		h.Add(query)
	}

	key := "web_search:" + Normalize(query)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str(logger.QueryField, query).Msg("search cache lookup failed")
		} else if ok {
			log.Debug().Str(logger.QueryField, query).Msg("search cache hit")
			return Result{Content: cached}
		}
	}

	res, err := s.searcher.Search(ctx, query)
	if err != nil {
		return Result{Content: fmt.Sprintf("Error performing search: %v", err), IsError: true}
	}
	if len(res.Results) == 0 {
		return Result{Content: "No results found. Try: (1) Using different keywords (2) Removing specific terms (3) Searching in English"}
	}

	content := s.format(query, res)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, content, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str(logger.QueryField, query).Msg("search cache store failed")
		}
	}
	return Result{Content: content}
}

func (s *WebSearcher) format(query string, res search.Response) string {
	top := append([]search.Result(nil), res.Results...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if len(top) > s.topResults {
		top = top[:s.topResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search: %q\n", query)
	fmt.Fprintf(&b, "Results: %d found, showing top %d\n\n", len(res.Results), len(top))
	if res.Answer != "" {
		fmt.Fprintf(&b, "Quick Answer: %s\n\n", res.Answer)
	}
	b.WriteString("--- Top Results ---\n")
	for i, r := range top {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "    Source: %s\n", r.URL)
		if r.Score >= 0 {
			fmt.Fprintf(&b, "    Relevance: %s (%.0f%%)\n", relevance(r.Score), r.Score*100)
		}
		fmt.Fprintf(&b, "    Summary: %s\n", truncate(r.Content, summaryLength))
	}
	b.WriteString("\n--- Analysis Guide ---\n")
	b.WriteString("After reading these results:\n")
	b.WriteString("1. State whether the results answer your question [Relevant/Partial/Irrelevant]\n")
	b.WriteString("2. If [Partial], identify what specific info is missing\n")
	b.WriteString("3. If [Irrelevant], explain why and plan a new search strategy\n")
	return b.String()
}

func relevance(score float64) string {
	switch {
	case score > 0.8:
		return "High"
	case score > 0.5:
		return "Medium"
	default:
		return "Low"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
