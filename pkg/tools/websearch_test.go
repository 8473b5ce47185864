package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-deepsearch/pkg/tools/search"
)

type fakeSearcher struct {
	resp  search.Response
	err   error
	calls []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) (search.Response, error) {
	f.calls = append(f.calls, query)
	return f.resp, f.err
}

func sampleResponse() search.Response {
	return search.Response{
		Answer: "Paris is the capital of France.",
		Results: []search.Result{
			{Title: "Low", URL: "https://c.example", Content: "c", Score: 0.2},
			{Title: "France", URL: "https://a.example", Content: "Paris is the capital.", Score: 0.95},
			{Title: "Europe", URL: "https://b.example", Content: "Capitals of Europe", Score: 0.6},
			{Title: "Other", URL: "https://d.example", Content: "d", Score: 0.1},
		},
	}
}

func TestWebSearcher_Format(t *testing.T) {
	f := &fakeSearcher{resp: sampleResponse()}
	s := NewWebSearcher(f, nil, 0, 3)

	res := s.Search(context.Background(), "capital of France")
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "Search: \"capital of France\"")
	assert.Contains(t, res.Content, "Results: 4 found, showing top 3")
	assert.Contains(t, res.Content, "Quick Answer: Paris is the capital of France.")
	assert.Contains(t, res.Content, "[1] France")
	assert.Contains(t, res.Content, "Relevance: High (95%)")
	assert.Contains(t, res.Content, "[2] Europe")
	assert.Contains(t, res.Content, "Relevance: Medium (60%)")
	assert.Contains(t, res.Content, "Relevance: Low (20%)")
	assert.NotContains(t, res.Content, "Other")
}

func TestWebSearcher_TruncatesSummary(t *testing.T) {
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'x'
	}
	f := &fakeSearcher{resp: search.Response{Results: []search.Result{{Title: "t", Content: string(long), Score: -1}}}}
	res := NewWebSearcher(f, nil, 0, 3).Search(context.Background(), "q")

	assert.Contains(t, res.Content, string(long[:150])+"...")
	assert.NotContains(t, res.Content, "Relevance:")
}

func TestWebSearcher_SimilarQuery(t *testing.T) {
	f := &fakeSearcher{resp: sampleResponse()}
	s := NewWebSearcher(f, nil, 0, 3)
	ctx := WithHistory(context.Background(), NewHistory(0.8))

	first := s.Search(ctx, "capital of france")
	require.False(t, first.IsError)

	second := s.Search(ctx, "Capital Of France")
	assert.False(t, second.IsError)
	assert.Contains(t, second.Content, "Note: Similar search already performed")
	assert.Len(t, f.calls, 1)
}

func TestWebSearcher_Cache(t *testing.T) {
	f := &fakeSearcher{resp: sampleResponse()}
	cache := NewMemoryCache()
	s := NewWebSearcher(f, cache, time.Hour, 3)

	first := s.Search(context.Background(), "capital of france")
	second := s.Search(context.Background(), "capital  of FRANCE")
	assert.Equal(t, first, second)
	assert.Len(t, f.calls, 1)
}

func TestWebSearcher_Errors(t *testing.T) {
	f := &fakeSearcher{err: errors.New("quota exceeded")}
	res := NewWebSearcher(f, nil, 0, 3).Search(context.Background(), "q")
	assert.True(t, res.IsError)
	assert.Equal(t, "Error performing search: quota exceeded", res.Content)

	f = &fakeSearcher{}
	res = NewWebSearcher(f, nil, 0, 3).Search(context.Background(), "q")
	assert.False(t, res.IsError)
	assert.Contains(t, res.Content, "No results found")
}

func TestToolbox_Execute(t *testing.T) {
	f := &fakeSearcher{resp: sampleResponse()}
	w, err := NewWorkspace(t.TempDir(), 0)
	require.NoError(t, err)
	box := NewToolbox(NewWebSearcher(f, nil, 0, 3), w)
	ctx := context.Background()

	assert.False(t, box.Execute(ctx, WebSearch{Query: "capital"}).IsError)
	assert.False(t, box.Execute(ctx, Write{Path: "a.txt", Content: "hi"}).IsError)
	assert.Equal(t, "File: a.txt\n\nhi", box.Execute(ctx, Read{Path: "a.txt"}).Content)

	empty := NewToolbox(nil, nil)
	assert.True(t, empty.Execute(ctx, WebSearch{Query: "q"}).IsError)
	assert.True(t, empty.Execute(ctx, Read{Path: "a"}).IsError)
}
