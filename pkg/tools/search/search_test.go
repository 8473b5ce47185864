package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavily_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "capital of france", body["query"])
		assert.Equal(t, true, body["include_answer"])
		_, _ = w.Write([]byte(`{"answer":"Paris","results":[{"title":"France","url":"https://example.com","content":"Paris is the capital","score":0.9}]}`))
	}))
	defer srv.Close()

	tv := NewTavily("key", "", 0, srv.Client())
	tv.BaseURL = srv.URL

	res, err := tv.Search(context.Background(), "capital of france")
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.Answer)
	require.Len(t, res.Results, 1)
	assert.Equal(t, 0.9, res.Results[0].Score)
}

func TestTavily_RetriesOnTooManyRequests(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	tv := NewTavily("key", "basic", 3, srv.Client())
	tv.BaseURL = srv.URL

	res, err := tv.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestTavily_GivesUpWhenAlwaysRateLimited(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tv := NewTavily("key", "basic", 3, srv.Client())
	tv.BaseURL = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := tv.Search(context.WithoutCancel(ctx), "q")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRateLimited)
	case <-time.After(5 * time.Second):
		t.Fatal("search kept retrying")
	}
	assert.EqualValues(t, maxAttempts, atomic.LoadInt32(&calls))
}

func TestTavily_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tv := NewTavily("key", "", 0, srv.Client())
	tv.BaseURL = srv.URL
	_, err := tv.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = NewTavily("", "", 0, nil).Search(context.Background(), "q")
	assert.Error(t, err)
}

func TestBrave_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "go actors", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"web":{"results":[{"title":"a","url":"u1","description":"d1"},{"title":"b","url":"u2","description":"d2"}]}}`))
	}))
	defer srv.Close()

	b := NewBrave("key", 1, srv.Client())
	b.BaseURL = srv.URL

	res, err := b.Search(context.Background(), "go actors")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "d1", res.Results[0].Content)
	assert.Negative(t, res.Results[0].Score)
}

func TestNew(t *testing.T) {
	s, err := New(TavilyProvider, Options{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Tavily{}, s)

	s, err = New(BraveProvider, Options{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Brave{}, s)

	_, err = New("bing", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
