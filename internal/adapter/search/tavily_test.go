package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if req.Query != "adverse possession" || req.SearchDepth != "advanced" || req.TimeRange != "week" || req.MaxResults != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"title":"A","url":"https://a","content":"x","score":0.9},{"title":"B","url":"https://b","content":"y"},{"title":"C","url":"https://c","content":"z"}]}`)
	}))
	defer server.Close()

	tv := NewTavily(TavilyOptions{APIKey: "k", BaseURL: server.URL, MaxResults: 2, Depth: "advanced", Topic: "general", TimeRange: "week"})
	results, err := tv.Search(context.Background(), "adverse possession")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://a", results[0].URL)
	assert.Equal(t, 0.9, results[0].Score)
}

func TestTavilyRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results":[{"title":"A","url":"https://a"}]}`)
	}))
	defer server.Close()

	tv := NewTavily(TavilyOptions{APIKey: "k", BaseURL: server.URL})
	tv.backoff = time.Millisecond

	results, err := tv.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTavilyErrors(t *testing.T) {
	_, err := NewTavily(TavilyOptions{}).Search(context.Background(), "q")
	assert.ErrorContains(t, err, "API key is missing")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"bad key"}`)
	}))
	defer server.Close()

	_, err = NewTavily(TavilyOptions{APIKey: "k", BaseURL: server.URL}).Search(context.Background(), "q")
	assert.ErrorContains(t, err, "tavily http 401")
}
