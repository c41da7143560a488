package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xiaot623/legalflow/internal/domain"
)

const (
	defaultTavilyURL  = "https://api.tavily.com"
	maxTavilyBackoff  = 30 * time.Second
	defaultMaxResults = 5
)

var errRateLimited = errors.New("tavily: rate limited")

// TavilyOptions configures the Tavily provider.
type TavilyOptions struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	// Depth is Tavily's search_depth, basic or advanced.
	Depth     string
	Topic     string
	TimeRange string
	Client    *http.Client
}

// Tavily calls the Tavily search API.
type Tavily struct {
	opts    TavilyOptions
	backoff time.Duration
}

// NewTavily constructs a Tavily search provider.
func NewTavily(opts TavilyOptions) *Tavily {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultTavilyURL
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.Depth == "" {
		opts.Depth = "basic"
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Tavily{opts: opts, backoff: time.Second}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	Topic       string `json:"topic,omitempty"`
	TimeRange   string `json:"time_range,omitempty"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search posts a query to Tavily. A 429 is retried with exponential backoff
// until ctx is done.
func (t *Tavily) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(t.opts.APIKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}

	payload, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.opts.APIKey,
		SearchDepth: t.opts.Depth,
		Topic:       t.opts.Topic,
		TimeRange:   t.opts.TimeRange,
		MaxResults:  t.opts.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.backoff
	b.MaxInterval = maxTavilyBackoff
	b.MaxElapsedTime = 0
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.BaseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.opts.Client.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("tavily: %w", err))
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return errRateLimited
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, domain.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
		if len(results) >= t.opts.MaxResults {
			break
		}
	}
	return results, nil
}
