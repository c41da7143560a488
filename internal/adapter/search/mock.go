package search

import (
	"context"
	"fmt"
	"net/url"

	"github.com/xiaot623/legalflow/internal/domain"
)

// Mock returns canned results derived from the query.
type Mock struct {
	maxResults int
}

// NewMock creates a mock provider returning up to maxResults hits.
func NewMock(maxResults int) *Mock {
	if maxResults <= 0 || maxResults > 3 {
		maxResults = 3
	}
	return &Mock{maxResults: maxResults}
}

// Search returns deterministic results for query.
func (m *Mock) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := url.QueryEscape(query)
	sources := []domain.SearchResult{
		{Title: "Legal Information Institute", URL: "https://www.law.cornell.edu/search/site/" + q},
		{Title: "Justia", URL: "https://law.justia.com/search?q=" + q},
		{Title: "CourtListener", URL: "https://www.courtlistener.com/?q=" + q},
	}
	results := sources[:m.maxResults]
	for i := range results {
		results[i].Content = fmt.Sprintf("[MOCK] Summary of authorities relevant to %q.", query)
		results[i].Score = 1 - float64(i)*0.1
	}
	return results, nil
}
