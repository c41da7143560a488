// Package search provides web search backends for the research step.
package search

import (
	"context"

	"github.com/xiaot623/legalflow/internal/domain"
)

// Provider runs a single web search.
type Provider interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query string) ([]domain.SearchResult, error)

// Search calls f.
func (f ProviderFunc) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	return f(ctx, query)
}
