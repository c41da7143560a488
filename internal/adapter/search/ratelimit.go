package search

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/xiaot623/legalflow/internal/domain"
)

// RateLimited throttles calls to the wrapped provider with a token bucket
// shared by every run in the process.
type RateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limit of perSecond requests and the given
// burst.
func NewRateLimited(next Provider, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Search waits for a token, then delegates.
func (r *RateLimited) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}
	return r.next.Search(ctx, query)
}
