// Package tools runs the research round of the workflow: a batch of search
// queries executed concurrently and folded into a single tool result.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/legalflow/internal/adapter/search"
	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/metrics"
	"github.com/xiaot623/legalflow/internal/policy"
)

// MaxConcurrentQueries bounds the fan-out of one research round.
const MaxConcurrentQueries = 3

// QueryPolicy decides whether a query may be sent to the search provider.
type QueryPolicy interface {
	Evaluate(ctx context.Context, query string) (policy.Decision, error)
}

// Executor runs search queries for the workflow.
type Executor struct {
	provider search.Provider
	policy   QueryPolicy
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExecutor creates an executor. pol may be nil to allow every query.
func NewExecutor(provider search.Provider, pol QueryPolicy, timeout time.Duration, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		provider: provider,
		policy:   pol,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run executes every query and returns one result tagged with callID.
// Individual failures are recorded inline; Run itself never fails. Outcomes
// keep the order of queries.
func (e *Executor) Run(ctx context.Context, callID string, queries []string) domain.ToolResult {
	outcomes := make([]domain.QueryOutcome, len(queries))

	var g errgroup.Group
	g.SetLimit(MaxConcurrentQueries)
	for i, q := range queries {
		g.Go(func() error {
			outcomes[i] = e.runQuery(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	return domain.ToolResult{CallID: callID, Outcomes: outcomes}
}

type searchReply struct {
	results []domain.SearchResult
	err     error
}

func (e *Executor) runQuery(ctx context.Context, query string) domain.QueryOutcome {
	logger := e.logger.With(zap.String("query", query))

	if e.policy != nil {
		decision, err := e.policy.Evaluate(ctx, query)
		if err != nil {
			logger.Warn("policy evaluation failed", zap.Error(err))
			return e.fail(query, "error", fmt.Errorf("policy evaluation: %w", err))
		}
		if !decision.Allowed() {
			logger.Info("query blocked by policy", zap.String("reason", decision.Reason))
			return e.fail(query, "blocked", fmt.Errorf("blocked by policy: %s", decision.Reason))
		}
	}

	qctx := ctx
	cancel := func() {}
	if e.timeout > 0 {
		qctx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	// The provider runs in its own goroutine so a call that ignores its
	// context cannot hold the round past the timeout.
	reply := make(chan searchReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- searchReply{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		results, err := e.provider.Search(qctx, query)
		reply <- searchReply{results: results, err: err}
	}()

	select {
	case r := <-reply:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return e.fail(query, "timeout", fmt.Errorf("timed out after %s", e.timeout))
			}
			logger.Warn("search failed", zap.Error(r.err))
			return e.fail(query, "error", r.err)
		}
		metrics.SearchQueries.WithLabelValues("success").Inc()
		return domain.QueryOutcome{Query: query, Results: r.results}
	case <-qctx.Done():
		if errors.Is(qctx.Err(), context.DeadlineExceeded) {
			logger.Warn("search timed out", zap.Duration("timeout", e.timeout))
			return e.fail(query, "timeout", fmt.Errorf("timed out after %s", e.timeout))
		}
		return e.fail(query, "error", qctx.Err())
	}
}

func (e *Executor) fail(query, outcome string, err error) domain.QueryOutcome {
	metrics.SearchQueries.WithLabelValues(outcome).Inc()
	return domain.QueryOutcome{
		Query: query,
		Err:   &domain.ToolInvocationError{Query: query, Err: err},
	}
}
