package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/legalflow/internal/adapter/search"
	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/policy"
)

func okResult(q string) []domain.SearchResult {
	return []domain.SearchResult{{Title: q, URL: "https://example.org/" + q}}
}

func TestRunIsolatesFailures(t *testing.T) {
	provider := search.ProviderFunc(func(ctx context.Context, q string) ([]domain.SearchResult, error) {
		switch q {
		case "fails":
			return nil, errors.New("upstream 500")
		case "panics":
			panic("boom")
		}
		return okResult(q), nil
	})
	exec := NewExecutor(provider, nil, time.Second, nil)

	res := exec.Run(context.Background(), "call_1", []string{"first", "fails", "panics"})

	assert.Equal(t, "call_1", res.CallID)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "first", res.Outcomes[0].Query)
	assert.NoError(t, res.Outcomes[0].Err)
	assert.Len(t, res.Outcomes[0].Results, 1)

	var terr *domain.ToolInvocationError
	require.True(t, errors.As(res.Outcomes[1].Err, &terr))
	assert.Equal(t, "Search failed: upstream 500", terr.Error())
	require.True(t, errors.As(res.Outcomes[2].Err, &terr))
	assert.Contains(t, terr.Error(), "provider panic")

	var content map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(res.Message().Content), &content))
	assert.Len(t, content, 3)
}

func TestRunPerQueryTimeout(t *testing.T) {
	provider := search.ProviderFunc(func(ctx context.Context, q string) ([]domain.SearchResult, error) {
		if q == "slow" {
			// Ignores ctx on purpose.
			time.Sleep(500 * time.Millisecond)
		}
		return okResult(q), nil
	})
	exec := NewExecutor(provider, nil, 50*time.Millisecond, nil)

	start := time.Now()
	res := exec.Run(context.Background(), "call_2", []string{"fast", "slow"})
	assert.Less(t, time.Since(start), 400*time.Millisecond)

	assert.NoError(t, res.Outcomes[0].Err)
	require.Error(t, res.Outcomes[1].Err)
	assert.Contains(t, res.Outcomes[1].Err.Error(), "timed out")
}

func TestRunBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	provider := search.ProviderFunc(func(ctx context.Context, q string) ([]domain.SearchResult, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return okResult(q), nil
	})
	exec := NewExecutor(provider, nil, time.Second, nil)

	res := exec.Run(context.Background(), "call_3", []string{"a", "b", "c", "d", "e"})
	assert.Len(t, res.Outcomes, 5)
	assert.LessOrEqual(t, peak.Load(), int32(MaxConcurrentQueries))
	assert.Equal(t, 0, res.Failed())
}

func TestRunEmptyBatch(t *testing.T) {
	exec := NewExecutor(search.NewMock(1), nil, time.Second, nil)
	res := exec.Run(context.Background(), "call_4", nil)
	assert.Empty(t, res.Outcomes)
	assert.Equal(t, "{}", res.Content())
}

func TestRunPolicyBlocksQuery(t *testing.T) {
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy, policy.Limits{DeniedTerms: []string{"password"}})
	require.NoError(t, err)

	var calls atomic.Int32
	provider := search.ProviderFunc(func(ctx context.Context, q string) ([]domain.SearchResult, error) {
		calls.Add(1)
		return okResult(q), nil
	})
	exec := NewExecutor(provider, engine, time.Second, nil)

	res := exec.Run(context.Background(), "call_5", []string{"tenant rights", "admin password dump"})
	assert.NoError(t, res.Outcomes[0].Err)
	require.Error(t, res.Outcomes[1].Err)
	assert.Contains(t, res.Outcomes[1].Err.Error(), "blocked by policy")
	assert.Equal(t, int32(1), calls.Load())
}
