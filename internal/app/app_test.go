package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/config"
	"github.com/xiaot623/legalflow/internal/domain"
)

func mockConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{URL: ":memory:"},
		LLM:      config.LLMConfig{Provider: "mock", Model: "mock", Stream: true},
		Search:   config.SearchConfig{Provider: "mock", MaxResults: 3},
		Workflow: config.WorkflowConfig{
			MaxIterations:  1,
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			QueryTimeout:   5 * time.Second,
			TraceEnabled:   true,
		},
		Policy: config.PolicyConfig{MaxQueryLength: 400},
	}
}

func TestNewWiresMockStack(t *testing.T) {
	a, err := New(context.Background(), mockConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	analysis, err := a.Service.SubmitCase(context.Background(), domain.CaseInput{
		Description: "A supplier delivered defective goods and refuses to refund the purchase price.",
	})
	require.NoError(t, err)
	assert.Contains(t, analysis.FinalAnswer, "[MOCK]")
	assert.Empty(t, analysis.LinkSummaries)

	run, err := a.Service.GetRun(context.Background(), analysis.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusDone, run.Status)
	assert.Equal(t, "anonymous", run.UserID)
}

func TestNewRejectsUnknownProviders(t *testing.T) {
	cfg := mockConfig()
	cfg.LLM.Provider = "carrier-pigeon"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = mockConfig()
	cfg.Search.Provider = "carrier-pigeon"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
