// Package app wires configuration into a running service.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/actor"
	"github.com/xiaot623/legalflow/internal/adapter/linkfetch"
	"github.com/xiaot623/legalflow/internal/adapter/llm"
	"github.com/xiaot623/legalflow/internal/adapter/search"
	"github.com/xiaot623/legalflow/internal/config"
	"github.com/xiaot623/legalflow/internal/policy"
	"github.com/xiaot623/legalflow/internal/repository"
	"github.com/xiaot623/legalflow/internal/service"
	"github.com/xiaot623/legalflow/internal/tools"
	"github.com/xiaot623/legalflow/internal/workflow"
)

// App holds the wired components.
type App struct {
	Service *service.Service
	Store   *repository.SQLiteStore
}

// New builds the full stack described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	// Initialize LLM client
	llmClient, err := llm.NewLLMClient(cfg.LLM, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	a, err := actor.New(llmClient, actor.Options{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Stream:      cfg.LLM.Stream,
	}, logger.Named("actor"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize actor: %w", err)
	}

	// Initialize search provider
	provider, err := search.New(cfg.Search)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize search provider: %w", err)
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy, policy.Limits{
		MaxQueryLength: cfg.Policy.MaxQueryLength,
		DeniedTerms:    cfg.Policy.DeniedTerms,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	executor := tools.NewExecutor(provider, policyEngine, cfg.Workflow.QueryTimeout, logger.Named("tools"))
	engine := workflow.NewEngine(a, executor, workflow.Config{
		MaxIterations:  cfg.Workflow.MaxIterations,
		MaxAttempts:    cfg.Workflow.MaxAttempts,
		InitialBackoff: cfg.Workflow.InitialBackoff,
		MaxBackoff:     cfg.Workflow.MaxBackoff,
	}, logger.Named("workflow"))

	var links service.LinkSummarizer
	if cfg.Links.Enabled {
		links = linkfetch.New(linkfetch.Options{
			MaxLinks:     cfg.Links.MaxLinks,
			PreviewChars: cfg.Links.PreviewChars,
			Timeout:      cfg.Links.Timeout,
		}, logger.Named("links"))
	}

	svc := service.New(db, engine, links, service.Options{TraceEnabled: cfg.Workflow.TraceEnabled}, logger.Named("service"))

	logger.Info("legalflow initialized",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("search_provider", cfg.Search.Provider),
		zap.Int("max_iterations", cfg.Workflow.MaxIterations),
	)
	return &App{Service: svc, Store: db}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
