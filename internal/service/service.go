// Package service assembles workflow runs into analyses and owns their
// persistence.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/repository"
	"github.com/xiaot623/legalflow/internal/workflow"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Engine runs the reflexion loop.
type Engine interface {
	Run(ctx context.Context, input domain.CaseInput, opts ...workflow.RunOption) (*domain.WorkflowResult, error)
}

// LinkSummarizer previews referenced pages.
type LinkSummarizer interface {
	SummarizeAll(ctx context.Context, urls []string) []domain.LinkSummary
}

// Options tunes a Service.
type Options struct {
	// TraceEnabled projects thinking steps from the run trace. When false the
	// default steps are reported.
	TraceEnabled bool
	Now          func() time.Time
}

type Service struct {
	store        repository.Store
	engine       Engine
	links        LinkSummarizer
	traceEnabled bool
	now          func() time.Time
	logger       *zap.Logger
}

// New creates a service. store and links may be nil.
func New(store repository.Store, engine Engine, links LinkSummarizer, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:        store,
		engine:       engine,
		links:        links,
		traceEnabled: opts.TraceEnabled,
		now:          now,
		logger:       logger,
	}
}

func newRunID() string {
	return "run_" + uuid.New().String()[:8]
}
