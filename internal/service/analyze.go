package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/metrics"
	"github.com/xiaot623/legalflow/internal/references"
	"github.com/xiaot623/legalflow/internal/trace"
	"github.com/xiaot623/legalflow/internal/workflow"
)

const (
	caseNamePrefix = "Legal Case Analysis - "
	fallbackAnswer = "Analysis completed successfully."
)

// SubmitCase runs one case to completion and returns the assembled analysis.
// An invalid case fails with *domain.ValidationError before any work starts.
func (s *Service) SubmitCase(ctx context.Context, input domain.CaseInput) (*domain.Analysis, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.execute(ctx, newRunID(), input.Normalized(), "blocking", nil)
}

// execute runs the engine and assembles the analysis. sink, when set, receives
// trace events while the run progresses.
func (s *Service) execute(ctx context.Context, runID string, input domain.CaseInput, mode string, sink func(domain.TraceEvent)) (*domain.Analysis, error) {
	rec := metrics.StartRun(mode)
	started := s.now()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("mode", mode))
	logger.Info("analysis started", zap.String("user_id", input.UserID))

	s.startRun(ctx, runID, input)

	opts := []workflow.RunOption{
		workflow.WithRunID(runID),
		workflow.WithHooks(s.hooks(ctx, runID)),
	}
	if sink != nil {
		opts = append(opts, workflow.WithTraceSink(sink))
	}

	res, err := s.engine.Run(ctx, input, opts...)
	if err != nil {
		status := runStatus(err)
		rec.Finish(strings.ToLower(string(status)))
		logger.Warn("analysis did not complete", zap.String("status", string(status)), zap.Error(err))
		s.finishRun(ctx, runID, nil, err)
		return nil, err
	}

	analysis := s.assemble(ctx, res, started)
	rec.Finish("done")
	s.recordTrace(ctx, runID, res.Trace)
	s.finishRun(ctx, runID, analysis, nil)
	logger.Info("analysis completed",
		zap.Int("steps", analysis.TotalSteps),
		zap.Int("references", len(analysis.References)),
		zap.Float64("processing_time", analysis.ProcessingTime),
	)
	return analysis, nil
}

func (s *Service) assemble(ctx context.Context, res *domain.WorkflowResult, started time.Time) *domain.Analysis {
	var steps []domain.Step
	if s.traceEnabled {
		steps = trace.Project(res.Trace, trace.WithClock(s.now))
	} else {
		steps = trace.DefaultSteps(s.now())
	}
	metrics.TraceSteps.Observe(float64(len(steps)))

	refs := references.Extract(res.Final.Invocation, res.History)
	if refs == nil {
		refs = []string{}
	}

	links := []domain.LinkSummary{}
	if s.links != nil && len(refs) > 0 {
		links = s.links.SummarizeAll(ctx, refs)
	}

	answer := res.Final.Invocation.Answer
	if strings.TrimSpace(answer) == "" {
		answer = fallbackAnswer
	}

	now := s.now()
	return &domain.Analysis{
		RunID:          res.RunID,
		CaseName:       caseNamePrefix + now.Format("2006-01-02 15:04"),
		AnalysisDate:   now,
		ThinkingSteps:  steps,
		FinalAnswer:    answer,
		References:     refs,
		LinkSummaries:  links,
		TotalSteps:     len(steps),
		ProcessingTime: now.Sub(started).Seconds(),
	}
}
