package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiaot623/legalflow/internal/domain"
)

var errNoStore = errors.New("run persistence is disabled")

// GetRun returns a persisted run.
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ListRuns returns persisted runs newest first.
func (s *Service) ListRuns(ctx context.Context, userID string, limit int) ([]domain.Run, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	runs, err := s.store.ListRuns(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (s *Service) GetRunEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	events, err := s.store.GetEvents(ctx, runID, afterTs, types, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get run events: %w", err)
	}
	return events, nil
}
