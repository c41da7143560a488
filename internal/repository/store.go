// Package repository persists runs and their events.
package repository

import (
	"context"

	"github.com/xiaot623/legalflow/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	ListRuns(ctx context.Context, userID string, limit int) ([]domain.Run, error)
	UpdateRunCompleted(ctx context.Context, runID string, status domain.RunStatus, result, errData []byte) error

	// Event operations
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
