package service

import (
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/trace"
)

// ProjectTrace normalizes externally produced events and projects them into
// steps. Events that cannot be decoded are skipped and reported.
func (s *Service) ProjectTrace(raw []any) ([]domain.Step, []error) {
	events, errs := trace.NormalizeAll(raw)
	if len(errs) > 0 {
		s.logger.Debug("skipped undecodable trace events", zap.Int("count", len(errs)))
	}
	return trace.Project(events, trace.WithClock(s.now)), errs
}
