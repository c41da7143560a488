package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/workflow"
)

func (s *Service) recordEvent(ctx context.Context, runID string, eventType domain.EventType, payload any) error {
	if s.store == nil {
		return nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   runID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: payloadBytes,
	}

	return s.store.CreateEvent(ctx, event)
}

// record persists an event and only logs on failure.
func (s *Service) record(ctx context.Context, runID string, eventType domain.EventType, payload any) {
	if err := s.recordEvent(context.WithoutCancel(ctx), runID, eventType, payload); err != nil {
		s.logger.Warn("failed to record event",
			zap.String("run_id", runID),
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}

func (s *Service) startRun(ctx context.Context, runID string, input domain.CaseInput) {
	if s.store == nil {
		return
	}
	run := &domain.Run{
		RunID:           runID,
		UserID:          input.UserID,
		CaseDescription: input.Description,
		Status:          domain.RunStatusRunning,
		StartedAt:       s.now(),
	}
	if err := s.store.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error("failed to create run", zap.String("run_id", runID), zap.Error(err))
		return
	}
	s.record(ctx, runID, domain.EventTypeRunStarted, map[string]any{
		"user_id":     input.UserID,
		"case_length": len(input.Description),
	})
}

func (s *Service) finishRun(ctx context.Context, runID string, analysis *domain.Analysis, runErr error) {
	if s.store == nil {
		return
	}
	status := runStatus(runErr)

	var result, errData []byte
	var eventType domain.EventType
	var payload any
	switch status {
	case domain.RunStatusDone:
		eventType = domain.EventTypeRunDone
		result, _ = json.Marshal(analysis)
		payload = map[string]any{
			"total_steps":     analysis.TotalSteps,
			"references":      len(analysis.References),
			"processing_time": analysis.ProcessingTime,
		}
	case domain.RunStatusCancelled:
		eventType = domain.EventTypeRunCancelled
		errData, _ = json.Marshal(map[string]string{"message": runErr.Error()})
		payload = map[string]string{"reason": runErr.Error()}
	default:
		eventType = domain.EventTypeRunFailed
		errBody := map[string]string{"message": runErr.Error()}
		var we *domain.WorkflowError
		if errors.As(runErr, &we) {
			errBody["state"] = string(we.State)
		}
		errData, _ = json.Marshal(errBody)
		payload = errBody
	}

	s.record(ctx, runID, eventType, payload)
	if err := s.store.UpdateRunCompleted(context.WithoutCancel(ctx), runID, status, result, errData); err != nil {
		s.logger.Error("failed to complete run", zap.String("run_id", runID), zap.Error(err))
	}
}

func runStatus(err error) domain.RunStatus {
	switch {
	case err == nil:
		return domain.RunStatusDone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.RunStatusCancelled
	default:
		return domain.RunStatusFailed
	}
}

// hooks persist the lifecycle of one run.
func (s *Service) hooks(ctx context.Context, runID string) workflow.Hooks {
	return workflow.Hooks{
		OnState: func(from, to domain.RunState) {
			s.record(ctx, runID, domain.EventTypeStateChanged, map[string]string{"from": string(from), "to": string(to)})
		},
		OnLLMStarted: func(tool domain.ToolName, attempt int) {
			s.record(ctx, runID, domain.EventTypeLLMCallStarted, map[string]any{"tool": tool, "attempt": attempt})
		},
		OnLLMDone: func(tool domain.ToolName, attempt int, err error) {
			payload := map[string]any{"tool": tool, "attempt": attempt}
			if err != nil {
				payload["error"] = err.Error()
			}
			s.record(ctx, runID, domain.EventTypeLLMCallDone, payload)
		},
		OnToolResult: func(result domain.ToolResult) {
			failed := 0
			for _, o := range result.Outcomes {
				if o.Err != nil {
					failed++
				}
			}
			s.record(ctx, runID, domain.EventTypeToolResult, map[string]any{
				"call_id": result.CallID,
				"queries": len(result.Outcomes),
				"failed":  failed,
				"content": json.RawMessage(result.Content()),
			})
		},
	}
}

// recordTrace persists the node output of a finished run.
func (s *Service) recordTrace(ctx context.Context, runID string, events []domain.TraceEvent) {
	for _, ev := range events {
		if ev.Op != domain.TraceOpAdd {
			continue
		}
		s.record(ctx, runID, domain.EventTypeTrace, ev)
	}
}
