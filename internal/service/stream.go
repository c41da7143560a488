package service

import (
	"context"

	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/trace"
)

const (
	startMessage    = "Legal analysis initiated..."
	completeMessage = "Legal analysis completed successfully!"
)

type outcome struct {
	analysis *domain.Analysis
	err      error
}

// StreamCase starts a run and returns its UI events. The channel ends with
// exactly one complete or error event and is then closed. Cancelling ctx stops
// the run and closes the channel without a terminal event.
func (s *Service) StreamCase(ctx context.Context, input domain.CaseInput) (<-chan domain.UIEvent, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.Normalized()
	runID := newRunID()

	traces := make(chan domain.TraceEvent, 64)
	done := make(chan outcome, 1)
	out := make(chan domain.UIEvent)

	go func() {
		defer close(traces)
		sink := func(ev domain.TraceEvent) {
			select {
			case traces <- ev:
			case <-ctx.Done():
			}
		}
		analysis, err := s.execute(ctx, runID, input, "stream", sink)
		done <- outcome{analysis: analysis, err: err}
	}()

	go s.forward(ctx, traces, done, out)

	return out, nil
}

// forward projects trace events into UI events.
func (s *Service) forward(ctx context.Context, traces <-chan domain.TraceEvent, done <-chan outcome, out chan<- domain.UIEvent) {
	defer close(out)

	send := func(ev domain.UIEvent) bool {
		if ctx.Err() != nil {
			return false
		}
		ev.Timestamp = s.now()
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(domain.UIEvent{Type: domain.UIEventStart, Message: startMessage}) {
		return
	}

	p := trace.NewProjector(trace.WithClock(s.now), trace.WithDetailLimit(trace.MaxStreamDetailChars))
	for {
		var (
			ev domain.TraceEvent
			ok bool
		)
		select {
		case ev, ok = <-traces:
		case <-ctx.Done():
			return
		}
		if !ok {
			break
		}
		u, relevant := p.Push(ev)
		if !relevant {
			continue
		}
		if u.Completed != nil && !send(stepComplete(u.Completed)) {
			return
		}
		if u.Started != nil && !send(domain.UIEvent{
			Type:        domain.UIEventStepStart,
			StepNumber:  u.Started.Number,
			Node:        u.Started.Node,
			Title:       u.Started.Title,
			Description: u.Started.Description,
		}) {
			return
		}
		if u.Text != "" && !send(domain.UIEvent{
			Type:       domain.UIEventThinkingUpdate,
			StepNumber: p.Current(),
			Text:       trace.Truncate(u.Text, trace.MaxUpdateChars),
		}) {
			return
		}
	}

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		return
	}
	if res.err != nil {
		send(domain.UIEvent{Type: domain.UIEventError, Message: res.err.Error()})
		return
	}

	if last := p.Finish(); last != nil && !send(stepComplete(last)) {
		return
	}
	send(domain.UIEvent{Type: domain.UIEventComplete, Message: completeMessage, Result: res.analysis})
}

func stepComplete(step *domain.Step) domain.UIEvent {
	return domain.UIEvent{
		Type:        domain.UIEventStepComplete,
		StepNumber:  step.Number,
		Node:        step.Node,
		Title:       step.Title,
		Description: step.Description,
		Details:     step.Details,
	}
}
