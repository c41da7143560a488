package domain

import "fmt"

// ValidationError is returned when a case is rejected before any work starts.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ModelInvocationError is returned when the language model fails or answers
// without the required structured tool call.
type ModelInvocationError struct {
	Tool    ToolName
	Attempt int
	Err     error
}

func (e *ModelInvocationError) Error() string {
	if e.Attempt > 0 {
		return fmt.Sprintf("model invocation %s failed (attempt %d): %v", e.Tool, e.Attempt, e.Err)
	}
	return fmt.Sprintf("model invocation %s failed: %v", e.Tool, e.Err)
}

func (e *ModelInvocationError) Unwrap() error {
	return e.Err
}

// ToolInvocationError describes a single failed search query. It is recorded
// inline in the tool result and never aborts a run.
type ToolInvocationError struct {
	Query string
	Err   error
}

func (e *ToolInvocationError) Error() string {
	return "Search failed: " + e.Err.Error()
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}

// TraceDecodeError is returned for a trace event that cannot be normalized.
type TraceDecodeError struct {
	Reason string
	Err    error
}

func (e *TraceDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode trace event: %s: %v", e.Reason, e.Err)
	}
	return "decode trace event: " + e.Reason
}

func (e *TraceDecodeError) Unwrap() error {
	return e.Err
}

// WorkflowError is the terminal failure of a run.
type WorkflowError struct {
	RunID string
	State RunState
	Err   error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow %s failed in %s: %v", e.RunID, e.State, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}
