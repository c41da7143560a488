// Package domain defines the core domain models for legalflow.
package domain

// RunStatus represents the persisted status of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusDone      RunStatus = "DONE"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCancelled RunStatus = "CANCELLED"
)

// RunState is a state of the reflexion workflow.
type RunState string

const (
	StateInit        RunState = "INIT"
	StateGenerating  RunState = "GENERATING"
	StateResearching RunState = "RESEARCHING"
	StateRevising    RunState = "REVISING"
	StateDone        RunState = "DONE"
	StateFailed      RunState = "FAILED"
)

// EventType represents the type of a persisted run event.
type EventType string

const (
	EventTypeRunStarted     EventType = "run_started"
	EventTypeStateChanged   EventType = "state_changed"
	EventTypeLLMCallStarted EventType = "llm_call_started"
	EventTypeLLMCallDone    EventType = "llm_call_done"
	EventTypeToolResult     EventType = "tool_result"
	EventTypeTrace          EventType = "trace"
	EventTypeRunDone        EventType = "run_done"
	EventTypeRunFailed      EventType = "run_failed"
	EventTypeRunCancelled   EventType = "run_cancelled"
)

// Role is the author of a message in the workflow history.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolName names one of the two structured-output tools the actor may call.
type ToolName string

const (
	ToolAnswerQuestion ToolName = "AnswerQuestion"
	ToolReviseAnswer   ToolName = "ReviseAnswer"
)

// NodeID is the stable identifier of a workflow node as seen by the trace
// projector.
type NodeID string

const (
	NodeGenerate       NodeID = "generate"
	NodeCritique       NodeID = "critique"
	NodeWebSearch      NodeID = "websearch"
	NodeReviseAnswer   NodeID = "ReviseAnswer"
	NodeAnswerQuestion NodeID = "AnswerQuestion"
	NodeResearch       NodeID = "research"
	NodeAnalyze        NodeID = "analyze"
)

// TraceOp is the operation of a low-level trace event.
type TraceOp string

const (
	TraceOpAdd     TraceOp = "add"
	TraceOpReplace TraceOp = "replace"
)

// UIEventType is the tag of a streaming UI event.
type UIEventType string

const (
	UIEventStart          UIEventType = "start"
	UIEventStepStart      UIEventType = "step_start"
	UIEventThinkingUpdate UIEventType = "thinking_update"
	UIEventStepComplete   UIEventType = "step_complete"
	UIEventComplete       UIEventType = "complete"
	UIEventError          UIEventType = "error"
)

// Terminal reports whether t ends a UI event stream.
func (t UIEventType) Terminal() bool {
	return t == UIEventComplete || t == UIEventError
}
