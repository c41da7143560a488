package domain

import (
	"encoding/json"
	"time"
)

// Run is the persisted record of one case analysis.
type Run struct {
	RunID           string          `json:"run_id"`
	UserID          string          `json:"user_id"`
	CaseDescription string          `json:"case_description"`
	Status          RunStatus       `json:"status"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	Error           json.RawMessage `json:"error,omitempty"`
}

// Event is a persisted run event for replay.
type Event struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WorkflowResult is what a finished run produces before presentation.
type WorkflowResult struct {
	RunID      string
	Final      Draft
	History    []Message
	Trace      []TraceEvent
	Steps      []Step
	References []string
	Elapsed    time.Duration
}

// LinkSummary is a short preview of a referenced page.
type LinkSummary struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
}

// Analysis is the response returned to API callers.
type Analysis struct {
	RunID          string        `json:"run_id"`
	CaseName       string        `json:"case_name"`
	AnalysisDate   time.Time     `json:"analysis_date"`
	ThinkingSteps  []Step        `json:"thinking_steps"`
	FinalAnswer    string        `json:"final_answer"`
	References     []string      `json:"references"`
	LinkSummaries  []LinkSummary `json:"link_summaries"`
	TotalSteps     int           `json:"total_steps"`
	ProcessingTime float64       `json:"processing_time"`
}
