package domain

import (
	"encoding/json"
	"time"
)

// TraceValue is the payload of a trace event. Text carries human readable
// content, Data carries structured content, and Err marks a failure.
type TraceValue struct {
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  string          `json:"error,omitempty"`
}

// TraceEvent is the canonical low-level execution event.
type TraceEvent struct {
	Op    TraceOp    `json:"op"`
	Path  string     `json:"path"`
	Node  NodeID     `json:"node,omitempty"`
	Value TraceValue `json:"value"`
}

// Step is a user-facing unit of the thinking trace.
type Step struct {
	Number      int       `json:"step_number"`
	Node        NodeID    `json:"node"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}

// UIEvent is one event of a streaming analysis. Which fields are set depends
// on Type.
type UIEvent struct {
	Type        UIEventType `json:"type"`
	Message     string      `json:"message,omitempty"`
	StepNumber  int         `json:"step_number,omitempty"`
	Node        NodeID      `json:"node,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Text        string      `json:"text,omitempty"`
	Details     string      `json:"details,omitempty"`
	Result      *Analysis   `json:"result,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}
