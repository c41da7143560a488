package domain

import (
	"bytes"
	"encoding/json"
)

// ToolInvocation is the structured output of one actor turn.
type ToolInvocation struct {
	ID            string   `json:"id"`
	Name          ToolName `json:"name"`
	Answer        string   `json:"answer"`
	Critique      string   `json:"critique"`
	SearchQueries []string `json:"search_queries"`
	References    []string `json:"references,omitempty"`
}

// Message is one entry of the workflow history.
type Message struct {
	Role       Role            `json:"role"`
	Content    string          `json:"content"`
	Invocation *ToolInvocation `json:"invocation,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

// HumanMessage wraps the case description as the opening message.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AssistantMessage wraps an actor turn.
func AssistantMessage(content string, inv ToolInvocation) Message {
	return Message{Role: RoleAssistant, Content: content, Invocation: &inv}
}

// Draft is the latest structured answer together with how many revisions
// produced it. Revision 0 is the initial answer.
type Draft struct {
	Invocation ToolInvocation `json:"invocation"`
	Revision   int            `json:"revision"`
}

// SearchResult is a single hit returned by a search provider.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// QueryOutcome is the result of one search query. Exactly one of Results and
// Err is meaningful.
type QueryOutcome struct {
	Query   string
	Results []SearchResult
	Err     error
}

// ToolResult aggregates the outcomes of one research round.
type ToolResult struct {
	CallID   string
	Outcomes []QueryOutcome
}

// Content renders the outcomes as a JSON object keyed by query. Failed
// queries map to {"error": "..."}.
func (r ToolResult) Content() string {
	payload := make(map[string]any, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Err != nil {
			payload[o.Query] = map[string]string{"error": o.Err.Error()}
			continue
		}
		results := o.Results
		if results == nil {
			results = []SearchResult{}
		}
		payload[o.Query] = results
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "{}"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// Message renders the result as the tool message appended to the history.
func (r ToolResult) Message() Message {
	return Message{Role: RoleTool, Content: r.Content(), ToolCallID: r.CallID}
}

// Failed counts the queries that ended in an error.
func (r ToolResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
