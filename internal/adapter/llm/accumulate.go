package llm

import (
	"sort"
	"strings"
)

// StreamAccumulator folds streamed deltas back into one assistant message.
type StreamAccumulator struct {
	content strings.Builder
	calls   map[int]*ToolCall
	args    map[int]*strings.Builder
	finish  string
}

// NewStreamAccumulator creates an empty accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{
		calls: make(map[int]*ToolCall),
		args:  make(map[int]*strings.Builder),
	}
}

// Add merges one chunk and returns the plain text content it carried.
func (a *StreamAccumulator) Add(chunk *StreamChunk) string {
	var text strings.Builder
	for _, choice := range chunk.Choices {
		if choice.Index != 0 {
			continue
		}
		if choice.FinishReason != "" {
			a.finish = choice.FinishReason
		}
		if choice.Delta == nil {
			continue
		}
		if choice.Delta.Content != "" {
			a.content.WriteString(choice.Delta.Content)
			text.WriteString(choice.Delta.Content)
		}
		for i, tc := range choice.Delta.ToolCalls {
			idx := i
			if tc.Index != nil {
				idx = *tc.Index
			}
			call, ok := a.calls[idx]
			if !ok {
				call = &ToolCall{Type: "function"}
				a.calls[idx] = call
				a.args[idx] = &strings.Builder{}
			}
			if tc.ID != "" {
				call.ID = tc.ID
			}
			if tc.Function.Name != "" {
				call.Function.Name = tc.Function.Name
			}
			a.args[idx].WriteString(tc.Function.Arguments)
		}
	}
	return text.String()
}

// Message returns the accumulated assistant message.
func (a *StreamAccumulator) Message() *ChatMessage {
	msg := &ChatMessage{Role: RoleAssistant, Content: a.content.String()}
	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		call := *a.calls[idx]
		call.Function.Arguments = a.args[idx].String()
		msg.ToolCalls = append(msg.ToolCalls, call)
	}
	return msg
}

// Response wraps the accumulated message as a completion response.
func (a *StreamAccumulator) Response(model string, usage *Usage) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		Object:  "chat.completion",
		Model:   model,
		Choices: []Choice{{Index: 0, Message: a.Message(), FinishReason: a.finish}},
		Usage:   usage,
	}
}
