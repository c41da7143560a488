package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MockClient answers forced tool calls with deterministic legal drafts so the
// whole workflow can run offline.
type MockClient struct {
	now func() time.Time
}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{now: time.Now}
}

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg := m.generateMockMessage(req)
	finish := "stop"
	if len(msg.ToolCalls) > 0 {
		finish = "tool_calls"
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", m.now().UnixNano()),
		Object:  "chat.completion",
		Created: m.now().Unix(),
		Model:   req.Model,
		Choices: []Choice{{Index: 0, Message: msg, FinishReason: finish}},
		Usage:   m.usage(req, msg),
	}, nil
}

// CreateChatCompletionStream simulates a streaming response. Tool arguments
// are delivered in small fragments the way real providers do.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	msg := m.generateMockMessage(req)
	id := fmt.Sprintf("mock-chatcmpl-%d", m.now().UnixNano())

	var deltas []ChatMessage
	for _, chunk := range splitIntoChunks(msg.Content, 16) {
		deltas = append(deltas, ChatMessage{Role: RoleAssistant, Content: chunk})
	}
	for i, tc := range msg.ToolCalls {
		idx := i
		for j, frag := range splitIntoChunks(tc.Function.Arguments, 24) {
			call := ToolCall{Index: &idx, Function: ToolCallFunction{Arguments: frag}}
			if j == 0 {
				call.ID = tc.ID
				call.Type = "function"
				call.Function.Name = tc.Function.Name
			}
			deltas = append(deltas, ChatMessage{Role: RoleAssistant, ToolCalls: []ToolCall{call}})
		}
	}

	for i := range deltas {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		finish := ""
		if i == len(deltas)-1 {
			finish = "stop"
			if len(msg.ToolCalls) > 0 {
				finish = "tool_calls"
			}
		}
		chunk := &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: m.now().Unix(),
			Model:   req.Model,
			Choices: []Choice{{Index: 0, Delta: &deltas[i], FinishReason: finish}},
		}
		if err := callback(chunk); err != nil {
			return nil, err
		}
	}

	return m.usage(req, msg), nil
}

// generateMockMessage builds the assistant reply for req.
func (m *MockClient) generateMockMessage(req *ChatCompletionRequest) *ChatMessage {
	caseText := lastContent(req.Messages, RoleUser)

	if req.ToolChoice == nil || req.ToolChoice.Function.Name == "" {
		if caseText == "" {
			return &ChatMessage{Role: RoleAssistant, Content: "[MOCK] This is a mock response from the LLM client."}
		}
		return &ChatMessage{Role: RoleAssistant, Content: fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(caseText, 100))}
	}

	name := req.ToolChoice.Function.Name
	subject := strings.Join(firstWords(caseText, 8), " ")
	args := map[string]any{
		"critique": "The analysis should cite controlling authority and address the limitation period and available remedies in more detail.",
	}
	switch name {
	case "ReviseAnswer":
		args["answer"] = fmt.Sprintf("[MOCK] Revised legal opinion on %q. The claimant likely has a viable claim under the applicable statute [1], subject to the limitation period discussed in [2].\n\nReferences:\n[1] https://www.law.cornell.edu/wex/breach_of_contract\n[2] https://www.law.cornell.edu/wex/statute_of_limitations", subject)
		args["references"] = []string{
			"https://www.law.cornell.edu/wex/breach_of_contract",
			"https://www.law.cornell.edu/wex/statute_of_limitations",
		}
		args["search_queries"] = []string{}
	default:
		args["answer"] = fmt.Sprintf("[MOCK] Preliminary legal analysis of %q. The key issues are liability, damages and procedural deadlines.", subject)
		args["search_queries"] = []string{
			subject + " case law",
			subject + " statute of limitations",
		}
	}
	raw, _ := json.Marshal(args)

	return &ChatMessage{
		Role: RoleAssistant,
		ToolCalls: []ToolCall{{
			ID:       fmt.Sprintf("call_mock_%d", m.now().UnixNano()),
			Type:     "function",
			Function: ToolCallFunction{Name: name, Arguments: string(raw)},
		}},
	}
}

func (m *MockClient) usage(req *ChatCompletionRequest, msg *ChatMessage) *Usage {
	prompt := 0
	for _, pm := range req.Messages {
		prompt += len(pm.Content) / 4
	}
	completion := len(msg.Content) / 4
	for _, tc := range msg.ToolCalls {
		completion += len(tc.Function.Arguments) / 4
	}
	return &Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
}

func lastContent(msgs []ChatMessage, role string) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role && msgs[i].Content != "" {
			return msgs[i].Content
		}
	}
	return ""
}

func firstWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// splitIntoChunks splits a string into chunks of approximately the given size.
func splitIntoChunks(s string, chunkSize int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var chunks []string
	for i := 0; i < len(runes); i += chunkSize {
		end := min(i+chunkSize, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
