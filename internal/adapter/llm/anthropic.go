package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const defaultAnthropicMaxTokens = 4096

// MessagesClient is the subset of the Anthropic SDK used here. It is
// satisfied by *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
	NewStreaming(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[sdk.MessageStreamEventUnion]
}

// AnthropicClient serves chat completion requests through the Anthropic
// Messages API.
type AnthropicClient struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
}

// NewAnthropicClient wraps an existing messages client.
func NewAnthropicClient(msg MessagesClient, defaultModel string, maxTokens int) *AnthropicClient {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicClient{msg: msg, defaultModel: defaultModel, maxTokens: maxTokens}
}

// NewAnthropicFromAPIKey builds a client on the default SDK transport.
func NewAnthropicFromAPIKey(apiKey, baseURL, model string, maxTokens int, timeout time.Duration) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	ac := sdk.NewClient(opts...)
	return NewAnthropicClient(&ac.Messages, model, maxTokens)
}

// CreateChatCompletion sends one blocking Messages request.
func (c *AnthropicClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	params, err := c.params(req)
	if err != nil {
		return nil, err
	}
	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages request failed: %w", err)
	}
	return translateMessage(msg)
}

// CreateChatCompletionStream streams a Messages request and re-emits it as
// OpenAI-style chunks, so tool input arrives as argument deltas.
func (c *AnthropicClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	params, err := c.params(req)
	if err != nil {
		return nil, err
	}
	stream := c.msg.NewStreaming(ctx, *params)
	defer stream.Close()

	usage := &Usage{}
	// content block index -> tool call index
	toolIndex := make(map[int64]int)

	emit := func(delta ChatMessage, finish string) error {
		return callback(&StreamChunk{
			Object:  "chat.completion.chunk",
			Model:   string(params.Model),
			Choices: []Choice{{Index: 0, Delta: &delta, FinishReason: finish}},
		})
	}

	for stream.Next() {
		switch ev := stream.Current().AsAny().(type) {
		case sdk.MessageStartEvent:
			usage.PromptTokens = int(ev.Message.Usage.InputTokens)
		case sdk.ContentBlockStartEvent:
			toolUse, ok := ev.ContentBlock.AsAny().(sdk.ToolUseBlock)
			if !ok {
				continue
			}
			idx := len(toolIndex)
			toolIndex[ev.Index] = idx
			call := ToolCall{Index: &idx, ID: toolUse.ID, Type: "function", Function: ToolCallFunction{Name: toolUse.Name}}
			if err := emit(ChatMessage{Role: RoleAssistant, ToolCalls: []ToolCall{call}}, ""); err != nil {
				return usage, err
			}
		case sdk.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case sdk.TextDelta:
				if delta.Text == "" {
					continue
				}
				if err := emit(ChatMessage{Content: delta.Text}, ""); err != nil {
					return usage, err
				}
			case sdk.InputJSONDelta:
				idx, ok := toolIndex[ev.Index]
				if !ok || delta.PartialJSON == "" {
					continue
				}
				call := ToolCall{Index: &idx, Function: ToolCallFunction{Arguments: delta.PartialJSON}}
				if err := emit(ChatMessage{ToolCalls: []ToolCall{call}}, ""); err != nil {
					return usage, err
				}
			}
		case sdk.MessageDeltaEvent:
			usage.CompletionTokens = int(ev.Usage.OutputTokens)
			if ev.Delta.StopReason != "" {
				if err := emit(ChatMessage{}, finishReason(string(ev.Delta.StopReason))); err != nil {
					return usage, err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return usage, fmt.Errorf("anthropic: stream failed: %w", err)
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage, nil
}

func (c *AnthropicClient) params(req *ChatCompletionRequest) (*sdk.MessageNewParams, error) {
	messages, system, err := encodeAnthropicMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := c.maxTokens
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = *req.MaxTokens
	}

	params := &sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  messages,
		Model:     sdk.Model(model),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	for _, t := range req.Tools {
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: t.Function.Parameters}, t.Function.Name)
		if t.Function.Description != "" {
			u.OfTool.Description = sdk.String(t.Function.Description)
		}
		params.Tools = append(params.Tools, u)
	}
	if req.ToolChoice != nil && req.ToolChoice.Function.Name != "" {
		params.ToolChoice = sdk.ToolChoiceParamOfTool(req.ToolChoice.Function.Name)
	}
	return params, nil
}

type anthropicTurn struct {
	role   string
	blocks []sdk.ContentBlockParamUnion
}

// encodeAnthropicMessages maps chat messages onto Messages API turns. Tool
// results travel as user turns and consecutive turns of one role are merged.
func encodeAnthropicMessages(msgs []ChatMessage) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	var system []sdk.TextBlockParam
	var turns []anthropicTurn

	push := func(role string, block sdk.ContentBlockParamUnion) {
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].blocks = append(turns[n-1].blocks, block)
			return
		}
		turns = append(turns, anthropicTurn{role: role, blocks: []sdk.ContentBlockParamUnion{block}})
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case RoleUser:
			if m.Content != "" {
				push(RoleUser, sdk.NewTextBlock(m.Content))
			}
		case RoleAssistant:
			if m.Content != "" {
				push(RoleAssistant, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input map[string]any
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
					return nil, nil, fmt.Errorf("anthropic: tool call %s has invalid arguments: %w", tc.ID, err)
				}
				push(RoleAssistant, sdk.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
		case RoleTool:
			push(RoleUser, sdk.NewToolResultBlock(m.ToolCallID, m.Content, false))
		default:
			return nil, nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(turns) == 0 {
		return nil, nil, errors.New("anthropic: at least one user/assistant message is required")
	}

	out := make([]sdk.MessageParam, 0, len(turns))
	for _, t := range turns {
		if t.role == RoleAssistant {
			out = append(out, sdk.NewAssistantMessage(t.blocks...))
		} else {
			out = append(out, sdk.NewUserMessage(t.blocks...))
		}
	}
	return out, system, nil
}

func translateMessage(msg *sdk.Message) (*ChatCompletionResponse, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	out := &ChatMessage{Role: RoleAssistant}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}
	in, outTokens := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &ChatCompletionResponse{
		ID:     msg.ID,
		Object: "chat.completion",
		Model:  string(msg.Model),
		Choices: []Choice{{
			Index:        0,
			Message:      out,
			FinishReason: finishReason(string(msg.StopReason)),
		}},
		Usage: &Usage{PromptTokens: in, CompletionTokens: outTokens, TotalTokens: in + outTokens},
	}, nil
}

func finishReason(stop string) string {
	switch stop {
	case "tool_use":
		return "tool_calls"
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	default:
		return stop
	}
}
