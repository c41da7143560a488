// Package actor turns the workflow history into one structured answer by
// forcing the language model to call AnswerQuestion or ReviseAnswer.
package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/adapter/llm"
	"github.com/xiaot623/legalflow/internal/domain"
	"github.com/xiaot623/legalflow/internal/metrics"
)

var (
	// ErrEmptyHistory is returned when Invoke is called without a case.
	ErrEmptyHistory = errors.New("history is empty")
	// ErrNoToolCall is returned when the model answers without calling the
	// required tool.
	ErrNoToolCall = errors.New("model did not call the required tool")
)

// Sink receives trace events produced while the model is streaming.
type Sink func(domain.TraceEvent)

// Options configures an Actor.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Stream      bool
	Now         func() time.Time
}

// Actor produces structured drafts from the language model.
type Actor struct {
	client  llm.LLMClient
	opts    Options
	schemas schemas
	logger  *zap.Logger
}

// New creates an actor. The tool schemas are compiled once here.
func New(client llm.LLMClient, opts Options, logger *zap.Logger) (*Actor, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	compiled, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Actor{client: client, opts: opts, schemas: compiled, logger: logger}, nil
}

// ToolFor picks the tool for the next turn: AnswerQuestion until the history
// holds a draft, ReviseAnswer afterwards.
func ToolFor(history []domain.Message) domain.ToolName {
	for _, m := range history {
		if m.Role == domain.RoleAssistant {
			return domain.ToolReviseAnswer
		}
	}
	return domain.ToolAnswerQuestion
}

// Invoke runs one actor turn over history. Streamed text, if any, is passed to
// sink as it arrives. Every failure is a *domain.ModelInvocationError.
func (a *Actor) Invoke(ctx context.Context, history []domain.Message, sink Sink) (domain.ToolInvocation, error) {
	tool := ToolFor(history)
	if len(history) == 0 {
		return domain.ToolInvocation{}, &domain.ModelInvocationError{Tool: tool, Err: ErrEmptyHistory}
	}

	req, err := a.buildRequest(history, tool)
	if err != nil {
		return domain.ToolInvocation{}, &domain.ModelInvocationError{Tool: tool, Err: err}
	}

	var resp *llm.ChatCompletionResponse
	if sc, ok := a.client.(llm.StreamingClient); ok && a.opts.Stream && sink != nil {
		resp, err = a.stream(ctx, sc, req, tool, sink)
	} else {
		resp, err = a.client.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		return domain.ToolInvocation{}, &domain.ModelInvocationError{Tool: tool, Err: err}
	}
	if resp.Usage != nil {
		metrics.RecordTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	inv, err := a.parse(resp, tool)
	if err != nil {
		a.logger.Warn("actor produced non-conformant output",
			zap.String("tool", string(tool)),
			zap.Error(err),
		)
		return domain.ToolInvocation{}, &domain.ModelInvocationError{Tool: tool, Err: err}
	}
	return inv, nil
}

func (a *Actor) stream(ctx context.Context, sc llm.StreamingClient, req *llm.ChatCompletionRequest, tool domain.ToolName, sink Sink) (*llm.ChatCompletionResponse, error) {
	req.Stream = true
	req.StreamOptions = &llm.StreamOptions{IncludeUsage: true}

	node := nodeFor(tool)
	lines := &lineBuffer{}
	seq := 0
	emit := func(text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		sink(domain.TraceEvent{
			Op:    domain.TraceOpAdd,
			Path:  fmt.Sprintf("/logs/%s:%d/streamed_output/-", node, seq),
			Node:  node,
			Value: domain.TraceValue{Text: text},
		})
		seq++
	}

	acc := llm.NewStreamAccumulator()
	usage, err := sc.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		for _, line := range lines.write(acc.Add(chunk)) {
			emit(line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	emit(lines.flush())
	return acc.Response(req.Model, usage), nil
}

func (a *Actor) buildRequest(history []domain.Message, tool domain.ToolName) (*llm.ChatCompletionRequest, error) {
	instruction := firstInstruction
	if tool == domain.ToolReviseAnswer {
		instruction = reviseInstruction
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: systemPrompt(a.opts.Now(), instruction)})
	for _, m := range history {
		msg, err := toChatMessage(m)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: formatReminder})

	req := &llm.ChatCompletionRequest{
		Model:    a.opts.Model,
		Messages: messages,
		Tools: []llm.Tool{{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        string(tool),
				Description: toolDescriptions[tool],
				Parameters:  a.schemas[tool].params,
			},
		}},
		ToolChoice: llm.ForceTool(string(tool)),
	}
	temp := a.opts.Temperature
	req.Temperature = &temp
	if a.opts.MaxTokens > 0 {
		maxTokens := a.opts.MaxTokens
		req.MaxTokens = &maxTokens
	}
	return req, nil
}

func toChatMessage(m domain.Message) (llm.ChatMessage, error) {
	switch m.Role {
	case domain.RoleHuman:
		return llm.ChatMessage{Role: llm.RoleUser, Content: m.Content}, nil
	case domain.RoleTool:
		return llm.ChatMessage{Role: llm.RoleTool, Content: m.Content, ToolCallID: m.ToolCallID}, nil
	case domain.RoleAssistant:
		msg := llm.ChatMessage{Role: llm.RoleAssistant, Content: m.Content}
		if m.Invocation != nil {
			args, err := json.Marshal(toolArgs{
				Answer:        m.Invocation.Answer,
				Critique:      m.Invocation.Critique,
				SearchQueries: nonNil(m.Invocation.SearchQueries),
				References:    m.Invocation.References,
			})
			if err != nil {
				return llm.ChatMessage{}, fmt.Errorf("encode previous tool call: %w", err)
			}
			msg.ToolCalls = []llm.ToolCall{{
				ID:       m.Invocation.ID,
				Type:     "function",
				Function: llm.ToolCallFunction{Name: string(m.Invocation.Name), Arguments: string(args)},
			}}
		}
		return msg, nil
	default:
		return llm.ChatMessage{}, fmt.Errorf("unknown message role %q", m.Role)
	}
}

type toolArgs struct {
	Answer        string   `json:"answer"`
	Critique      string   `json:"critique"`
	SearchQueries []string `json:"search_queries"`
	References    []string `json:"references,omitempty"`
}

func (a *Actor) parse(resp *llm.ChatCompletionResponse, tool domain.ToolName) (domain.ToolInvocation, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return domain.ToolInvocation{}, fmt.Errorf("empty completion")
	}
	var call *llm.ToolCall
	for i := range resp.Choices[0].Message.ToolCalls {
		if resp.Choices[0].Message.ToolCalls[i].Function.Name == string(tool) {
			call = &resp.Choices[0].Message.ToolCalls[i]
			break
		}
	}
	if call == nil {
		return domain.ToolInvocation{}, ErrNoToolCall
	}
	if err := a.schemas.validate(tool, call.Function.Arguments); err != nil {
		return domain.ToolInvocation{}, err
	}

	var args toolArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return domain.ToolInvocation{}, fmt.Errorf("decode arguments: %w", err)
	}
	id := call.ID
	if id == "" {
		id = "call_" + uuid.New().String()[:8]
	}
	return domain.ToolInvocation{
		ID:            id,
		Name:          tool,
		Answer:        args.Answer,
		Critique:      args.Critique,
		SearchQueries: nonNil(args.SearchQueries),
		References:    args.References,
	}, nil
}

func nodeFor(tool domain.ToolName) domain.NodeID {
	if tool == domain.ToolReviseAnswer {
		return domain.NodeReviseAnswer
	}
	return domain.NodeGenerate
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// lineBuffer groups streamed fragments into whole lines.
type lineBuffer struct {
	buf strings.Builder
}

func (l *lineBuffer) write(text string) []string {
	if text == "" {
		return nil
	}
	l.buf.WriteString(text)
	s := l.buf.String()
	cut := strings.LastIndexByte(s, '\n')
	if cut < 0 {
		return nil
	}
	l.buf.Reset()
	l.buf.WriteString(s[cut+1:])
	return strings.Split(s[:cut], "\n")
}

func (l *lineBuffer) flush() string {
	s := l.buf.String()
	l.buf.Reset()
	return s
}
