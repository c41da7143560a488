// Package llm provides clients for chat completion APIs with forced tool
// calling.
package llm

import "context"

// LLMClient defines the blocking chat completion operation.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// StreamCallback is called for each chunk in a streaming response.
type StreamCallback func(chunk *StreamChunk) error

// StreamingClient is implemented by clients that can stream deltas.
type StreamingClient interface {
	LLMClient

	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each chunk received.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error)
}

var (
	_ StreamingClient = (*Client)(nil)
	_ StreamingClient = (*AnthropicClient)(nil)
	_ StreamingClient = (*MockClient)(nil)
)
