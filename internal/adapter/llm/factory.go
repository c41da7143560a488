package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/config"
)

// DefaultOpenAIBaseURL is used when no gateway is configured.
const DefaultOpenAIBaseURL = "https://api.openai.com"

// NewLLMClient creates the client selected by cfg.Provider.
func NewLLMClient(cfg config.LLMConfig, logger *zap.Logger) (StreamingClient, error) {
	switch cfg.Provider {
	case "mock":
		logger.Info("using mock LLM client")
		return NewMockClient(), nil
	case "anthropic":
		return NewAnthropicFromAPIKey(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, cfg.Timeout), nil
	case "openai", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOpenAIBaseURL
		}
		return NewClient(baseURL, cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
