// Package config provides configuration for legalflow.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. LEGALFLOW_LLM_MODEL.
	EnvPrefix = "LEGALFLOW"
	// ModeMock switches both the model and the search provider to offline mocks.
	ModeMock = "MOCK"
)

// Config holds the service configuration.
type Config struct {
	Mode     string         `mapstructure:"mode"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Links    LinksConfig    `mapstructure:"links"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig selects and configures the language model backend.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Stream      bool          `mapstructure:"stream"`
}

// SearchConfig selects and configures the web search backend.
type SearchConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	MaxResults    int           `mapstructure:"max_results"`
	Depth         string        `mapstructure:"depth"`
	Topic         string        `mapstructure:"topic"`
	TimeRange     string        `mapstructure:"time_range"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// WorkflowConfig bounds the reflexion loop.
type WorkflowConfig struct {
	MaxIterations  int           `mapstructure:"max_iterations"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	TraceEnabled   bool          `mapstructure:"trace_enabled"`
}

type PolicyConfig struct {
	MaxQueryLength int      `mapstructure:"max_query_length"`
	DeniedTerms    []string `mapstructure:"denied_terms"`
}

type LinksConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxLinks     int           `mapstructure:"max_links"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PreviewChars int           `mapstructure:"preview_chars"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from defaults, an optional config.yaml, the given
// .env file and the environment, in increasing order of precedence. An empty
// envFile means ".env" in the working directory; a missing file is ignored.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys are commonly exported without our prefix.
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("search.api_key", EnvPrefix+"_SEARCH_API_KEY", "TAVILY_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if strings.EqualFold(cfg.Mode, ModeMock) {
		cfg.LLM.Provider = "mock"
		cfg.Search.Provider = "mock"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "")

	v.SetDefault("server.http_port", 8000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "file:legalflow.db?cache=shared&mode=rwc")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.stream", true)

	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "https://api.tavily.com")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.depth", "advanced")
	v.SetDefault("search.topic", "general")
	v.SetDefault("search.time_range", "week")
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.rate_per_second", 2.0)
	v.SetDefault("search.burst", 3)

	v.SetDefault("workflow.max_iterations", 1)
	v.SetDefault("workflow.max_attempts", 3)
	v.SetDefault("workflow.initial_backoff", 500*time.Millisecond)
	v.SetDefault("workflow.max_backoff", 5*time.Second)
	v.SetDefault("workflow.query_timeout", 20*time.Second)
	v.SetDefault("workflow.trace_enabled", true)

	v.SetDefault("policy.max_query_length", 400)
	v.SetDefault("policy.denied_terms", []string{})

	v.SetDefault("links.enabled", true)
	v.SetDefault("links.max_links", 5)
	v.SetDefault("links.timeout", 10*time.Second)
	v.SetDefault("links.preview_chars", 250)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Workflow.MaxIterations < 1 {
		return fmt.Errorf("workflow.max_iterations must be at least 1, got %d", c.Workflow.MaxIterations)
	}
	if c.Workflow.MaxAttempts < 1 {
		return fmt.Errorf("workflow.max_attempts must be at least 1, got %d", c.Workflow.MaxAttempts)
	}
	if c.Workflow.QueryTimeout <= 0 {
		return fmt.Errorf("workflow.query_timeout must be positive")
	}
	return nil
}
