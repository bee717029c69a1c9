package config

import (
	"fmt"
	"os"
)

// LLMProviderConfig configures one LLM provider backend used for opponent
// agents. Type "openai" covers any OpenAI-compatible endpoint (OpenAI proper,
// vLLM, ollama's compatibility layer) via Host.
type LLMProviderConfig struct {
	Type        string   `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"enum=openai,default=openai"`
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`
	APIKey      string   `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Host        string   `yaml:"host,omitempty" json:"host,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// MaxRetries and RetryDelay (seconds) drive the retrying HTTP client.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryDelay int `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
}

func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Host == "" {
		c.Host = "https://api.openai.com/v1"
	}
	if c.Temperature == nil {
		temp := 0.7
		c.Temperature = &temp
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2
	}
}

func (c *LLMProviderConfig) Validate() error {
	if c.Type != "openai" {
		return fmt.Errorf("unsupported provider type: %s", c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be in [0, 2], got %v", *c.Temperature)
	}
	return nil
}
