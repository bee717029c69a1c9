package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/impostorlabs/arena/pkg/config"
	"github.com/impostorlabs/arena/pkg/httpclient"
	"github.com/impostorlabs/arena/pkg/logger"
	"github.com/impostorlabs/arena/pkg/protocol"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	config     *config.LLMProviderConfig
	httpClient *httpclient.Client
	logger     *slog.Logger
}

func NewOpenAIProvider(cfg *config.LLMProviderConfig) (*OpenAIProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OpenAI config: %w", err)
	}

	client := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
		httpclient.WithHeaderParser(httpclient.ParseOpenAIRateLimitHeaders),
		httpclient.WithLogger(logger.GetLogger()),
	)

	return &OpenAIProvider{
		config:     cfg,
		httpClient: client,
		logger:     logger.GetLogger(),
	}, nil
}

func (p *OpenAIProvider) Model() string { return p.config.Model }

func (p *OpenAIProvider) Close() error { return nil }

// openAIMessage is the wire form of a chat message.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIRequest struct {
	Model       string           `json:"model"`
	Messages    []openAIMessage  `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Tools       []map[string]any `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   string           `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends the conversation to the chat completions endpoint. When
// target is set the request forces a call to exactly that tool.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []protocol.Message, target *protocol.ToolCallTarget) (string, []protocol.ToolCall, int, error) {
	reqBody := openAIRequest{
		Model:       p.config.Model,
		Messages:    convertMessages(messages),
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	if target != nil {
		reqBody.Tools = []map[string]any{target.OpenAISchema}
		reqBody.ToolChoice = "required"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(p.config.Host, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", nil, 0, fmt.Errorf("request to %s failed: %w", p.config.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", nil, 0, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", nil, 0, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", nil, 0, fmt.Errorf("empty choices in response")
	}

	choice := parsed.Choices[0]
	var calls []protocol.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, protocol.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	p.logger.Debug("LLM response",
		slog.String("model", p.config.Model),
		slog.String("finish_reason", choice.FinishReason),
		slog.Int("tool_calls", len(calls)),
		slog.Int("tokens", parsed.Usage.TotalTokens),
	)

	return choice.Message.Content, calls, parsed.Usage.TotalTokens, nil
}

func convertMessages(messages []protocol.Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		msg := openAIMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openAIToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: openAIFunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}
