// Package llms provides the LLM provider abstraction behind opponent agents.
// The engine only ever asks a provider for a single forced function call, so
// the interface is deliberately small.
package llms

import (
	"context"

	"github.com/impostorlabs/arena/pkg/protocol"
)

// LLMProvider generates a model response for a conversation. When target is
// non-nil the provider must force a call to that single tool.
type LLMProvider interface {
	// Generate returns the assistant text (usually empty under forced tool
	// choice), the tool calls the model made, and the total token count.
	Generate(ctx context.Context, messages []protocol.Message, target *protocol.ToolCallTarget) (string, []protocol.ToolCall, int, error)

	// Model returns the underlying model identifier, for logging.
	Model() string

	// Close releases any resources held by the provider.
	Close() error
}
