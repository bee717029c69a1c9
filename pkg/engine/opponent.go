package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/impostorlabs/arena/pkg/llms"
	"github.com/impostorlabs/arena/pkg/logger"
	"github.com/impostorlabs/arena/pkg/protocol"
	"github.com/impostorlabs/arena/pkg/tools"
)

// Decision is a validated tool invocation produced by an opponent.
type Decision struct {
	Text       string
	Call       protocol.ToolCall
	Invocation tools.Invocation
	Tokens     int
}

// Opponent decides one tool call given a rendered history and the single
// allowed tool. Implementations must return an invocation naming exactly the
// target tool with arguments inside the narrowed schema.
type Opponent interface {
	Decide(ctx context.Context, messages []protocol.Message, target *protocol.ToolCallTarget, eligibleIDs []string) (*Decision, error)
}

// LLMOpponent backs a seat with an LLM provider. It forces the tool choice,
// truncates to the first matching tool call, and retries responses that fail
// validation before reporting the opponent unavailable.
type LLMOpponent struct {
	agentID  string
	provider llms.LLMProvider
	retries  int
	logger   *slog.Logger
}

func NewLLMOpponent(agentID string, provider llms.LLMProvider, retries int) *LLMOpponent {
	if retries < 0 {
		retries = 0
	}
	return &LLMOpponent{
		agentID:  agentID,
		provider: provider,
		retries:  retries,
		logger:   logger.GetLogger(),
	}
}

func (o *LLMOpponent) Decide(ctx context.Context, messages []protocol.Message, target *protocol.ToolCallTarget, eligibleIDs []string) (*Decision, error) {
	var lastErr error

	for attempt := 0; attempt <= o.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &OpponentUnavailableError{AgentID: o.agentID, Err: err}
		}

		text, calls, tokens, err := o.provider.Generate(ctx, messages, target)
		if err != nil {
			lastErr = err
			continue
		}

		call, err := pickCall(calls, target.Name)
		if err != nil {
			lastErr = err
			o.logger.Warn("opponent returned unusable tool call",
				slog.String("agent", o.agentID),
				slog.String("expected", target.Name),
				slog.Int("attempt", attempt+1),
			)
			continue
		}

		invocation, err := tools.Decode(call.Name, []byte(call.Arguments), eligibleIDs)
		if err != nil {
			lastErr = err
			o.logger.Warn("opponent tool arguments failed validation",
				slog.String("agent", o.agentID),
				slog.String("tool", call.Name),
				slog.Int("attempt", attempt+1),
			)
			continue
		}

		if call.ID == "" {
			call.ID = uuid.NewString()
		}

		return &Decision{
			Text:       text,
			Call:       *call,
			Invocation: invocation,
			Tokens:     tokens,
		}, nil
	}

	return nil, &OpponentUnavailableError{AgentID: o.agentID, Err: lastErr}
}

// pickCall selects the first call naming the allowed tool. Models sometimes
// return extra calls; everything past the first match is dropped.
func pickCall(calls []protocol.ToolCall, allowed string) (*protocol.ToolCall, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("model returned no tool calls")
	}
	for i := range calls {
		if calls[i].Name == allowed {
			return &calls[i], nil
		}
	}
	return nil, fmt.Errorf("model called %q instead of %q", calls[0].Name, allowed)
}
