package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impostorlabs/arena/pkg/protocol"
	"github.com/impostorlabs/arena/pkg/tools"
)

// fakeProvider replays canned responses, one per Generate call.
type fakeProvider struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	text      string
	toolCalls []protocol.ToolCall
	err       error
}

func (p *fakeProvider) Generate(ctx context.Context, messages []protocol.Message, target *protocol.ToolCallTarget) (string, []protocol.ToolCall, int, error) {
	resp := p.responses[p.calls%len(p.responses)]
	p.calls++
	return resp.text, resp.toolCalls, 10, resp.err
}

func (p *fakeProvider) Model() string { return "fake" }
func (p *fakeProvider) Close() error  { return nil }

func TestLLMOpponentDecide(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{{
		toolCalls: []protocol.ToolCall{{
			ID:        "call_1",
			Name:      tools.VoteYesNo,
			Arguments: `{"reasoning":"r","choice":true}`,
		}},
	}}}

	opponent := NewLLMOpponent("agent_1", provider, 2)
	dec, err := opponent.Decide(context.Background(), nil, voteTarget(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "call_1", dec.Call.ID)
	assert.Equal(t, 10, dec.Tokens)
	assert.True(t, dec.Invocation.(*tools.VoteYesNoArgs).Choice)
	assert.Equal(t, 1, provider.calls)
}

func TestLLMOpponentDropsExtraCalls(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{{
		toolCalls: []protocol.ToolCall{
			{ID: "c1", Name: "pick_first_mate", Arguments: `{}`},
			{ID: "c2", Name: tools.VoteYesNo, Arguments: `{"reasoning":"r","choice":false}`},
			{ID: "c3", Name: tools.VoteYesNo, Arguments: `{"reasoning":"r","choice":true}`},
		},
	}}}

	opponent := NewLLMOpponent("agent_1", provider, 0)
	dec, err := opponent.Decide(context.Background(), nil, voteTarget(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "c2", dec.Call.ID)
	assert.False(t, dec.Invocation.(*tools.VoteYesNoArgs).Choice)
}

func TestLLMOpponentRetriesInvalidArguments(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{toolCalls: []protocol.ToolCall{{ID: "bad", Name: tools.VoteYesNo, Arguments: `{"choice":"maybe"}`}}},
		{toolCalls: []protocol.ToolCall{{ID: "good", Name: tools.VoteYesNo, Arguments: `{"reasoning":"r","choice":true}`}}},
	}}

	opponent := NewLLMOpponent("agent_1", provider, 1)
	dec, err := opponent.Decide(context.Background(), nil, voteTarget(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "good", dec.Call.ID)
	assert.Equal(t, 2, provider.calls)
}

func TestLLMOpponentExhaustsRetries(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{{}}}

	opponent := NewLLMOpponent("agent_1", provider, 2)
	_, err := opponent.Decide(context.Background(), nil, voteTarget(t), nil)
	require.Error(t, err)

	var unavailable *OpponentUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "agent_1", unavailable.AgentID)
	assert.Equal(t, 3, provider.calls)
}

func TestLLMOpponentAssignsMissingCallID(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{{
		toolCalls: []protocol.ToolCall{{Name: tools.VoteYesNo, Arguments: `{"reasoning":"r","choice":true}`}},
	}}}

	opponent := NewLLMOpponent("agent_1", provider, 0)
	dec, err := opponent.Decide(context.Background(), nil, voteTarget(t), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, dec.Call.ID)
}
