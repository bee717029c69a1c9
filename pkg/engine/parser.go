package engine

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/impostorlabs/arena/pkg/protocol"
	"github.com/impostorlabs/arena/pkg/tools"
)

// ParseModelOutput decodes the trainer's reply to a decision into an
// assistant history item. The reply must be well-formed JSON, name exactly
// the requested tool, and carry arguments inside the narrowed schema.
func ParseModelOutput(out protocol.ModelOutput, target *protocol.ToolCallTarget, eligibleIDs []string) (*AssistantResponse, error) {
	var call protocol.FunctionCall
	if err := json.Unmarshal([]byte(out.FunctionCallingJSON), &call); err != nil {
		return nil, &ProtocolError{Reason: "invalid function_calling_json", Err: err}
	}

	if call.ToolName == "" {
		return nil, &ProtocolError{Reason: "missing tool_name"}
	}
	if call.ToolName != target.Name {
		return nil, &ProtocolError{
			Reason: "tool_name " + call.ToolName + " does not match requested tool " + target.Name,
		}
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	invocation, err := tools.Decode(call.ToolName, args, eligibleIDs)
	if err != nil {
		return nil, &ProtocolError{Reason: "invalid tool arguments", Err: err}
	}

	return &AssistantResponse{
		Reasoning: out.Reasoning,
		ToolCalls: []protocol.ToolCall{{
			ID:        uuid.NewString(),
			Name:      call.ToolName,
			Arguments: string(args),
		}},
		Invocation: invocation,
	}, nil
}
