// Package protocol defines the wire types exchanged between the engine and
// the external trainer, plus the chat-format message shapes shared with the
// LLM opponent backends.
package protocol

import "encoding/json"

// Message roles, OpenAI chat-completions vocabulary.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat-format message rendered from an agent history. The same
// rendering feeds both opponent LLM calls and trainer ModelInputs.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation produced by a model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// ToolResult acknowledges a tool call back to the model.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Output     string `json:"output"`
}

// ToolCallTarget names the single tool the deciding agent is allowed to call
// and carries its narrowed OpenAI function schema.
type ToolCallTarget struct {
	Name         string         `json:"name"`
	OpenAISchema map[string]any `json:"openai_schema"`
}

// Winning teams.
const (
	TeamCrewmate = "crewmate"
	TeamImpostor = "impostor"
)

// TerminalState is the final message payload of a game. WinningTeam is nil on
// synthetic failure terminals, which have no winners; it serializes as an
// explicit null so the trainer sees the field either way.
type TerminalState struct {
	GameID           string         `json:"game_id"`
	Winners          []string       `json:"winners"`
	WinningTeam      *string        `json:"winning_team"`
	Reward           float64        `json:"reward"`
	TrainableAgentID string         `json:"trainable_agent_id,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// ModelInput is what the engine yields to the trainer at every suspension
// point. Exactly one of ToolCall and TerminalState is non-nil.
type ModelInput struct {
	Messages      []Message       `json:"messages"`
	ToolCall      *ToolCallTarget `json:"tool_call"`
	TerminalState *TerminalState  `json:"terminal_state"`
	GameID        string          `json:"game_id"`
}

// ModelOutput is the trainer's answer to a ModelInput that carried a
// ToolCall. FunctionCallingJSON encodes {"tool_name": ..., "arguments": {...}}.
type ModelOutput struct {
	FunctionCallingJSON string `json:"function_calling_json"`
	Reasoning           string `json:"reasoning,omitempty"`
}

// FunctionCall is the decoded form of ModelOutput.FunctionCallingJSON.
type FunctionCall struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}
