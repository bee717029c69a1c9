package engine

import (
	"github.com/impostorlabs/arena/pkg/protocol"
	"github.com/impostorlabs/arena/pkg/tools"
)

// HistoryItem is one entry in an agent's message history. The three variants
// mirror the chat transcript shape: prompts in, model responses out, tool
// acknowledgements back.
type HistoryItem interface {
	historyItem()
}

// UserInput is a message delivered to the agent: the system prompt, an event
// description, or an action prompt.
type UserInput struct {
	Role    string
	Message string
}

func (UserInput) historyItem() {}

// AssistantResponse is what the agent produced for one decision.
type AssistantResponse struct {
	Reasoning  string
	Text       string
	ToolCalls  []protocol.ToolCall
	Invocation tools.Invocation
}

func (AssistantResponse) historyItem() {}

// ToolFeedback acknowledges the agent's tool calls.
type ToolFeedback struct {
	Results []protocol.ToolResult
}

func (ToolFeedback) historyItem() {}

// History is one agent's ordered message history.
type History struct {
	items []HistoryItem
}

func (h *History) Append(item HistoryItem) {
	h.items = append(h.items, item)
}

func (h *History) Len() int { return len(h.items) }

// Render converts the history into chat-format messages. The same rendering
// feeds opponent LLM requests and trainer ModelInputs.
func (h *History) Render() []protocol.Message {
	messages := make([]protocol.Message, 0, len(h.items))
	for _, item := range h.items {
		switch it := item.(type) {
		case UserInput:
			role := it.Role
			if role == "" {
				role = protocol.RoleUser
			}
			messages = append(messages, protocol.Message{
				Role:    role,
				Content: it.Message,
			})

		case AssistantResponse:
			messages = append(messages, protocol.Message{
				Role:      protocol.RoleAssistant,
				Content:   it.Text,
				ToolCalls: it.ToolCalls,
			})

		case ToolFeedback:
			for _, result := range it.Results {
				messages = append(messages, protocol.Message{
					Role:       protocol.RoleTool,
					Content:    result.Output,
					ToolCallID: result.ToolCallID,
				})
			}
		}
	}
	return messages
}
