package tools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/impostorlabs/arena/pkg/protocol"
)

var toolDescriptions = map[string]string{
	PickFirstMate: "As the Captain, nominate an agent to be First Mate for this round. " +
		"The nominee must be one of the eligible agents listed in the schema. " +
		"After nomination every agent votes on whether to seat the pair.",
	VoteYesNo: "Vote on whether to approve the proposed Captain and First Mate pair. " +
		"Choose true to approve and let them resolve a protocol card, or false to reject. " +
		"Three consecutive failed votes auto-resolve the top card of the deck.",
	CaptainDiscardCard: "As Captain you have drawn three protocol cards and must discard one. " +
		"Select the card_index (0, 1, or 2) of the card to discard. " +
		"The remaining two cards pass to the First Mate.",
	FirstMatePlayCard: "As First Mate you received two protocol cards from the Captain. " +
		"Select the card_index (0 or 1) of the card to play; the other is discarded. " +
		"The played card is revealed to all agents and resolved onto its track.",
	AskSpeak: "Decide whether to speak during the discourse phase. " +
		"Provide a question_or_statement to address the table, optionally naming an " +
		"ask_directed_question_to_agent_id to demand an answer from a specific agent, " +
		"or leave both null to stay silent.",
	AnswerDirectedQuestion: "Respond to the question another agent directed at you during discourse.",
	ChooseAgentToEject: "Choose an agent to eject from the game, or null to decline. " +
		"Ejected agents are removed permanently.",
}

var toolArgSchemas = map[string]func() map[string]any{
	PickFirstMate:          schemaFor[PickFirstMateArgs],
	VoteYesNo:              schemaFor[VoteYesNoArgs],
	CaptainDiscardCard:     schemaFor[CaptainDiscardCardArgs],
	FirstMatePlayCard:      schemaFor[FirstMatePlayCardArgs],
	AskSpeak:               schemaFor[AskSpeakArgs],
	AnswerDirectedQuestion: schemaFor[AnswerDirectedQuestionArgs],
	ChooseAgentToEject:     schemaFor[ChooseAgentToEjectArgs],
}

// Names returns the full tool vocabulary.
func Names() []string {
	names := make([]string, 0, len(toolDescriptions))
	for name := range toolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build produces the OpenAI function schema for the named tool, narrowed so
// that any agent-id property only admits the given eligible IDs. The schema is
// strict: every property is required, optional ones are nullable, and
// reasoning is always the first required property.
func Build(name string, eligibleIDs []string) (*protocol.ToolCallTarget, error) {
	gen, ok := toolArgSchemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	params := gen()
	normalizeStrict(params)
	narrowAgentIDs(params, eligibleIDs)

	return &protocol.ToolCallTarget{
		Name: name,
		OpenAISchema: map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        name,
				"description": toolDescriptions[name],
				"strict":      true,
				"parameters":  params,
			},
		},
	}, nil
}

// schemaFor reflects a JSON schema from an argument struct's tags.
func schemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
	}

	var v T
	schema := reflector.Reflect(&v)

	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal reflected schema: %v", err))
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		panic(fmt.Sprintf("failed to unmarshal reflected schema: %v", err))
	}

	delete(m, "$schema")
	delete(m, "$id")
	m["type"] = "object"
	return m
}

// normalizeStrict rewrites the parameter schema for strict function calling:
// every property appears in required, properties that were not tagged required
// become nullable, and additionalProperties is false. The reflected required
// order (reasoning first) is preserved; the rest append in sorted order.
func normalizeStrict(params map[string]any) {
	props, _ := params["properties"].(map[string]any)

	required := make([]string, 0, len(props))
	seen := map[string]bool{}
	if tagged, ok := params["required"].([]any); ok {
		for _, r := range tagged {
			if s, ok := r.(string); ok {
				required = append(required, s)
				seen[s] = true
			}
		}
	}

	var optional []string
	for name := range props {
		if !seen[name] {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)

	for _, name := range optional {
		if prop, ok := props[name].(map[string]any); ok {
			if t, ok := prop["type"].(string); ok {
				prop["type"] = []any{t, "null"}
			}
		}
		required = append(required, name)
	}

	params["required"] = required
	params["additionalProperties"] = false
}

// narrowAgentIDs restricts agent-id properties to the eligible set. Nullable
// properties keep null as a valid choice.
func narrowAgentIDs(params map[string]any, eligibleIDs []string) {
	if len(eligibleIDs) == 0 {
		return
	}

	props, _ := params["properties"].(map[string]any)
	for _, key := range []string{"agent_id", "ask_directed_question_to_agent_id"} {
		prop, ok := props[key].(map[string]any)
		if !ok {
			continue
		}

		enum := make([]any, 0, len(eligibleIDs)+1)
		for _, id := range eligibleIDs {
			enum = append(enum, id)
		}
		if _, nullable := prop["type"].([]any); nullable {
			enum = append(enum, nil)
		}
		prop["enum"] = enum
	}
}
