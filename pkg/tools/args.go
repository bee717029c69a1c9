// Package tools defines the closed tool vocabulary agents decide with, the
// typed argument structs behind each tool, schema generation with eligibility
// narrowing, and decoding of raw tool-call arguments back into typed
// invocations.
package tools

// Tool names. Every decision in a game is one of these.
const (
	PickFirstMate          = "pick_first_mate"
	VoteYesNo              = "vote_yes_no"
	CaptainDiscardCard     = "captain_discard_card"
	FirstMatePlayCard      = "first_mate_play_card"
	AskSpeak               = "ask_speak"
	AnswerDirectedQuestion = "answer_directed_question"
	ChooseAgentToEject     = "choose_agent_to_eject"
)

// Invocation is a decoded, validated tool call.
type Invocation interface {
	ToolName() string
}

// PickFirstMateArgs nominates a First Mate. The agent_id enum is narrowed to
// eligible agents at schema build time.
type PickFirstMateArgs struct {
	Reasoning string `json:"reasoning" jsonschema:"required,description=Think through the decision step by step before committing to it."`
	AgentID   string `json:"agent_id" jsonschema:"required,description=The identifier of the agent to nominate as First Mate."`
}

func (PickFirstMateArgs) ToolName() string { return PickFirstMate }

// VoteYesNoArgs votes on the proposed captain and First Mate pair.
type VoteYesNoArgs struct {
	Reasoning string `json:"reasoning" jsonschema:"required,description=Think through the decision step by step before committing to it."`
	Choice    bool   `json:"choice" jsonschema:"required,description=True approves the proposed pair; false rejects it."`
}

func (VoteYesNoArgs) ToolName() string { return VoteYesNo }

// CaptainDiscardCardArgs discards one of the three drawn cards.
type CaptainDiscardCardArgs struct {
	Reasoning string `json:"reasoning" jsonschema:"required,description=Think through the decision step by step before committing to it."`
	CardIndex int    `json:"card_index" jsonschema:"required,minimum=0,maximum=2,description=Zero-based index of the drawn card to discard."`
}

func (CaptainDiscardCardArgs) ToolName() string { return CaptainDiscardCard }

// FirstMatePlayCardArgs plays one of the two received cards.
type FirstMatePlayCardArgs struct {
	Reasoning string `json:"reasoning" jsonschema:"required,description=Think through the decision step by step before committing to it."`
	CardIndex int    `json:"card_index" jsonschema:"required,minimum=0,maximum=1,description=Zero-based index of the received card to play."`
}

func (FirstMatePlayCardArgs) ToolName() string { return FirstMatePlayCard }

// AskSpeakArgs is the discourse-phase decision: speak, optionally direct a
// question at another agent, or stay silent (both fields null).
type AskSpeakArgs struct {
	Reasoning                    string  `json:"reasoning" jsonschema:"required,description=Think through the decision step by step before committing to it."`
	QuestionOrStatement          *string `json:"question_or_statement" jsonschema:"description=What to say to the table; null to stay silent."`
	AskDirectedQuestionToAgentID *string `json:"ask_directed_question_to_agent_id" jsonschema:"description=Identifier of the agent the question is directed at; null for an open statement."`
}

func (AskSpeakArgs) ToolName() string { return AskSpeak }

// AnswerDirectedQuestionArgs answers a question directed at this agent.
type AnswerDirectedQuestionArgs struct {
	Reasoning string `json:"reasoning" jsonschema:"required,description=Think through the decision step by step before committing to it."`
	Response  string `json:"response" jsonschema:"required,description=The answer to the question directed at you."`
}

func (AnswerDirectedQuestionArgs) ToolName() string { return AnswerDirectedQuestion }

// ChooseAgentToEjectArgs selects an agent to eject, or null to decline.
// Reserved for executive powers; no round phase triggers it yet.
type ChooseAgentToEjectArgs struct {
	Reasoning string  `json:"reasoning" jsonschema:"required,description=Think through the decision step by step before committing to it."`
	AgentID   *string `json:"agent_id" jsonschema:"description=Identifier of the agent to eject; null to decline."`
}

func (ChooseAgentToEjectArgs) ToolName() string { return ChooseAgentToEject }
