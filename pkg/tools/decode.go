package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses raw tool-call arguments into a typed, validated Invocation.
// Unknown fields, out-of-range indices and agent IDs outside the eligible set
// are rejected. An empty eligible set skips eligibility checks.
func Decode(name string, rawArgs []byte, eligibleIDs []string) (Invocation, error) {
	switch name {
	case PickFirstMate:
		var args PickFirstMateArgs
		if err := strictUnmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
		if args.AgentID == "" {
			return nil, fmt.Errorf("%s: agent_id is required", name)
		}
		if err := checkEligible(name, args.AgentID, eligibleIDs); err != nil {
			return nil, err
		}
		return &args, nil

	case VoteYesNo:
		var args VoteYesNoArgs
		if err := strictUnmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
		return &args, nil

	case CaptainDiscardCard:
		var args CaptainDiscardCardArgs
		if err := strictUnmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
		if args.CardIndex < 0 || args.CardIndex > 2 {
			return nil, fmt.Errorf("%s: card_index %d out of range [0, 2]", name, args.CardIndex)
		}
		return &args, nil

	case FirstMatePlayCard:
		var args FirstMatePlayCardArgs
		if err := strictUnmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
		if args.CardIndex < 0 || args.CardIndex > 1 {
			return nil, fmt.Errorf("%s: card_index %d out of range [0, 1]", name, args.CardIndex)
		}
		return &args, nil

	case AskSpeak:
		var args AskSpeakArgs
		if err := strictUnmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
		if args.AskDirectedQuestionToAgentID != nil {
			if args.QuestionOrStatement == nil || *args.QuestionOrStatement == "" {
				return nil, fmt.Errorf("%s: a directed question needs a question_or_statement", name)
			}
			if err := checkEligible(name, *args.AskDirectedQuestionToAgentID, eligibleIDs); err != nil {
				return nil, err
			}
		}
		return &args, nil

	case AnswerDirectedQuestion:
		var args AnswerDirectedQuestionArgs
		if err := strictUnmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
		if args.Response == "" {
			return nil, fmt.Errorf("%s: response is required", name)
		}
		return &args, nil

	case ChooseAgentToEject:
		var args ChooseAgentToEjectArgs
		if err := strictUnmarshal(rawArgs, &args); err != nil {
			return nil, err
		}
		if args.AgentID != nil {
			if err := checkEligible(name, *args.AgentID, eligibleIDs); err != nil {
				return nil, err
			}
		}
		return &args, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func checkEligible(tool, agentID string, eligibleIDs []string) error {
	if len(eligibleIDs) == 0 {
		return nil
	}
	for _, id := range eligibleIDs {
		if id == agentID {
			return nil
		}
	}
	return fmt.Errorf("%s: agent %q is not eligible", tool, agentID)
}
