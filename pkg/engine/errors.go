package engine

import "fmt"

// AgentNotFoundError reports a decision that referenced an agent ID the game
// does not know about.
type AgentNotFoundError struct {
	GameID  string
	AgentID string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("unknown agent %q in game %s", e.AgentID, e.GameID)
}

// OpponentUnavailableError reports an opponent adapter that exhausted its
// retries without producing a usable tool call.
type OpponentUnavailableError struct {
	AgentID string
	Err     error
}

func (e *OpponentUnavailableError) Error() string {
	return fmt.Sprintf("opponent %s unavailable: %v", e.AgentID, e.Err)
}

func (e *OpponentUnavailableError) Unwrap() error { return e.Err }

// GameNotFoundError reports a registry lookup miss.
type GameNotFoundError struct {
	GameID string
}

func (e *GameNotFoundError) Error() string {
	return fmt.Sprintf("game %s not found", e.GameID)
}

// ProtocolError reports a malformed trainer response: invalid JSON, a wrong
// tool name, or arguments that fail the narrowed schema.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// DeckExhaustedError reports a draw that cannot be satisfied even after
// reshuffling the discard pile. Unreachable when track targets fit the deck.
type DeckExhaustedError struct {
	Requested int
	Available int
}

func (e *DeckExhaustedError) Error() string {
	return fmt.Sprintf("deck exhausted: requested %d cards, %d available", e.Requested, e.Available)
}
