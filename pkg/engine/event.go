package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Event is one entry in a game's event log. Counters are assigned by the log
// at append time; Describe renders the event as the line agents see in their
// histories.
type Event interface {
	Order() int
	Describe() string

	setOrder(int)
}

type eventBase struct {
	order int
}

func (e *eventBase) Order() int     { return e.order }
func (e *eventBase) setOrder(n int) { e.order = n }

// NominationProposed is public: the captain named a First Mate nominee.
type NominationProposed struct {
	eventBase
	CaptainID   string
	FirstMateID string
}

func (e *NominationProposed) Describe() string {
	return fmt.Sprintf("[event %d] Captain %s nominated %s as First Mate.", e.order, e.CaptainID, e.FirstMateID)
}

// VoteCast is public: one agent's vote on the proposed pair.
type VoteCast struct {
	eventBase
	VoterID   string
	NomineeID string
	Vote      bool
}

func (e *VoteCast) Describe() string {
	choice := "NO"
	if e.Vote {
		choice = "YES"
	}
	return fmt.Sprintf("[event %d] %s voted %s on First Mate nominee %s.", e.order, e.VoterID, choice, e.NomineeID)
}

// Speech is public: an agent spoke during discourse, optionally directing a
// question at another agent.
type Speech struct {
	eventBase
	AgentID    string
	Statement  string
	DirectedTo string
}

func (e *Speech) Describe() string {
	if e.DirectedTo != "" {
		return fmt.Sprintf("[event %d] %s said (directed at %s): %s", e.order, e.AgentID, e.DirectedTo, e.Statement)
	}
	return fmt.Sprintf("[event %d] %s said: %s", e.order, e.AgentID, e.Statement)
}

// DirectedAnswer is public: the reply to a directed question.
type DirectedAnswer struct {
	eventBase
	AgentID      string
	InResponseTo string
	Response     string
}

func (e *DirectedAnswer) Describe() string {
	return fmt.Sprintf("[event %d] %s answered %s: %s", e.order, e.AgentID, e.InResponseTo, e.Response)
}

// PolicyResolved is public: a card landed on its track. Actor is empty for
// the auto-resolve after three failed votes.
type PolicyResolved struct {
	eventBase
	Actor string
	Card  Card
}

func (e *PolicyResolved) Describe() string {
	if e.Actor == "" {
		return fmt.Sprintf("[event %d] Three failed votes: the top card of the deck auto-resolved as %s.", e.order, e.Card)
	}
	return fmt.Sprintf("[event %d] First Mate %s played a %s card.", e.order, e.Actor, e.Card)
}

// CaptainCardDraw is private to the captain: the three cards drawn and the
// one discarded.
type CaptainCardDraw struct {
	eventBase
	CaptainID string
	Drawn     []Card
	Discarded Card
}

func (e *CaptainCardDraw) Describe() string {
	return fmt.Sprintf("[event %d] You drew %s and discarded a %s card.", e.order, joinCards(e.Drawn), e.Discarded)
}

// FirstMateCardReceive is private to the First Mate: the two cards received
// and the one left unplayed.
type FirstMateCardReceive struct {
	eventBase
	FirstMateID string
	FromCaptain string
	Received    []Card
	Discarded   Card
}

func (e *FirstMateCardReceive) Describe() string {
	return fmt.Sprintf("[event %d] Captain %s passed you %s; you discarded a %s card.", e.order, e.FromCaptain, joinCards(e.Received), e.Discarded)
}

func joinCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// EventLog is the append-only record of a game: public events every agent
// sees plus per-agent private streams, all numbered by one shared counter.
type EventLog struct {
	counter int
	public  []Event
	private map[string][]Event
}

func NewEventLog(agentIDs []string) *EventLog {
	private := make(map[string][]Event, len(agentIDs))
	for _, id := range agentIDs {
		private[id] = nil
	}
	return &EventLog{private: private}
}

func (l *EventLog) AppendPublic(e Event) {
	e.setOrder(l.counter)
	l.counter++
	l.public = append(l.public, e)
}

func (l *EventLog) AppendPrivate(agentID string, e Event) {
	e.setOrder(l.counter)
	l.counter++
	l.private[agentID] = append(l.private[agentID], e)
}

// Counter returns the next counter value, which equals the number of events
// appended so far.
func (l *EventLog) Counter() int { return l.counter }

// SnapshotFor returns all public events plus the agent's private events, in
// counter order.
func (l *EventLog) SnapshotFor(agentID string) []Event {
	merged := make([]Event, 0, len(l.public)+len(l.private[agentID]))
	merged = append(merged, l.public...)
	merged = append(merged, l.private[agentID]...)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Order() < merged[j].Order()
	})
	return merged
}

// Since returns the agent's snapshot restricted to events with counters
// strictly greater than after.
func (l *EventLog) Since(agentID string, after int) []Event {
	snapshot := l.SnapshotFor(agentID)
	for i, e := range snapshot {
		if e.Order() > after {
			return snapshot[i:]
		}
	}
	return nil
}
