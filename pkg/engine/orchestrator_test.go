package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impostorlabs/arena/pkg/protocol"
	"github.com/impostorlabs/arena/pkg/tools"
)

// scriptedOpponent drives a seat deterministically, keyed by the allowed
// tool. Zero value: nominate the first eligible agent, vote yes, stay
// silent, discard and play index 0.
type scriptedOpponent struct {
	nominate   func(eligible []string) string
	vote       func() bool
	speak      func() (statement, directedTo *string)
	answer     string
	discardIdx int
	playIdx    int
}

func (o *scriptedOpponent) Decide(ctx context.Context, messages []protocol.Message, target *protocol.ToolCallTarget, eligibleIDs []string) (*Decision, error) {
	const reasoning = "scripted"

	var args any
	switch target.Name {
	case tools.PickFirstMate:
		id := eligibleIDs[0]
		if o.nominate != nil {
			id = o.nominate(eligibleIDs)
		}
		args = tools.PickFirstMateArgs{Reasoning: reasoning, AgentID: id}

	case tools.VoteYesNo:
		choice := true
		if o.vote != nil {
			choice = o.vote()
		}
		args = tools.VoteYesNoArgs{Reasoning: reasoning, Choice: choice}

	case tools.AskSpeak:
		var statement, directed *string
		if o.speak != nil {
			statement, directed = o.speak()
		}
		args = tools.AskSpeakArgs{
			Reasoning:                    reasoning,
			QuestionOrStatement:          statement,
			AskDirectedQuestionToAgentID: directed,
		}

	case tools.AnswerDirectedQuestion:
		answer := o.answer
		if answer == "" {
			answer = "no comment"
		}
		args = tools.AnswerDirectedQuestionArgs{Reasoning: reasoning, Response: answer}

	case tools.CaptainDiscardCard:
		args = tools.CaptainDiscardCardArgs{Reasoning: reasoning, CardIndex: o.discardIdx}

	case tools.FirstMatePlayCard:
		args = tools.FirstMatePlayCardArgs{Reasoning: reasoning, CardIndex: o.playIdx}

	default:
		return nil, fmt.Errorf("unexpected tool %s", target.Name)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	invocation, err := tools.Decode(target.Name, raw, eligibleIDs)
	if err != nil {
		return nil, err
	}

	return &Decision{
		Call: protocol.ToolCall{
			ID:        uuid.NewString(),
			Name:      target.Name,
			Arguments: string(raw),
		},
		Invocation: invocation,
	}, nil
}

func sameOpponents(o *scriptedOpponent) []Opponent {
	seats := make([]Opponent, NumPlayers)
	for i := range seats {
		seats[i] = o
	}
	return seats
}

func cardsOf(c Card, n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = c
	}
	return cards
}

// runGameToTerminal runs an all-opponent game synchronously; the terminal
// fits the buffered output channel.
func runGameToTerminal(t *testing.T, cfg GameConfig) (*Game, protocol.ModelInput) {
	t.Helper()

	in := make(chan protocol.ModelOutput, 1)
	out := make(chan protocol.ModelInput, 1)

	g, err := NewGame(cfg, in, out)
	require.NoError(t, err)
	require.NoError(t, g.Run(context.Background()))

	terminal := <-out
	require.NotNil(t, terminal.TerminalState)
	require.Nil(t, terminal.ToolCall)
	return g, terminal
}

func TestSecuritySprint(t *testing.T) {
	cfg := GameConfig{
		GameID:         "security-sprint",
		Opponents:      sameOpponents(&scriptedOpponent{}),
		SecurityTarget: 3,
		Seed:           101,
		Deck:           NewDeckFromCards(cardsOf(CardSecurity, 9), rand.New(rand.NewSource(101))),
	}

	g, terminal := runGameToTerminal(t, cfg)
	ts := terminal.TerminalState

	require.NotNil(t, ts.WinningTeam)
	assert.Equal(t, protocol.TeamCrewmate, *ts.WinningTeam)
	assert.Len(t, ts.Winners, 3)
	assert.Equal(t, 3, g.securityTrack)
	assert.Equal(t, 0, g.sabotageTrack)

	// Conservation: every card is in the draw pile, the discard pile, or on a
	// track.
	total := g.deck.Remaining() + g.deck.DiscardCount() + g.securityTrack + g.sabotageTrack
	assert.Equal(t, g.deck.Size(), total)
}

func TestPromotionWin(t *testing.T) {
	shared := struct {
		game     *Game
		masterID string
		nominee  string
	}{}

	opponent := &scriptedOpponent{
		nominate: func(eligible []string) string {
			pick := eligible[0]
			if shared.game.sabotageTrack >= shared.game.cfg.PromotionThreshold {
				for _, id := range eligible {
					if id == shared.masterID {
						shared.nominee = id
						return id
					}
				}
			}
			for _, id := range eligible {
				if id != shared.masterID {
					pick = id
					break
				}
			}
			shared.nominee = pick
			return pick
		},
		vote: func() bool {
			if shared.game.sabotageTrack >= shared.game.cfg.PromotionThreshold {
				return shared.nominee == shared.masterID
			}
			return true
		},
	}

	cfg := GameConfig{
		GameID:         "promotion-win",
		Opponents:      sameOpponents(opponent),
		SecurityTarget: 3,
		SabotageTarget: 4,
		Seed:           202,
		Deck:           NewDeckFromCards(cardsOf(CardSabotage, 12), rand.New(rand.NewSource(202))),
	}

	in := make(chan protocol.ModelOutput, 1)
	out := make(chan protocol.ModelInput, 1)
	g, err := NewGame(cfg, in, out)
	require.NoError(t, err)

	shared.game = g
	for id, agent := range g.agents {
		if agent.Role == RoleMasterImpostor {
			shared.masterID = id
		}
	}
	require.NotEmpty(t, shared.masterID)

	require.NoError(t, g.Run(context.Background()))
	terminal := <-out
	ts := terminal.TerminalState
	require.NotNil(t, ts)

	require.NotNil(t, ts.WinningTeam)
	assert.Equal(t, protocol.TeamImpostor, *ts.WinningTeam)
	assert.Len(t, ts.Winners, 2)
	assert.True(t, g.promoted())
	assert.Less(t, g.sabotageTrack, g.cfg.SabotageTarget)
	assert.Equal(t, shared.masterID, g.firstMateID)
}

func TestTripleFailAutoResolve(t *testing.T) {
	opponent := &scriptedOpponent{
		vote: func() bool { return false },
	}

	cfg := GameConfig{
		GameID:         "triple-fail",
		Opponents:      sameOpponents(opponent),
		SecurityTarget: 1,
		Seed:           303,
		Deck:           NewDeckFromCards([]Card{CardSecurity}, rand.New(rand.NewSource(303))),
	}

	g, terminal := runGameToTerminal(t, cfg)
	ts := terminal.TerminalState

	require.NotNil(t, ts.WinningTeam)
	assert.Equal(t, protocol.TeamCrewmate, *ts.WinningTeam)
	assert.Equal(t, 0, g.failedVotes)
	assert.Equal(t, 3, g.captainIdx)

	var autoResolved int
	for _, e := range g.events.public {
		if pr, ok := e.(*PolicyResolved); ok {
			assert.Empty(t, pr.Actor)
			autoResolved++
		}
	}
	assert.Equal(t, 1, autoResolved)

	// Failed votes never reach the legislative session, so no private card
	// events exist for anyone.
	for _, aid := range g.agentIDs {
		for _, e := range g.events.SnapshotFor(aid) {
			switch e.(type) {
			case *CaptainCardDraw, *FirstMateCardReceive:
				t.Fatalf("unexpected private card event for %s", aid)
			}
		}
	}
}

func TestDiscourseOrdering(t *testing.T) {
	statement := func(s string) *string { return &s }

	seats := make([]Opponent, NumPlayers)
	for i := 0; i < NumPlayers; i++ {
		o := &scriptedOpponent{vote: func() bool { return false }}
		switch i {
		case 0:
			o.speak = func() (*string, *string) { return statement("I trust nobody yet"), nil }
		case 1:
			o.speak = func() (*string, *string) { return statement("the deck is stacked"), nil }
		case 2:
			target := "agent_3"
			o.speak = func() (*string, *string) { return statement("what is your role?"), &target }
		}
		seats[i] = o
	}

	cfg := GameConfig{
		GameID:         "discourse-ordering",
		Opponents:      seats,
		SecurityTarget: 1,
		Seed:           404,
		Deck:           NewDeckFromCards([]Card{CardSecurity}, rand.New(rand.NewSource(404))),
	}

	g, _ := runGameToTerminal(t, cfg)

	// Inspect the first discourse phase: everything between the first
	// nomination and the first vote.
	var phase []Event
	for _, e := range g.events.public {
		if _, ok := e.(*VoteCast); ok {
			break
		}
		phase = append(phase, e)
	}

	var spoke []string
	for i, e := range phase {
		s, ok := e.(*Speech)
		if !ok {
			continue
		}
		spoke = append(spoke, s.AgentID)

		if s.DirectedTo != "" {
			require.Less(t, i+1, len(phase), "directed question must be answered within the phase")
			answer, ok := phase[i+1].(*DirectedAnswer)
			require.True(t, ok, "directed question must be immediately followed by its answer")
			assert.Equal(t, s.DirectedTo, answer.AgentID)
			assert.Equal(t, s.AgentID, answer.InResponseTo)
			assert.Equal(t, s.Order()+1, answer.Order())
		}
	}

	assert.ElementsMatch(t, []string{"agent_0", "agent_1", "agent_2"}, spoke)
}

func TestWinDeterminism(t *testing.T) {
	run := func() *protocol.TerminalState {
		cfg := GameConfig{
			GameID:    "determinism",
			Opponents: sameOpponents(&scriptedOpponent{}),
			Seed:      777,
		}
		_, terminal := runGameToTerminal(t, cfg)
		return terminal.TerminalState
	}

	first := run()
	second := run()

	assert.Equal(t, first.Winners, second.Winners)
	assert.Equal(t, first.WinningTeam, second.WinningTeam)
	assert.Equal(t, first.Reward, second.Reward)
}

func TestOpponentFailureReturnsError(t *testing.T) {
	failing := &scriptedOpponent{}
	seats := sameOpponents(failing)
	seats[1] = failingOpponent{}

	cfg := GameConfig{
		GameID:    "opponent-down",
		Opponents: seats,
		Seed:      1,
	}

	in := make(chan protocol.ModelOutput, 1)
	out := make(chan protocol.ModelInput, 1)
	g, err := NewGame(cfg, in, out)
	require.NoError(t, err)

	err = g.Run(context.Background())
	require.Error(t, err)

	var unavailable *OpponentUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

type failingOpponent struct{}

func (failingOpponent) Decide(ctx context.Context, messages []protocol.Message, target *protocol.ToolCallTarget, eligibleIDs []string) (*Decision, error) {
	return nil, &OpponentUnavailableError{AgentID: "agent_1", Err: fmt.Errorf("backend down")}
}
