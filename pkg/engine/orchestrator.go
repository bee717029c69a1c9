// Package engine implements the game core: the deck, the event log, agent
// histories, the opponent adapter, and the per-game orchestrator that drives
// one game from setup to terminal state, suspending at every trainable-policy
// decision over a pair of channels.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/impostorlabs/arena/pkg/logger"
	"github.com/impostorlabs/arena/pkg/protocol"
	"github.com/impostorlabs/arena/pkg/tools"
)

// GameConfig parametrises one game.
type GameConfig struct {
	GameID string

	// Opponents has exactly NumPlayers entries; a nil entry marks the seat of
	// the trainable policy. At most one seat may be trainable.
	Opponents []Opponent

	SecurityTarget     int
	SabotageTarget     int
	PromotionThreshold int // 0 means SabotageTarget/2

	SecurityCards int
	SabotageCards int

	ImpostorOversampleProb float64

	// Seed makes role assignment, rotation, shuffles and speaker permutation
	// reproducible. 0 draws a seed from the clock.
	Seed int64

	// Deck overrides the generated deck; used by tests that need known draws.
	Deck *Deck
}

func (cfg *GameConfig) setDefaults() {
	if cfg.SecurityTarget == 0 {
		cfg.SecurityTarget = 3
	}
	if cfg.SabotageTarget == 0 {
		cfg.SabotageTarget = 4
	}
	if cfg.PromotionThreshold == 0 {
		cfg.PromotionThreshold = cfg.SabotageTarget / 2
	}
	if cfg.SecurityCards == 0 {
		cfg.SecurityCards = 11
	}
	if cfg.SabotageCards == 0 {
		cfg.SabotageCards = 6
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
}

func (cfg *GameConfig) validate() error {
	if cfg.GameID == "" {
		return fmt.Errorf("game_id is required")
	}
	if len(cfg.Opponents) != NumPlayers {
		return fmt.Errorf("expected %d seats, got %d", NumPlayers, len(cfg.Opponents))
	}
	trainable := 0
	for _, o := range cfg.Opponents {
		if o == nil {
			trainable++
		}
	}
	if trainable > 1 {
		return fmt.Errorf("at most one trainable seat is supported, got %d", trainable)
	}
	if cfg.SecurityCards < cfg.SecurityTarget || cfg.SabotageCards < cfg.SabotageTarget {
		return fmt.Errorf("deck composition cannot satisfy the track targets")
	}
	if cfg.ImpostorOversampleProb < 0 || cfg.ImpostorOversampleProb > 1 {
		return fmt.Errorf("impostor oversample probability must be in [0, 1]")
	}
	return nil
}

// Game owns all mutable state of one running game. Only the orchestrator
// goroutine touches it; opponent fan-out receives immutable history
// snapshots.
type Game struct {
	cfg GameConfig
	id  string
	log *slog.Logger
	rng *rand.Rand

	deck      *Deck
	agents    map[string]*Agent
	agentIDs  []string
	opponents map[string]Opponent
	policyID  string

	rotation    []string
	captainIdx  int
	firstMateID string

	securityTrack int
	sabotageTrack int
	failedVotes   int

	events    *EventLog
	histories map[string]*History
	lastSeen  map[string]int
	emDashes  map[string]int

	in  <-chan protocol.ModelOutput
	out chan<- protocol.ModelInput
}

// NewGame sets up roles, rotation, the deck, and every agent's history.
func NewGame(cfg GameConfig, in <-chan protocol.ModelOutput, out chan<- protocol.ModelInput) (*Game, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	g := &Game{
		cfg:       cfg,
		id:        cfg.GameID,
		log:       logger.GetLogger().With(slog.String("game", cfg.GameID)),
		rng:       rng,
		agents:    make(map[string]*Agent, NumPlayers),
		opponents: make(map[string]Opponent, NumPlayers),
		histories: make(map[string]*History, NumPlayers),
		lastSeen:  make(map[string]int, NumPlayers),
		emDashes:  make(map[string]int, NumPlayers),
		in:        in,
		out:       out,
	}

	trainableIdx := -1
	for i, o := range cfg.Opponents {
		if o == nil {
			trainableIdx = i
		}
	}

	roles := assignRoles(trainableIdx, cfg.ImpostorOversampleProb, rng)

	prompt := systemPrompt(
		NumPlayers,
		cfg.SecurityTarget, cfg.SabotageTarget, cfg.PromotionThreshold,
		cfg.SecurityCards, cfg.SabotageCards,
	)

	for i := 0; i < NumPlayers; i++ {
		id := fmt.Sprintf("agent_%d", i)
		g.agentIDs = append(g.agentIDs, id)
		g.agents[id] = &Agent{
			ID:        id,
			Role:      roles[i],
			Trainable: i == trainableIdx,
		}
		if i == trainableIdx {
			g.policyID = id
		} else {
			g.opponents[id] = cfg.Opponents[i]
		}

		g.histories[id] = &History{}
		g.histories[id].Append(UserInput{Role: protocol.RoleSystem, Message: prompt})
		g.lastSeen[id] = -1
	}

	g.rotation = append([]string(nil), g.agentIDs...)
	rng.Shuffle(len(g.rotation), func(i, j int) {
		g.rotation[i], g.rotation[j] = g.rotation[j], g.rotation[i]
	})

	g.deck = cfg.Deck
	if g.deck == nil {
		g.deck = NewDeck(cfg.SecurityCards, cfg.SabotageCards, rng)
	}
	g.events = NewEventLog(g.agentIDs)

	g.log.Info("game initialized",
		slog.String("trainable", g.policyID),
		slog.Int64("seed", cfg.Seed),
	)
	return g, nil
}

func (g *Game) GameID() string { return g.id }

// TrainableAgentID returns the trainable seat's ID, or "" if every seat is an
// opponent.
func (g *Game) TrainableAgentID() string { return g.policyID }

// TrainableRole returns the trainable seat's role, or "" without one.
func (g *Game) TrainableRole() Role {
	if g.policyID == "" {
		return ""
	}
	return g.agents[g.policyID].Role
}

// Run drives the round loop to a terminal state and pushes the final
// ModelInput. An error return means no terminal was emitted; the caller is
// responsible for converting it into a synthetic terminal.
func (g *Game) Run(ctx context.Context) error {
	for !g.gameOver() {
		captainID := g.rotation[g.captainIdx]

		eligible := exclude(g.agentIDs, captainID, g.firstMateID)
		inv, err := g.decide(ctx, captainID, "Nominate a First Mate.", tools.PickFirstMate, eligible)
		if err != nil {
			return err
		}
		nomineeID := inv.(*tools.PickFirstMateArgs).AgentID
		g.events.AppendPublic(&NominationProposed{CaptainID: captainID, FirstMateID: nomineeID})

		if err := g.discourse(ctx); err != nil {
			return err
		}

		passed, err := g.vote(ctx, nomineeID)
		if err != nil {
			return err
		}
		if !passed {
			g.failedVotes++
			if g.failedVotes >= 3 {
				g.autoResolve()
			}
			g.advanceCaptain()
			continue
		}

		g.failedVotes = 0
		g.firstMateID = nomineeID

		// The promotion win fires the moment the pair is seated; the
		// legislative session never runs for a decided game.
		if g.gameOver() {
			break
		}

		if err := g.legislativeSession(ctx, captainID, nomineeID); err != nil {
			return err
		}
		if g.gameOver() {
			break
		}

		if err := g.discourse(ctx); err != nil {
			return err
		}
		g.advanceCaptain()
	}

	return g.emitTerminal(ctx)
}

func (g *Game) advanceCaptain() {
	g.captainIdx = (g.captainIdx + 1) % len(g.rotation)
}

// pendingDecision is one agent's prepared decision: history updated, schema
// built, messages rendered. Phases prepare all seats before any opponent I/O
// starts, so concurrent deciders share the phase-start snapshot.
type pendingDecision struct {
	agentID  string
	toolName string
	eligible []string
	target   *protocol.ToolCallTarget
	messages []protocol.Message
}

func (g *Game) prepare(agentID, actionPrompt, toolName string, eligible []string) (*pendingDecision, error) {
	g.foldEvents(agentID)
	g.histories[agentID].Append(UserInput{
		Role:    protocol.RoleUser,
		Message: g.gameStateBlock(agentID) + "\n\n=== ACTION REQUIRED ===\n" + actionPrompt,
	})

	target, err := tools.Build(toolName, eligible)
	if err != nil {
		return nil, err
	}

	return &pendingDecision{
		agentID:  agentID,
		toolName: toolName,
		eligible: eligible,
		target:   target,
		messages: g.histories[agentID].Render(),
	}, nil
}

// foldEvents appends every event the agent has not yet observed to its
// history.
func (g *Game) foldEvents(agentID string) {
	events := g.events.Since(agentID, g.lastSeen[agentID])
	for _, e := range events {
		g.histories[agentID].Append(UserInput{Role: protocol.RoleUser, Message: e.Describe()})
	}
	if len(events) > 0 {
		g.lastSeen[agentID] = events[len(events)-1].Order()
	}
}

// decide runs a single serial decision for one agent.
func (g *Game) decide(ctx context.Context, agentID, actionPrompt, toolName string, eligible []string) (tools.Invocation, error) {
	if _, ok := g.agents[agentID]; !ok {
		return nil, &AgentNotFoundError{GameID: g.id, AgentID: agentID}
	}

	p, err := g.prepare(agentID, actionPrompt, toolName, eligible)
	if err != nil {
		return nil, err
	}

	if agentID == g.policyID {
		return g.decidePolicy(ctx, p)
	}

	dec, err := g.opponents[agentID].Decide(ctx, p.messages, p.target, p.eligible)
	if err != nil {
		return nil, err
	}
	return g.commitOpponent(p.agentID, dec), nil
}

// decidePolicy suspends on the channel pair: push one ModelInput, await one
// ModelOutput.
func (g *Game) decidePolicy(ctx context.Context, p *pendingDecision) (tools.Invocation, error) {
	input := protocol.ModelInput{
		Messages: p.messages,
		ToolCall: p.target,
		GameID:   g.id,
	}

	select {
	case g.out <- input:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var output protocol.ModelOutput
	select {
	case output = <-g.in:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	resp, err := ParseModelOutput(output, p.target, p.eligible)
	if err != nil {
		return nil, err
	}

	g.commit(p.agentID, resp, "policy")
	return resp.Invocation, nil
}

func (g *Game) commitOpponent(agentID string, dec *Decision) tools.Invocation {
	metricOpponentTokens.Add(float64(dec.Tokens))
	g.commit(agentID, &AssistantResponse{
		Text:       dec.Text,
		ToolCalls:  []protocol.ToolCall{dec.Call},
		Invocation: dec.Invocation,
	}, "opponent")
	return dec.Invocation
}

// commit appends the response and the "OK" tool acknowledgements to the
// agent's history.
func (g *Game) commit(agentID string, resp *AssistantResponse, decider string) {
	g.histories[agentID].Append(*resp)

	results := make([]protocol.ToolResult, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		results = append(results, protocol.ToolResult{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Output:     "OK",
		})
	}
	g.histories[agentID].Append(ToolFeedback{Results: results})

	metricDecisions.WithLabelValues(resp.Invocation.ToolName(), decider).Inc()
}

// fanOut asks every agent the same decision. Opponents run concurrently
// against the phase-start snapshot; the trainable policy is queried serially
// outside the group because a second concurrent suspension on the channel
// pair would deadlock. Results come back in stable agent order.
func (g *Game) fanOut(ctx context.Context, toolName, actionPrompt string, eligibleFor func(agentID string) []string) ([]tools.Invocation, error) {
	pending := make([]*pendingDecision, len(g.agentIDs))
	for i, aid := range g.agentIDs {
		p, err := g.prepare(aid, actionPrompt, toolName, eligibleFor(aid))
		if err != nil {
			return nil, err
		}
		pending[i] = p
	}

	decisions := make([]*Decision, len(pending))
	grp, gctx := errgroup.WithContext(ctx)
	for i, p := range pending {
		if p.agentID == g.policyID {
			continue
		}
		i, p := i, p
		grp.Go(func() error {
			dec, err := g.opponents[p.agentID].Decide(gctx, p.messages, p.target, p.eligible)
			if err != nil {
				return err
			}
			decisions[i] = dec
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	invocations := make([]tools.Invocation, len(pending))
	for i, p := range pending {
		if p.agentID == g.policyID {
			inv, err := g.decidePolicy(ctx, p)
			if err != nil {
				return nil, err
			}
			invocations[i] = inv
			continue
		}
		invocations[i] = g.commitOpponent(p.agentID, decisions[i])
	}
	return invocations, nil
}

func (g *Game) vote(ctx context.Context, nomineeID string) (bool, error) {
	prompt := fmt.Sprintf("Vote on First Mate nominee %s. True approves the pair, false rejects it.", nomineeID)
	invocations, err := g.fanOut(ctx, tools.VoteYesNo, prompt, func(string) []string { return nil })
	if err != nil {
		return false, err
	}

	yes := 0
	for i, inv := range invocations {
		v := inv.(*tools.VoteYesNoArgs)
		if v.Choice {
			yes++
		}
		g.events.AppendPublic(&VoteCast{
			VoterID:   g.agentIDs[i],
			NomineeID: nomineeID,
			Vote:      v.Choice,
		})
	}
	return yes > len(invocations)/2, nil
}

func (g *Game) discourse(ctx context.Context) error {
	invocations, err := g.fanOut(ctx, tools.AskSpeak,
		"Do you want to speak? Provide a question or statement, or null to stay silent.",
		func(aid string) []string { return exclude(g.agentIDs, aid, "") },
	)
	if err != nil {
		return err
	}

	type speaker struct {
		agentID string
		args    *tools.AskSpeakArgs
	}
	var speakers []speaker
	for i, inv := range invocations {
		args := inv.(*tools.AskSpeakArgs)
		if args.QuestionOrStatement != nil && *args.QuestionOrStatement != "" {
			speakers = append(speakers, speaker{g.agentIDs[i], args})
		}
	}

	g.rng.Shuffle(len(speakers), func(i, j int) {
		speakers[i], speakers[j] = speakers[j], speakers[i]
	})

	for _, s := range speakers {
		statement := *s.args.QuestionOrStatement
		directed := ""
		if s.args.AskDirectedQuestionToAgentID != nil {
			directed = *s.args.AskDirectedQuestionToAgentID
		}

		g.events.AppendPublic(&Speech{
			AgentID:    s.agentID,
			Statement:  statement,
			DirectedTo: directed,
		})
		g.trackEmDashes(s.agentID, statement)

		if directed == "" {
			continue
		}

		prompt := fmt.Sprintf("%s asked you: %s\nRespond.", s.agentID, statement)
		inv, err := g.decide(ctx, directed, prompt, tools.AnswerDirectedQuestion, nil)
		if err != nil {
			return err
		}
		answer := inv.(*tools.AnswerDirectedQuestionArgs)
		g.events.AppendPublic(&DirectedAnswer{
			AgentID:      directed,
			InResponseTo: s.agentID,
			Response:     answer.Response,
		})
		g.trackEmDashes(directed, answer.Response)
	}
	return nil
}

func (g *Game) legislativeSession(ctx context.Context, captainID, firstMateID string) error {
	drawn, err := g.deck.Draw(3)
	if err != nil {
		panic(err)
	}

	prompt := fmt.Sprintf("You drew %s. Choose the index (0-2) of the card to discard.", joinCards(drawn))
	inv, err := g.decide(ctx, captainID, prompt, tools.CaptainDiscardCard, nil)
	if err != nil {
		return err
	}
	discardIdx := inv.(*tools.CaptainDiscardCardArgs).CardIndex
	discarded := drawn[discardIdx]
	g.deck.AddToDiscard(discarded)

	passed := make([]Card, 0, 2)
	for i, c := range drawn {
		if i != discardIdx {
			passed = append(passed, c)
		}
	}
	g.events.AppendPrivate(captainID, &CaptainCardDraw{
		CaptainID: captainID,
		Drawn:     drawn,
		Discarded: discarded,
	})

	prompt = fmt.Sprintf("Captain %s passed you %s. Choose the index (0-1) of the card to play.", captainID, joinCards(passed))
	inv, err = g.decide(ctx, firstMateID, prompt, tools.FirstMatePlayCard, nil)
	if err != nil {
		return err
	}
	playIdx := inv.(*tools.FirstMatePlayCardArgs).CardIndex
	played := passed[playIdx]
	unplayed := passed[1-playIdx]
	g.deck.AddToDiscard(unplayed)

	g.events.AppendPrivate(firstMateID, &FirstMateCardReceive{
		FirstMateID: firstMateID,
		FromCaptain: captainID,
		Received:    passed,
		Discarded:   unplayed,
	})
	g.events.AppendPublic(&PolicyResolved{Actor: firstMateID, Card: played})
	g.resolve(played)
	return nil
}

// autoResolve handles the third consecutive failed vote: the top card of the
// deck resolves with no actor and the tracker resets.
func (g *Game) autoResolve() {
	top, err := g.deck.Draw(1)
	if err != nil {
		panic(err)
	}
	g.events.AppendPublic(&PolicyResolved{Card: top[0]})
	g.resolve(top[0])
	g.failedVotes = 0
}

func (g *Game) resolve(c Card) {
	if c == CardSabotage {
		g.sabotageTrack++
	} else {
		g.securityTrack++
	}
}

func (g *Game) gameOver() bool {
	return g.securityTrack >= g.cfg.SecurityTarget ||
		g.sabotageTrack >= g.cfg.SabotageTarget ||
		g.promoted()
}

// promoted reports the impostor promotion win: the Master Impostor seated as
// First Mate at or past the sabotage threshold.
func (g *Game) promoted() bool {
	if g.firstMateID == "" || g.sabotageTrack < g.cfg.PromotionThreshold {
		return false
	}
	return g.agents[g.firstMateID].Role == RoleMasterImpostor
}

// winners returns the whole winning team in stable agent order.
func (g *Game) winners() ([]string, string) {
	impostorsWin := g.sabotageTrack >= g.cfg.SabotageTarget || g.promoted()

	var ids []string
	for _, aid := range g.agentIDs {
		role := g.agents[aid].Role
		if impostorsWin && role != RoleCrewmate {
			ids = append(ids, aid)
		}
		if !impostorsWin && role == RoleCrewmate {
			ids = append(ids, aid)
		}
	}

	team := protocol.TeamCrewmate
	if impostorsWin {
		team = protocol.TeamImpostor
	}
	return ids, team
}

func (g *Game) terminalState() *protocol.TerminalState {
	winnerIDs, team := g.winners()

	reward := 0.0
	if g.policyID != "" {
		for _, id := range winnerIDs {
			if id == g.policyID {
				reward = 1.0
				break
			}
		}
	}

	emDashes := make(map[string]any, len(g.emDashes))
	for aid, n := range g.emDashes {
		emDashes[aid] = n
	}

	return &protocol.TerminalState{
		GameID:           g.id,
		Winners:          winnerIDs,
		WinningTeam:      &team,
		Reward:           reward,
		TrainableAgentID: g.policyID,
		Metadata: map[string]any{
			"em_dash_counts": emDashes,
			"rounds_events":  g.events.Counter(),
		},
	}
}

func (g *Game) emitTerminal(ctx context.Context) error {
	var messages []protocol.Message
	if g.policyID != "" {
		g.foldEvents(g.policyID)
		messages = g.histories[g.policyID].Render()
	}

	terminal := g.terminalState()
	g.log.Info("game over",
		slog.String("winning_team", *terminal.WinningTeam),
		slog.Float64("reward", terminal.Reward),
	)

	input := protocol.ModelInput{
		Messages:      messages,
		TerminalState: terminal,
		GameID:        g.id,
	}
	select {
	case g.out <- input:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// trackEmDashes counts U+2014 occurrences in speech, a crude tell for
// LLM-generated prose surfaced in terminal metadata.
func (g *Game) trackEmDashes(agentID, text string) {
	if n := strings.Count(text, "—"); n > 0 {
		g.emDashes[agentID] += n
	}
}

func exclude(ids []string, skip ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		skipped := false
		for _, s := range skip {
			if s != "" && id == s {
				skipped = true
				break
			}
		}
		if !skipped {
			out = append(out, id)
		}
	}
	return out
}
