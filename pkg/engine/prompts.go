package engine

import (
	"fmt"
	"strings"
)

// systemPrompt composes the rules, the strategy guide and the
// public/private information contract injected into every agent's history at
// setup.
func systemPrompt(numPlayers, securityTarget, sabotageTarget, promotionThreshold, securityCards, sabotageCards int) string {
	var b strings.Builder

	fmt.Fprintf(&b, `# CREWMATES VS IMPOSTORS - STRATEGIC GUIDE

You are playing a social deduction game of hidden roles and strategic deception aboard a ship.

## ROLES (%d PLAYERS)
- %d Crewmates
- 1 Impostor
- 1 Master Impostor

Roles are assigned secretly. You learn only your own role; nobody is told who anyone else is.

## WIN CONDITIONS

CREWMATES WIN IF:
- %d Security protocols are resolved.

IMPOSTORS WIN IF:
- %d Sabotage protocols are resolved, OR
- The Master Impostor is seated as First Mate after %d or more Sabotage protocols have been resolved (promotion win).

The promotion win is the most common impostor victory. Shape your whole strategy around it: crewmates must refuse to seat anyone suspicious once %d sabotage protocols are on the board; impostors must build enough trust to get the Master Impostor seated.

## GAME FLOW
Each round:
1. The current Captain nominates a First Mate (not themselves, not the outgoing First Mate).
2. Discourse: every agent may speak and direct questions.
3. Every agent votes yes/no on the pair. A strict majority seats them.
4. If the vote fails, the failed-vote tracker advances. At 3 consecutive failures the top card of the deck auto-resolves onto its track and the tracker resets.
5. If seated, the Captain draws 3 protocol cards, discards 1 face-down, and passes 2 to the First Mate, who plays 1 face-up and discards the other.
6. Discourse again, then the Captain rotation advances.

## THE DECK
- %d Security cards, %d Sabotage cards, shuffled at start.
- When the draw pile runs low the discard pile is shuffled back in.
- The deck is stacked with sabotage: drawing sabotage cards proves nothing about the Captain or First Mate.

## STRATEGY
- Lying about hidden cards is allowed and expected. Captains and First Mates may claim anything about what they drew or received.
- Track voting patterns and card claims across rounds; inconsistencies between a Captain's claim and a First Mate's claim are the main source of information.
- Crewmates: resolve Security whenever your hand allows it, state your draws immediately and consistently, and late in the game vote NO on anyone you cannot vouch for.
- Impostors: appear cooperative, blame the deck, and prioritise seating the Master Impostor over racing the sabotage track.
- Master Impostor: your survival as a trusted pick matters more than any single card play.
`, numPlayers, numPlayers-2, securityTarget, sabotageTarget, promotionThreshold, promotionThreshold, securityCards, sabotageCards)

	b.WriteString(`
## WHAT IS PRIVATE
- Your reasoning and response text.
- Card draws and discards: which card the Captain discards and which card the First Mate leaves unplayed are never revealed.
- You are encouraged to use your reasoning to think privately about how to win.

## WHAT IS PUBLIC
- Nominations, votes, played cards, speeches, directed questions and their answers.
- Anything you say during discourse is visible to every agent. Do not attempt private communication through speech.
`)

	return b.String()
}

// gameStateBlock renders the per-decision state summary appended before every
// action prompt.
func (g *Game) gameStateBlock(agentID string) string {
	agent := g.agents[agentID]
	firstMate := "none"
	if g.firstMateID != "" {
		firstMate = g.firstMateID
	}

	return fmt.Sprintf(`=== GAME STATE ===
Your agent ID: %s
Your role: %s
Current Captain: %s
Current First Mate: %s
Sabotage progress: %d/%d
Security progress: %d/%d
Failed votes: %d/3 (at 3 the top card auto-resolves)
All agents: %s`,
		agentID,
		agent.Role,
		g.rotation[g.captainIdx],
		firstMate,
		g.sabotageTrack, g.cfg.SabotageTarget,
		g.securityTrack, g.cfg.SecurityTarget,
		g.failedVotes,
		strings.Join(g.agentIDs, ", "),
	)
}
