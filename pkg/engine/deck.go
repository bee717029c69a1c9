package engine

import "math/rand"

// Card is one protocol card. Security cards advance the crewmate track,
// sabotage cards the impostor track.
type Card string

const (
	CardSecurity Card = "security"
	CardSabotage Card = "sabotage"
)

// Deck is the draw pile plus discard pile of protocol cards. The RNG is
// game-local so that a seeded game shuffles reproducibly.
type Deck struct {
	rng     *rand.Rand
	draw    []Card
	discard []Card

	totalSecurity int
	totalSabotage int
}

// NewDeck builds and shuffles a deck with the given composition.
func NewDeck(securityCards, sabotageCards int, rng *rand.Rand) *Deck {
	cards := make([]Card, 0, securityCards+sabotageCards)
	for i := 0; i < securityCards; i++ {
		cards = append(cards, CardSecurity)
	}
	for i := 0; i < sabotageCards; i++ {
		cards = append(cards, CardSabotage)
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return &Deck{
		rng:           rng,
		draw:          cards,
		totalSecurity: securityCards,
		totalSabotage: sabotageCards,
	}
}

// NewDeckFromCards builds an unshuffled deck that draws the given cards in
// order. Reshuffles still use the RNG.
func NewDeckFromCards(cards []Card, rng *rand.Rand) *Deck {
	d := &Deck{
		rng:  rng,
		draw: append([]Card(nil), cards...),
	}
	for _, c := range cards {
		if c == CardSecurity {
			d.totalSecurity++
		} else {
			d.totalSabotage++
		}
	}
	return d
}

// Draw removes and returns the top n cards. If the draw pile holds fewer than
// n, the discard pile is shuffled back in first.
func (d *Deck) Draw(n int) ([]Card, error) {
	if len(d.draw) < n && len(d.discard) > 0 {
		d.rng.Shuffle(len(d.discard), func(i, j int) {
			d.discard[i], d.discard[j] = d.discard[j], d.discard[i]
		})
		d.draw = append(d.draw, d.discard...)
		d.discard = nil
	}

	if len(d.draw) < n {
		return nil, &DeckExhaustedError{Requested: n, Available: len(d.draw)}
	}

	drawn := append([]Card(nil), d.draw[:n]...)
	d.draw = d.draw[n:]
	return drawn, nil
}

func (d *Deck) AddToDiscard(c Card) {
	d.discard = append(d.discard, c)
}

// Remaining returns the size of the draw pile.
func (d *Deck) Remaining() int { return len(d.draw) }

// DiscardCount returns the size of the discard pile.
func (d *Deck) DiscardCount() int { return len(d.discard) }

// Size returns the total number of cards the deck was built with.
func (d *Deck) Size() int { return d.totalSecurity + d.totalSabotage }

func (d *Deck) TotalSecurity() int { return d.totalSecurity }
func (d *Deck) TotalSabotage() int { return d.totalSabotage }
