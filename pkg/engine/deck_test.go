package engine

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckComposition(t *testing.T) {
	d := NewDeck(11, 6, rand.New(rand.NewSource(1)))

	assert.Equal(t, 17, d.Size())
	assert.Equal(t, 17, d.Remaining())
	assert.Equal(t, 11, d.TotalSecurity())
	assert.Equal(t, 6, d.TotalSabotage())

	drawn, err := d.Draw(17)
	require.NoError(t, err)

	security, sabotage := 0, 0
	for _, c := range drawn {
		if c == CardSecurity {
			security++
		} else {
			sabotage++
		}
	}
	assert.Equal(t, 11, security)
	assert.Equal(t, 6, sabotage)
}

func TestDeckFromCardsDrawsInOrder(t *testing.T) {
	d := NewDeckFromCards([]Card{CardSabotage, CardSecurity, CardSecurity}, rand.New(rand.NewSource(1)))

	drawn, err := d.Draw(3)
	require.NoError(t, err)
	assert.Equal(t, []Card{CardSabotage, CardSecurity, CardSecurity}, drawn)
	assert.Equal(t, 0, d.Remaining())
}

func TestDeckReshufflesDiscardWhenDrawPileShort(t *testing.T) {
	d := NewDeckFromCards([]Card{CardSecurity, CardSecurity}, rand.New(rand.NewSource(42)))

	first, err := d.Draw(2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	d.AddToDiscard(CardSabotage)
	d.AddToDiscard(CardSecurity)
	d.AddToDiscard(CardSecurity)
	require.Equal(t, 0, d.Remaining())
	require.Equal(t, 3, d.DiscardCount())

	drawn, err := d.Draw(3)
	require.NoError(t, err)
	assert.Len(t, drawn, 3)
	assert.Equal(t, 0, d.Remaining())
	assert.Equal(t, 0, d.DiscardCount())

	sabotage := 0
	for _, c := range drawn {
		if c == CardSabotage {
			sabotage++
		}
	}
	assert.Equal(t, 1, sabotage)
}

func TestDeckExhausted(t *testing.T) {
	d := NewDeckFromCards([]Card{CardSecurity}, rand.New(rand.NewSource(1)))

	_, err := d.Draw(3)
	require.Error(t, err)

	var exhausted *DeckExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Requested)
	assert.Equal(t, 1, exhausted.Available)
}

// Deck conservation: cards only move between the draw pile, the discard pile
// and the resolved tracks; the total never changes.
func TestDeckConservationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("draw+discard+resolved is constant", prop.ForAll(
		func(seed int64, ops []bool) bool {
			d := NewDeck(11, 6, rand.New(rand.NewSource(seed)))
			size := d.Size()
			resolved := 0

			for _, discardIt := range ops {
				drawn, err := d.Draw(1)
				if err != nil {
					// Every card resolved; nothing left to move.
					return resolved+d.Remaining()+d.DiscardCount() == size
				}
				if discardIt {
					d.AddToDiscard(drawn[0])
				} else {
					resolved++
				}
				if d.Remaining()+d.DiscardCount()+resolved != size {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
