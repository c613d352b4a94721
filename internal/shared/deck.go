package shared

import (
	"math/rand/v2"
)

// Deck represents the undrawn cards. Cards[0] is the top of the deck.
type Deck struct {
	Cards []Card
}

// NewDeck creates the 40-card Briscola deck in suit-major order.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for s := Cups; s <= Swords; s++ {
		for r := Two; r <= Ace; r++ {
			cards = append(cards, Card{Suit: s, Rank: r})
		}
	}
	return &Deck{Cards: cards}
}

// Shuffle randomizes the order of cards in the deck using rng.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Len returns the number of cards left to draw.
func (d *Deck) Len() int { return len(d.Cards) }

// Draw takes the top card. ok is false when the deck is empty.
func (d *Deck) Draw() (Card, bool) {
	if len(d.Cards) == 0 {
		return Card{}, false
	}
	c := d.Cards[0]
	d.Cards = d.Cards[1:]
	return c, true
}

// Bottom returns the card that will be drawn last.
func (d *Deck) Bottom() (Card, bool) {
	if len(d.Cards) == 0 {
		return Card{}, false
	}
	return d.Cards[len(d.Cards)-1], true
}

// Deal gives cardsPerPlayer cards to each player, one player at a time.
// Returns nil if there are not enough cards.
func (d *Deck) Deal(numPlayers, cardsPerPlayer int) [][]Card {
	if len(d.Cards) < numPlayers*cardsPerPlayer {
		return nil
	}
	dealt := make([][]Card, numPlayers)
	for i := range dealt {
		hand := make([]Card, cardsPerPlayer)
		copy(hand, d.Cards[:cardsPerPlayer])
		d.Cards = d.Cards[cardsPerPlayer:]
		dealt[i] = hand
	}
	return dealt
}
