package shared

// Side identifies which of the two cards in a trick takes it.
type Side int

const (
	First  Side = 0
	Second Side = 1
)

// Compare decides a two-card trick. A card of the same suit wins on trick
// rank, a lone trump wins outright, and when the suits differ with no trump
// the first card played keeps the trick.
func Compare(first, second Card, trump Suit) Side {
	if first.Suit == second.Suit {
		if second.Rank > first.Rank {
			return Second
		}
		return First
	}
	if second.Suit == trump {
		return Second
	}
	return First
}

// PlayedCard stores a card along with the index of the player who played it.
type PlayedCard struct {
	Card        Card `json:"card"`
	PlayerIndex int  `json:"player_index"`
}

// Trick holds the cards laid down in the current exchange.
type Trick struct {
	Cards []PlayedCard
}

// NewTrick creates an empty trick.
func NewTrick() *Trick {
	return &Trick{Cards: make([]PlayedCard, 0, 2)}
}

// AddCard adds a card and the player's index to the trick.
func (t *Trick) AddCard(card Card, playerIndex int) {
	t.Cards = append(t.Cards, PlayedCard{Card: card, PlayerIndex: playerIndex})
}

// Len returns how many cards have been laid.
func (t *Trick) Len() int { return len(t.Cards) }

// Complete reports whether both players have laid a card.
func (t *Trick) Complete() bool { return len(t.Cards) == 2 }

// Winner returns the index of the player taking a complete trick, or -1 if
// the trick is not complete.
func (t *Trick) Winner(trump Suit) int {
	if !t.Complete() {
		return -1
	}
	side := Compare(t.Cards[0].Card, t.Cards[1].Card, trump)
	return t.Cards[side].PlayerIndex
}

// Points returns the total point value of the cards on the trick.
func (t *Trick) Points() int {
	total := 0
	for _, pc := range t.Cards {
		total += pc.Card.Points()
	}
	return total
}

// Played returns a copy of the cards in play order.
func (t *Trick) Played() []Card {
	out := make([]Card, len(t.Cards))
	for i, pc := range t.Cards {
		out[i] = pc.Card
	}
	return out
}
