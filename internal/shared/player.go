package shared

// HandSize is the number of cards a player holds while the deck lasts.
const HandSize = 3

// Player represents one of the two seats at the table.
type Player struct {
	ID   string // Unique identifier for the player (client ID for remote seats)
	Name string
	Hand []Card // Cards currently held by the player
	Pile []Card // Cards taken in won tricks
}

// NewPlayer creates a new player with the given ID and name.
func NewPlayer(id string, name string) *Player {
	return &Player{
		ID:   id,
		Name: name,
		Hand: make([]Card, 0, HandSize),
		Pile: []Card{},
	}
}

// Clear empties hand and pile for a new hand of play.
func (p *Player) Clear() {
	p.Hand = p.Hand[:0]
	p.Pile = p.Pile[:0]
}

// AddCard adds a card to the player's hand.
func (p *Player) AddCard(card Card) {
	p.Hand = append(p.Hand, card)
}

// PlayAt removes and returns the card at index i. ok is false if i is out of
// range.
func (p *Player) PlayAt(i int) (Card, bool) {
	if i < 0 || i >= len(p.Hand) {
		return Card{}, false
	}
	card := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return card, true
}

// RemoveCard removes a card from the player's hand.
func (p *Player) RemoveCard(card Card) bool {
	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// HasCard reports whether card is in the player's hand.
func (p *Player) HasCard(card Card) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

// Take moves the cards of a won trick onto the player's pile.
func (p *Player) Take(cards ...Card) {
	p.Pile = append(p.Pile, cards...)
}

// PilePoints returns the points of all cards the player has taken.
func (p *Player) PilePoints() int { return SumPoints(p.Pile) }
