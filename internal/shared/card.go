package shared

import (
	"fmt"
	"strings"
)

// Suit represents the suit of a card (Coppe, Denari, Bastoni, Spade).
type Suit int

const (
	Cups   Suit = iota // Coppe
	Coins              // Denari
	Clubs              // Bastoni
	Swords             // Spade
)

// NumSuits is the number of suits in the Italian deck.
const NumSuits = 4

var suitLetters = [NumSuits]byte{'C', 'D', 'B', 'S'}

var suitNames = [NumSuits]string{"Cups", "Coins", "Clubs", "Swords"}

func (s Suit) Valid() bool { return s >= Cups && s <= Swords }

func (s Suit) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Letter returns the one-letter code used in card strings.
func (s Suit) Letter() byte {
	if !s.Valid() {
		return '?'
	}
	return suitLetters[s]
}

// Rank is declared in trick-rank order: a higher Rank takes a lower one of
// the same suit.
type Rank int

const (
	Two Rank = iota
	Four
	Five
	Six
	Seven
	Jack
	Queen
	King
	Three
	Ace
)

// NumRanks is the number of ranks per suit.
const NumRanks = 10

var rankSymbols = [NumRanks]string{"2", "4", "5", "6", "7", "J", "Q", "K", "3", "A"}

func (r Rank) Valid() bool { return r >= Two && r <= Ace }

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankSymbols[r]
}

// Points returns the score a card of this rank is worth once its trick is won.
func (r Rank) Points() int {
	switch r {
	case Ace:
		return 11
	case Three:
		return 10
	case King:
		return 4
	case Queen:
		return 3
	case Jack:
		return 2
	default:
		return 0
	}
}

// DeckSize is the number of cards in a Briscola deck.
const DeckSize = NumSuits * NumRanks

// TotalPoints is the sum of the point values of every card in the deck.
const TotalPoints = 120

// NoCard is the integer identity used for an empty slot.
const NoCard = DeckSize

// Card represents a single card in the Briscola deck.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// ID returns the stable identity of the card in 0..39.
func (c Card) ID() int {
	return int(c.Rank) + NumRanks*int(c.Suit)
}

// Points returns the card's point value.
func (c Card) Points() int { return c.Rank.Points() }

// String renders the card as rank symbol followed by suit letter, e.g. "AS".
func (c Card) String() string {
	return c.Rank.String() + string(c.Suit.Letter())
}

// CardFromID maps an identity back to its card. ok is false for the NoCard
// sentinel and anything else outside 0..39.
func CardFromID(id int) (Card, bool) {
	if id < 0 || id >= DeckSize {
		return Card{}, false
	}
	return Card{Suit: Suit(id / NumRanks), Rank: Rank(id % NumRanks)}, true
}

// ParseCard parses the form produced by Card.String.
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	var c Card
	found := false
	for i, sym := range rankSymbols {
		if sym[0] == s[0] {
			c.Rank = Rank(i)
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid rank in card %q", s)
	}
	found = false
	for i, l := range suitLetters {
		if l == s[1] {
			c.Suit = Suit(i)
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}
	return c, nil
}

// EncodeCard returns the card identity, or NoCard for a nil slot.
func EncodeCard(c *Card) int {
	if c == nil {
		return NoCard
	}
	return c.ID()
}

// SumPoints adds up the point values of cards.
func SumPoints(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Points()
	}
	return total
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid suit %d", int(s))
	}
	return []byte(suitNames[s]), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	for i, name := range suitNames {
		if strings.EqualFold(name, string(b)) || (len(b) == 1 && b[0] == suitLetters[i]) {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("invalid suit %q", b)
}

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(rankSymbols[r]), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	for i, sym := range rankSymbols {
		if strings.EqualFold(sym, string(b)) {
			*r = Rank(i)
			return nil
		}
	}
	return fmt.Errorf("invalid rank %q", b)
}
