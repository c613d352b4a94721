package game

import "briscola-env/internal/shared"

// Observation is the view of the table from one seat. It carries the seat's
// own hand and public information only; the opponent's hand is never part
// of it.
type Observation struct {
	Player        int                           `json:"player"`
	ActivePlayer  int                           `json:"active_player"`
	Hand          [shared.HandSize]*shared.Card `json:"hand"`
	Table         [2]*shared.Card               `json:"table"`
	Trump         shared.Suit                   `json:"trump"`
	TrumpCard     *shared.Card                  `json:"trump_card,omitempty"`
	Scores        [2]int                        `json:"scores"`
	DeckRemaining int                           `json:"deck_remaining"`
	Tricks        int                           `json:"tricks"`
}

// HandLen returns the number of cards the observing player holds.
func (o Observation) HandLen() int {
	n := 0
	for _, c := range o.Hand {
		if c != nil {
			n++
		}
	}
	return n
}

// HeldCards returns the non-empty hand slots in order.
func (o Observation) HeldCards() []shared.Card {
	out := make([]shared.Card, 0, shared.HandSize)
	for _, c := range o.Hand {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Leading reports whether the observing player would open the trick.
func (o Observation) Leading() bool { return o.Table[0] == nil }

// EncodedObservation is the flat integer form of an Observation. Empty slots
// hold shared.NoCard.
type EncodedObservation struct {
	Hand           [shared.HandSize]int `json:"hand"`
	Played         [2]int               `json:"played"`
	Briscola       int                  `json:"briscola"`
	Scores         [2]int               `json:"scores"`
	RemainingCards int                  `json:"remaining_cards"`
}

// Encode converts the observation to its integer form.
func (o Observation) Encode() EncodedObservation {
	var e EncodedObservation
	for i, c := range o.Hand {
		e.Hand[i] = shared.EncodeCard(c)
	}
	for i, c := range o.Table {
		e.Played[i] = shared.EncodeCard(c)
	}
	e.Briscola = int(o.Trump)
	e.Scores = o.Scores
	e.RemainingCards = o.DeckRemaining
	return e
}

// Info is the auxiliary payload of a step. It is empty in normal play.
type Info map[string]string

const (
	InfoError = "error"

	ErrEmptyHand   = "empty hand"
	ErrEpisodeOver = "episode over"
)

// TrickResult describes a resolved trick.
type TrickResult struct {
	Number int                 `json:"number"`
	Cards  []shared.PlayedCard `json:"cards"`
	Winner int                 `json:"winner"`
	Points int                 `json:"points"`
}

// StepResult is everything Step returns.
type StepResult struct {
	Observation Observation
	Reward      int
	Done        bool
	Info        Info
	// Played is the card laid by this step, nil for a no-op step.
	Played *shared.PlayedCard
	// Trick is set when this step resolved a trick.
	Trick *TrickResult
}
