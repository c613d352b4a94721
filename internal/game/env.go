package game

import (
	"math/rand/v2"

	"briscola-env/internal/shared"

	"go.uber.org/zap"
)

const (
	// DefaultTrickLimit is the number of tricks in a full hand: 40 cards, two per trick.
	DefaultTrickLimit = shared.DeckSize / 2

	// WinBonus is added to (or taken from) the final reward of a hand that
	// reaches the trick limit.
	WinBonus = 100
)

// Phase is the trick state of the engine.
type Phase string

const (
	AwaitingFirstCard  Phase = "AwaitingFirstCard"
	AwaitingSecondCard Phase = "AwaitingSecondCard"
	HandOver           Phase = "HandOver"
)

// Env is the Briscola engine for two players. Reset starts a hand and Step
// plays the active player's card. An Env is not safe for concurrent use.
type Env struct {
	log        *zap.Logger
	trickLimit int
	fixedSeed  *uint64

	seed      uint64
	rng       *rand.Rand
	deck      *shared.Deck
	players   [2]*shared.Player
	trump     shared.Suit
	trumpCard shared.Card
	trick     *shared.Trick
	scores    [2]int
	tricks    int
	active    int
	done      bool
}

// Option configures an Env.
type Option func(*Env)

// WithLogger sets the logger used for hand and trick events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Env) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTrickLimit ends the hand after n resolved tricks.
func WithTrickLimit(n int) Option {
	return func(e *Env) {
		if n > 0 {
			e.trickLimit = n
		}
	}
}

// WithSeed makes every Reset shuffle with the same seed.
func WithSeed(seed uint64) Option {
	return func(e *Env) { e.fixedSeed = &seed }
}

// WithPlayers seats the given players. Their hands and piles are owned by the
// engine from then on.
func WithPlayers(p0, p1 *shared.Player) Option {
	return func(e *Env) {
		if p0 != nil && p1 != nil {
			e.players = [2]*shared.Player{p0, p1}
		}
	}
}

// NewEnv creates an engine. Call Reset before Step.
func NewEnv(opts ...Option) *Env {
	e := &Env{
		log:        zap.NewNop(),
		trickLimit: DefaultTrickLimit,
		deck:       &shared.Deck{},
		players:    [2]*shared.Player{shared.NewPlayer("0", "player 0"), shared.NewPlayer("1", "player 1")},
		trick:      shared.NewTrick(),
		done:       true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset starts a new hand. Without WithSeed a fresh seed is drawn; Seed
// reports it afterwards.
func (e *Env) Reset() Observation {
	if e.fixedSeed != nil {
		return e.ResetWithSeed(*e.fixedSeed)
	}
	return e.ResetWithSeed(rand.Uint64())
}

// ResetWithSeed starts a new hand whose shuffle is determined by seed.
func (e *Env) ResetWithSeed(seed uint64) Observation {
	e.seed = seed
	e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	e.deck = shared.NewDeck()
	e.deck.Shuffle(e.rng)

	// The turned-up card stays at the bottom and is the last card drawn.
	e.trumpCard, _ = e.deck.Bottom()
	e.trump = e.trumpCard.Suit

	for _, p := range e.players {
		p.Clear()
	}
	for i, hand := range e.deck.Deal(len(e.players), shared.HandSize) {
		for _, c := range hand {
			e.players[i].AddCard(c)
		}
	}

	e.trick = shared.NewTrick()
	e.scores = [2]int{}
	e.tricks = 0
	e.active = 0
	e.done = false

	e.log.Debug("hand reset",
		zap.Uint64("seed", seed),
		zap.Stringer("trump_card", e.trumpCard),
		zap.Int("deck_remaining", e.deck.Len()))

	return e.ObservationFor(e.active)
}

// Step plays the card at index move from the active player's hand.
// An out-of-range move plays the first card instead.
func (e *Env) Step(move int) StepResult {
	player := e.players[e.active]

	if len(player.Hand) == 0 {
		e.log.Warn("step on empty hand", zap.Int("player", e.active))
		return StepResult{
			Observation: e.ObservationFor(e.active),
			Done:        true,
			Info:        Info{InfoError: ErrEmptyHand},
		}
	}
	if e.done {
		return StepResult{
			Observation: e.ObservationFor(e.active),
			Done:        true,
			Info:        Info{InfoError: ErrEpisodeOver},
		}
	}

	if move < 0 || move >= len(player.Hand) {
		e.log.Debug("move clamped", zap.Int("player", e.active), zap.Int("move", move), zap.Int("hand", len(player.Hand)))
		move = 0
	}
	card, _ := player.PlayAt(move)
	e.trick.AddCard(card, e.active)

	res := StepResult{
		Info:   Info{},
		Played: &shared.PlayedCard{Card: card, PlayerIndex: e.active},
	}

	if !e.trick.Complete() {
		e.active = 1 - e.active
	} else {
		tr := e.resolveTrick()
		res.Trick = &tr
		if tr.Winner == 0 {
			res.Reward = tr.Points
		} else {
			res.Reward = -tr.Points
		}
	}

	if len(e.players[0].Hand) == 0 && len(e.players[1].Hand) == 0 && e.deck.Len() == 0 {
		e.done = true
	}
	if e.tricks >= e.trickLimit {
		e.done = true
		switch {
		case e.scores[0] > e.scores[1]:
			res.Reward += WinBonus
		case e.scores[0] < e.scores[1]:
			res.Reward -= WinBonus
		}
	}
	if e.done {
		e.log.Debug("hand over", zap.Ints("scores", e.scores[:]), zap.Int("tricks", e.tricks))
	}

	res.Done = e.done
	res.Observation = e.ObservationFor(e.active)
	return res
}

// resolveTrick scores the complete trick, refills hands and hands the lead
// to the winner.
func (e *Env) resolveTrick() TrickResult {
	winner := e.trick.Winner(e.trump)
	points := e.trick.Points()

	e.scores[winner] += points
	e.players[winner].Take(e.trick.Played()...)
	e.tricks++

	result := TrickResult{
		Number: e.tricks,
		Cards:  append([]shared.PlayedCard(nil), e.trick.Cards...),
		Winner: winner,
		Points: points,
	}

	// Winner draws first; with one card left only the winner draws.
	for _, p := range []int{winner, 1 - winner} {
		if c, ok := e.deck.Draw(); ok {
			e.players[p].AddCard(c)
		}
	}

	e.trick = shared.NewTrick()
	e.active = winner

	e.log.Debug("trick resolved",
		zap.Int("trick", result.Number),
		zap.Int("winner", winner),
		zap.Int("points", points),
		zap.Int("deck_remaining", e.deck.Len()))
	return result
}

// ObservationFor builds the view of the table from player's seat.
func (e *Env) ObservationFor(player int) Observation {
	obs := Observation{
		Player:        player,
		ActivePlayer:  e.active,
		Trump:         e.trump,
		Scores:        e.scores,
		DeckRemaining: e.deck.Len(),
		Tricks:        e.tricks,
	}
	if player >= 0 && player < len(e.players) {
		for i, c := range e.players[player].Hand {
			if i >= len(obs.Hand) {
				break
			}
			card := c
			obs.Hand[i] = &card
		}
	}
	for i, pc := range e.trick.Cards {
		if i >= len(obs.Table) {
			break
		}
		card := pc.Card
		obs.Table[i] = &card
	}
	if e.deck.Len() > 0 {
		card := e.trumpCard
		obs.TrumpCard = &card
	}
	return obs
}

// ActivePlayer returns the seat expected to play next.
func (e *Env) ActivePlayer() int { return e.active }

// Scores returns both running totals.
func (e *Env) Scores() [2]int { return e.scores }

// TrickCount returns the number of resolved tricks.
func (e *Env) TrickCount() int { return e.tricks }

// TrickLimit returns the configured number of tricks per hand.
func (e *Env) TrickLimit() int { return e.trickLimit }

// Done reports whether the hand is over.
func (e *Env) Done() bool { return e.done }

// DeckRemaining returns the number of undrawn cards.
func (e *Env) DeckRemaining() int { return e.deck.Len() }

// Trump returns the trump suit of the current hand.
func (e *Env) Trump() shared.Suit { return e.trump }

// TrumpCard returns the turned-up card of the current hand.
func (e *Env) TrumpCard() shared.Card { return e.trumpCard }

// Seed returns the seed of the current hand's shuffle.
func (e *Env) Seed() uint64 { return e.seed }

// Phase returns the state of the trick machine.
func (e *Env) Phase() Phase {
	switch {
	case e.done:
		return HandOver
	case e.trick.Len() == 0:
		return AwaitingFirstCard
	default:
		return AwaitingSecondCard
	}
}

// Winner returns the seat with more points, or -1 on a tie.
func (e *Env) Winner() int {
	switch {
	case e.scores[0] > e.scores[1]:
		return 0
	case e.scores[1] > e.scores[0]:
		return 1
	default:
		return -1
	}
}
