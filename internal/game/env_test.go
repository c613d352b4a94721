package game

import (
	"reflect"
	"testing"

	"briscola-env/internal/shared"
)

// checkConservation verifies deck + hands + piles + table is the 40-card set.
func checkConservation(t *testing.T, e *Env) {
	t.Helper()
	seen := map[shared.Card]int{}
	for _, c := range e.deck.Cards {
		seen[c]++
	}
	for _, p := range e.players {
		for _, c := range p.Hand {
			seen[c]++
		}
		for _, c := range p.Pile {
			seen[c]++
		}
	}
	for _, pc := range e.trick.Cards {
		seen[pc.Card]++
	}
	if len(seen) != shared.DeckSize {
		t.Fatalf("expected %d distinct cards, got %d", shared.DeckSize, len(seen))
	}
	for c, n := range seen {
		if n != 1 {
			t.Fatalf("card %v appears %d times", c, n)
		}
	}
}

func TestResetDealsHand(t *testing.T) {
	e := NewEnv()
	obs := e.ResetWithSeed(42)

	if obs.Player != 0 || e.ActivePlayer() != 0 {
		t.Fatalf("player 0 should act first")
	}
	if obs.HandLen() != 3 {
		t.Fatalf("hand has %d cards, want 3", obs.HandLen())
	}
	if obs.Table[0] != nil || obs.Table[1] != nil {
		t.Fatalf("table should be empty after reset")
	}
	if obs.DeckRemaining != 34 || e.DeckRemaining() != 34 {
		t.Fatalf("deck remaining = %d, want 34", obs.DeckRemaining)
	}
	if obs.Scores != [2]int{} || e.TrickCount() != 0 || e.Done() {
		t.Fatalf("scores, trick counter or done flag not cleared")
	}
	if obs.TrumpCard == nil || obs.TrumpCard.Suit != obs.Trump {
		t.Fatalf("trump card %v does not match trump suit %v", obs.TrumpCard, obs.Trump)
	}
	bottom, _ := e.deck.Bottom()
	if bottom != e.TrumpCard() {
		t.Fatalf("trump card %v should be the last card in the deck, bottom is %v", e.TrumpCard(), bottom)
	}
	if e.Phase() != AwaitingFirstCard {
		t.Fatalf("phase = %s", e.Phase())
	}
	if e.Seed() != 42 {
		t.Fatalf("seed = %d", e.Seed())
	}
	checkConservation(t, e)
}

func TestResetIsReproducible(t *testing.T) {
	a, b := NewEnv(), NewEnv()
	if !reflect.DeepEqual(a.ResetWithSeed(9), b.ResetWithSeed(9)) {
		t.Fatalf("same seed produced different observations")
	}
	for i := 0; i < 40; i++ {
		ra, rb := a.Step(i%3), b.Step(i%3)
		if !reflect.DeepEqual(ra, rb) {
			t.Fatalf("step %d diverged", i)
		}
		if ra.Done {
			break
		}
	}

	fixed := NewEnv(WithSeed(5))
	first := fixed.Reset()
	if !reflect.DeepEqual(first, fixed.Reset()) {
		t.Fatalf("WithSeed should reset to the same hand")
	}

	random := NewEnv()
	random.Reset()
	replay := NewEnv()
	if !reflect.DeepEqual(replay.ResetWithSeed(random.Seed()), random.ObservationFor(0)) {
		t.Fatalf("recorded seed should replay the hand")
	}
}

func TestFullHandAlwaysFirstCard(t *testing.T) {
	for seed := uint64(0); seed < 25; seed++ {
		e := NewEnv()
		e.ResetWithSeed(seed)
		steps, total := 0, 0
		var last StepResult
		for !last.Done {
			prev := e.Scores()
			last = e.Step(0)
			steps++
			if len(last.Info) != 0 {
				t.Fatalf("seed %d: unexpected info %v", seed, last.Info)
			}
			checkConservation(t, e)
			s := e.Scores()
			if s[0]+s[1] > shared.TotalPoints {
				t.Fatalf("seed %d: score sum %d exceeds %d", seed, s[0]+s[1], shared.TotalPoints)
			}
			if s[0] < prev[0] || s[1] < prev[1] {
				t.Fatalf("seed %d: scores decreased %v -> %v", seed, prev, s)
			}
			gained := s[0] + s[1] - prev[0] - prev[1]
			if last.Trick == nil && gained != 0 {
				t.Fatalf("seed %d: scores moved without a resolved trick", seed)
			}
			if last.Trick != nil && gained != last.Trick.Points {
				t.Fatalf("seed %d: gained %d, trick worth %d", seed, gained, last.Trick.Points)
			}
			total += last.Reward
			if steps > 40 {
				t.Fatalf("seed %d: hand did not terminate", seed)
			}
		}
		if e.TrickCount() != DefaultTrickLimit {
			t.Fatalf("seed %d: finished after %d tricks, want %d", seed, e.TrickCount(), DefaultTrickLimit)
		}
		if steps != 40 {
			t.Fatalf("seed %d: took %d steps, want 40", seed, steps)
		}
		s := e.Scores()
		if s[0]+s[1] != shared.TotalPoints {
			t.Fatalf("seed %d: final scores %v do not total %d", seed, s, shared.TotalPoints)
		}
		for i, p := range e.players {
			if p.PilePoints() != s[i] {
				t.Fatalf("seed %d: pile of %d worth %d, score %d", seed, i, p.PilePoints(), s[i])
			}
		}
		want := s[0] - s[1]
		switch {
		case s[0] > s[1]:
			want += WinBonus
		case s[0] < s[1]:
			want -= WinBonus
		}
		if total != want {
			t.Fatalf("seed %d: cumulative reward %d, want %d", seed, total, want)
		}
		if e.Phase() != HandOver {
			t.Fatalf("seed %d: phase %s", seed, e.Phase())
		}
	}
}

func TestClampOutOfRangeMove(t *testing.T) {
	for _, move := range []int{99, 3, -1} {
		a, b := NewEnv(), NewEnv()
		a.ResetWithSeed(11)
		b.ResetWithSeed(11)
		ra, rb := a.Step(move), b.Step(0)
		if !reflect.DeepEqual(ra, rb) {
			t.Fatalf("move %d should behave like move 0", move)
		}
		if !reflect.DeepEqual(a.players, b.players) {
			t.Fatalf("move %d changed state differently from move 0", move)
		}
	}
}

func TestEmptyHandTerminates(t *testing.T) {
	e := NewEnv()
	e.ResetWithSeed(3)
	e.players[0].Hand = nil

	res := e.Step(0)
	if !res.Done {
		t.Fatalf("empty hand should end the episode")
	}
	if res.Info[InfoError] != ErrEmptyHand {
		t.Fatalf("info = %v", res.Info)
	}
	if res.Reward != 0 || res.Trick != nil {
		t.Fatalf("empty hand step should not score")
	}
	if e.ActivePlayer() != 0 || len(e.trick.Cards) != 0 {
		t.Fatalf("empty hand step should not change state")
	}

	fresh := NewEnv()
	if res := fresh.Step(1); !res.Done || res.Info[InfoError] != ErrEmptyHand {
		t.Fatalf("step before reset = %+v", res)
	}
}

func TestFirstCardSwitchesPlayer(t *testing.T) {
	e := NewEnv()
	obs := e.ResetWithSeed(21)
	played := *obs.Hand[1]

	res := e.Step(1)
	if res.Reward != 0 || res.Done || res.Trick != nil {
		t.Fatalf("first card should not resolve anything: %+v", res)
	}
	if e.ActivePlayer() != 1 || res.Observation.Player != 1 {
		t.Fatalf("active player should switch to 1")
	}
	if res.Observation.Table[0] == nil || *res.Observation.Table[0] != played {
		t.Fatalf("table = %v, want %v first", res.Observation.Table, played)
	}
	if res.Observation.Table[1] != nil {
		t.Fatalf("second table slot should be empty")
	}
	if e.Phase() != AwaitingSecondCard {
		t.Fatalf("phase = %s", e.Phase())
	}
	if len(e.players[0].Hand) != 2 {
		t.Fatalf("player 0 should hold 2 cards")
	}
}

// stacked sets up a position with known hands and deck.
func stacked(t *testing.T, trump shared.Suit, h0, h1, deck []shared.Card) *Env {
	t.Helper()
	e := NewEnv()
	e.ResetWithSeed(1)
	e.players[0].Hand = append([]shared.Card(nil), h0...)
	e.players[1].Hand = append([]shared.Card(nil), h1...)
	e.deck = &shared.Deck{Cards: append([]shared.Card(nil), deck...)}
	e.trump = trump
	return e
}

func TestTrickResolutionDrawOrder(t *testing.T) {
	ace := shared.Card{Suit: shared.Cups, Rank: shared.Ace}
	two := shared.Card{Suit: shared.Swords, Rank: shared.Two}
	top := shared.Card{Suit: shared.Coins, Rank: shared.Four}
	next := shared.Card{Suit: shared.Coins, Rank: shared.Five}

	e := stacked(t, shared.Swords,
		[]shared.Card{ace},
		[]shared.Card{two},
		[]shared.Card{top, next})

	e.Step(0)
	res := e.Step(0)

	if res.Trick == nil || res.Trick.Winner != 1 || res.Trick.Points != 11 {
		t.Fatalf("trump two should take the ace: %+v", res.Trick)
	}
	if res.Reward != -11 {
		t.Fatalf("reward = %d, want -11", res.Reward)
	}
	if e.ActivePlayer() != 1 || res.Observation.Player != 1 {
		t.Fatalf("trick winner should lead")
	}
	if e.players[1].Hand[0] != top || e.players[0].Hand[0] != next {
		t.Fatalf("winner should draw first: p0=%v p1=%v", e.players[0].Hand, e.players[1].Hand)
	}
	if e.Scores() != [2]int{0, 11} {
		t.Fatalf("scores = %v", e.Scores())
	}
	if res.Observation.Table[0] != nil {
		t.Fatalf("trick should be cleared")
	}
}

func TestLastCardGoesToWinner(t *testing.T) {
	king := shared.Card{Suit: shared.Clubs, Rank: shared.King}
	seven := shared.Card{Suit: shared.Cups, Rank: shared.Seven}
	last := shared.Card{Suit: shared.Coins, Rank: shared.Ace}

	e := stacked(t, shared.Swords,
		[]shared.Card{king},
		[]shared.Card{seven},
		[]shared.Card{last})

	e.Step(0)
	res := e.Step(0)

	if res.Trick.Winner != 0 {
		t.Fatalf("off-suit lead should win")
	}
	if res.Reward != 4 {
		t.Fatalf("reward = %d, want 4", res.Reward)
	}
	if len(e.players[0].Hand) != 1 || e.players[0].Hand[0] != last {
		t.Fatalf("only the winner should draw the last card: %v", e.players[0].Hand)
	}
	if len(e.players[1].Hand) != 0 {
		t.Fatalf("loser should draw nothing: %v", e.players[1].Hand)
	}
	if e.DeckRemaining() != 0 || res.Observation.TrumpCard != nil {
		t.Fatalf("deck should be empty and trump card gone")
	}
	if res.Done {
		t.Fatalf("hand not over while player 0 holds a card")
	}
}

func TestNoDrawFromEmptyDeck(t *testing.T) {
	a := shared.Card{Suit: shared.Cups, Rank: shared.Two}
	b := shared.Card{Suit: shared.Cups, Rank: shared.Four}

	e := stacked(t, shared.Swords, []shared.Card{a}, []shared.Card{b}, nil)
	e.Step(0)
	res := e.Step(0)

	if !res.Done {
		t.Fatalf("empty hands and deck should end the hand")
	}
	if res.Reward != 0 {
		t.Fatalf("zero-point trick before the limit gives reward 0, got %d", res.Reward)
	}
	if len(e.players[0].Hand) != 0 || len(e.players[1].Hand) != 0 {
		t.Fatalf("nobody should draw from an empty deck")
	}
}

func TestTrickLimitBonus(t *testing.T) {
	cases := []struct {
		name   string
		h0, h1 shared.Card
		scores [2]int
		want   int
	}{
		{"player 0 ahead", shared.Card{Suit: shared.Cups, Rank: shared.Ace}, shared.Card{Suit: shared.Cups, Rank: shared.Two}, [2]int{0, 0}, 11 + WinBonus},
		{"player 1 ahead", shared.Card{Suit: shared.Cups, Rank: shared.Two}, shared.Card{Suit: shared.Cups, Rank: shared.King}, [2]int{0, 0}, -4 - WinBonus},
		{"tie", shared.Card{Suit: shared.Cups, Rank: shared.Two}, shared.Card{Suit: shared.Cups, Rank: shared.Four}, [2]int{10, 10}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spare := shared.Card{Suit: shared.Coins, Rank: shared.Six}
			e := stacked(t, shared.Swords,
				[]shared.Card{tc.h0, spare},
				[]shared.Card{tc.h1},
				nil)
			e.tricks = DefaultTrickLimit - 1
			e.scores = tc.scores

			e.Step(0)
			res := e.Step(0)
			if !res.Done {
				t.Fatalf("trick limit should end the hand")
			}
			if res.Reward != tc.want {
				t.Fatalf("reward = %d, want %d", res.Reward, tc.want)
			}

			after := e.Step(0)
			if !after.Done || after.Reward != 0 {
				t.Fatalf("step after the limit should be a terminal no-op: %+v", after)
			}
			if after.Info[InfoError] == "" {
				t.Fatalf("step after the limit should carry an error marker")
			}
		})
	}
}

func TestCustomTrickLimit(t *testing.T) {
	e := NewEnv(WithTrickLimit(3))
	e.ResetWithSeed(77)
	steps := 0
	for res := e.Step(0); ; res = e.Step(0) {
		steps++
		if res.Done {
			break
		}
	}
	if steps != 6 || e.TrickCount() != 3 {
		t.Fatalf("hand ended after %d steps and %d tricks", steps, e.TrickCount())
	}
	res := e.Step(0)
	if res.Info[InfoError] != ErrEpisodeOver {
		t.Fatalf("info = %v, want %q", res.Info, ErrEpisodeOver)
	}
}

func TestObservationHidesOpponentHand(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		e := NewEnv()
		obs := e.ResetWithSeed(seed)
		for !e.Done() {
			other := e.players[1-obs.Player]
			for _, c := range obs.Hand {
				if c != nil && other.HasCard(*c) {
					t.Fatalf("seed %d: observation for %d shows opponent card %v", seed, obs.Player, *c)
				}
			}
			own := e.players[obs.Player]
			if obs.HandLen() != len(own.Hand) {
				t.Fatalf("seed %d: observation shows %d cards, player holds %d", seed, obs.HandLen(), len(own.Hand))
			}
			obs = e.Step(int(seed) % 3).Observation
		}
	}
}

func TestObservationEncode(t *testing.T) {
	e := stacked(t, shared.Coins,
		[]shared.Card{{Suit: shared.Swords, Rank: shared.Ace}, {Suit: shared.Cups, Rank: shared.Two}},
		[]shared.Card{{Suit: shared.Clubs, Rank: shared.Three}},
		nil)
	e.Step(1)
	enc := e.ObservationFor(0).Encode()

	if enc.Hand != [3]int{39, shared.NoCard, shared.NoCard} {
		t.Fatalf("hand = %v", enc.Hand)
	}
	if enc.Played != [2]int{0, shared.NoCard} {
		t.Fatalf("played = %v", enc.Played)
	}
	if enc.Briscola != int(shared.Coins) || enc.RemainingCards != 0 {
		t.Fatalf("briscola %d remaining %d", enc.Briscola, enc.RemainingCards)
	}
}
