package shared

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestNewDeckIsComplete(t *testing.T) {
	d := NewDeck()
	if d.Len() != DeckSize {
		t.Fatalf("deck has %d cards, want %d", d.Len(), DeckSize)
	}
	seen := map[Card]bool{}
	for _, c := range d.Cards {
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
	}
}

func TestShuffleIsSeeded(t *testing.T) {
	a, b := NewDeck(), NewDeck()
	a.Shuffle(rand.New(rand.NewPCG(7, 7)))
	b.Shuffle(rand.New(rand.NewPCG(7, 7)))
	if !slices.Equal(a.Cards, b.Cards) {
		t.Fatalf("same seed produced different orders")
	}
	c := NewDeck()
	c.Shuffle(rand.New(rand.NewPCG(8, 8)))
	if slices.Equal(a.Cards, c.Cards) {
		t.Fatalf("different seeds produced the same order")
	}
}

func TestDrawAndDeal(t *testing.T) {
	d := NewDeck()
	bottom, _ := d.Bottom()
	hands := d.Deal(2, 3)
	if len(hands) != 2 || len(hands[0]) != 3 || len(hands[1]) != 3 {
		t.Fatalf("unexpected deal %v", hands)
	}
	if d.Len() != DeckSize-6 {
		t.Fatalf("deck has %d cards after dealing", d.Len())
	}
	var last Card
	for d.Len() > 0 {
		c, ok := d.Draw()
		if !ok {
			t.Fatalf("draw failed with %d cards left", d.Len())
		}
		last = c
	}
	if last != bottom {
		t.Fatalf("last drawn %v, want bottom %v", last, bottom)
	}
	if _, ok := d.Draw(); ok {
		t.Fatalf("draw from empty deck should fail")
	}
	if _, ok := d.Bottom(); ok {
		t.Fatalf("empty deck has no bottom card")
	}
	if d.Deal(2, 3) != nil {
		t.Fatalf("deal from empty deck should return nil")
	}
}

func TestPlayerPlayAt(t *testing.T) {
	p := NewPlayer("p0", "Ada")
	p.AddCard(Card{Cups, Ace})
	p.AddCard(Card{Coins, Two})
	if _, ok := p.PlayAt(2); ok {
		t.Fatalf("PlayAt out of range should fail")
	}
	c, ok := p.PlayAt(1)
	if !ok || c != (Card{Coins, Two}) || len(p.Hand) != 1 {
		t.Fatalf("PlayAt(1) = %v, %v; hand %v", c, ok, p.Hand)
	}
	p.Take(Card{Cups, Three}, c)
	if p.PilePoints() != 10 {
		t.Fatalf("pile points = %d, want 10", p.PilePoints())
	}
	p.Clear()
	if len(p.Hand) != 0 || len(p.Pile) != 0 {
		t.Fatalf("Clear left cards behind")
	}
}
