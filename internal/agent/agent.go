package agent

import (
	"fmt"
	"math/rand/v2"

	"briscola-env/internal/game"
	"briscola-env/internal/shared"
)

// Agent picks a card index for the observed seat. Any int is accepted by the
// engine; agents here always return the index of a held card.
type Agent interface {
	Name() string
	Act(obs game.Observation) int
}

// Kinds accepted by New.
const (
	KindRandom = "random"
	KindGreedy = "greedy"
	KindNeural = "neural"
)

// New builds an agent by kind name. seed drives any randomness the agent uses.
func New(kind string, seed uint64) (Agent, error) {
	switch kind {
	case KindRandom, "":
		return NewRandom(seed), nil
	case KindGreedy:
		return NewGreedy(), nil
	case KindNeural:
		return NewNeural(DefaultNeuralConfig(seed))
	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}
}

// Random plays a uniformly chosen held card.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random agent.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (r *Random) Name() string { return KindRandom }

func (r *Random) Act(obs game.Observation) int {
	held := heldSlots(obs)
	if len(held) == 0 {
		return 0
	}
	return held[r.rng.IntN(len(held))]
}

// Greedy follows simple Briscola habits: lead the cheapest non-trump, and
// when answering take pointed tricks as cheaply as possible. A lead worth
// nothing gets the cheapest card.
type Greedy struct{}

// NewGreedy creates a Greedy agent.
func NewGreedy() *Greedy { return &Greedy{} }

func (g *Greedy) Name() string { return KindGreedy }

func (g *Greedy) Act(obs game.Observation) int {
	held := heldSlots(obs)
	if len(held) == 0 {
		return 0
	}
	if obs.Leading() {
		return cheapest(obs, held)
	}

	lead := *obs.Table[0]
	best, bestCost := -1, 0
	for _, i := range held {
		c := *obs.Hand[i]
		if shared.Compare(lead, c, obs.Trump) != shared.Second {
			continue
		}
		cost := c.Points()
		if c.Suit == obs.Trump {
			cost += 20
		}
		if best == -1 || cost < bestCost {
			best, bestCost = i, cost
		}
	}
	if best != -1 && lead.Points() > 0 {
		return best
	}
	return cheapest(obs, held)
}

// cheapest returns the held slot with the lowest points, keeping trumps
// for last.
func cheapest(obs game.Observation, held []int) int {
	best, bestCost := held[0], 1<<30
	for _, i := range held {
		c := *obs.Hand[i]
		cost := c.Points()*shared.NumRanks + int(c.Rank)
		if c.Suit == obs.Trump {
			cost += 1000
		}
		if cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best
}

func heldSlots(obs game.Observation) []int {
	out := make([]int, 0, shared.HandSize)
	for i, c := range obs.Hand {
		if c != nil {
			out = append(out, i)
		}
	}
	return out
}
