package agent

import (
	"fmt"
	"math/rand/v2"

	"briscola-env/internal/game"
	"briscola-env/internal/shared"

	"github.com/patrikeh/go-deep"
)

// NeuralConfig defines the scoring network.
type NeuralConfig struct {
	Name         string
	HiddenLayers []int
	Seed         uint64
	// Weights, when set, replace the seeded initial weights. The shape must
	// match deep.Neural.Weights for the configured layout.
	Weights [][][]float64
}

// DefaultNeuralConfig returns a small two-layer network.
func DefaultNeuralConfig(seed uint64) NeuralConfig {
	return NeuralConfig{
		Name:         "default",
		HiddenLayers: []int{32, 16},
		Seed:         seed,
	}
}

const slotFeatures = 4

// FeatureSize is the length of the network input vector.
const FeatureSize = (shared.HandSize+2)*slotFeatures + 3 + shared.NumSuits

// Neural scores each hand slot with a feed-forward network and plays the
// best scoring held card.
type Neural struct {
	network *deep.Neural
	config  NeuralConfig
}

// NewNeural builds the network and initialises its weights.
func NewNeural(config NeuralConfig) (*Neural, error) {
	layout := append(append([]int{}, config.HiddenLayers...), shared.HandSize)
	for _, n := range layout {
		if n <= 0 {
			return nil, fmt.Errorf("invalid layer size %d in %v", n, layout)
		}
	}

	network := deep.NewNeural(&deep.Config{
		Inputs:     FeatureSize,
		Layout:     layout,
		Activation: deep.ActivationReLU,
		Mode:       deep.ModeRegression,
		Weight:     deep.NewNormal(0.5, 0.0),
		Bias:       true,
	})

	weights := config.Weights
	if weights == nil {
		weights = seededWeights(network.Weights(), config.Seed)
	} else if err := sameShape(network.Weights(), weights); err != nil {
		return nil, err
	}
	network.ApplyWeights(weights)

	return &Neural{network: network, config: config}, nil
}

func (n *Neural) Name() string {
	return fmt.Sprintf("%s (%s)", KindNeural, n.config.Name)
}

// Weights returns a copy of the network weights.
func (n *Neural) Weights() [][][]float64 { return n.network.Weights() }

// Scores returns the network output for each hand slot.
func (n *Neural) Scores(obs game.Observation) []float64 {
	return n.network.Predict(Features(obs))
}

func (n *Neural) Act(obs game.Observation) int {
	held := heldSlots(obs)
	if len(held) == 0 {
		return 0
	}
	scores := n.Scores(obs)
	best := held[0]
	for _, i := range held[1:] {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// Features encodes an observation as the network input.
func Features(obs game.Observation) []float64 {
	f := make([]float64, 0, FeatureSize)
	slot := func(c *shared.Card) {
		if c == nil {
			f = append(f, 0, 0, 0, 0)
			return
		}
		trump := 0.0
		if c.Suit == obs.Trump {
			trump = 1
		}
		f = append(f, 1, float64(c.Points())/11, float64(c.Rank)/float64(shared.Ace), trump)
	}
	for _, c := range obs.Hand {
		slot(c)
	}
	for _, c := range obs.Table {
		slot(c)
	}
	own, opp := obs.Scores[obs.Player], obs.Scores[1-obs.Player]
	f = append(f,
		float64(own)/shared.TotalPoints,
		float64(opp)/shared.TotalPoints,
		float64(obs.DeckRemaining)/float64(shared.DeckSize-2*shared.HandSize),
	)
	for s := shared.Cups; s <= shared.Swords; s++ {
		if s == obs.Trump {
			f = append(f, 1)
		} else {
			f = append(f, 0)
		}
	}
	return f
}

func seededWeights(shape [][][]float64, seed uint64) [][][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	out := make([][][]float64, len(shape))
	for l, layer := range shape {
		out[l] = make([][]float64, len(layer))
		for j, neuron := range layer {
			out[l][j] = make([]float64, len(neuron))
			for k := range neuron {
				out[l][j][k] = rng.NormFloat64() * 0.5
			}
		}
	}
	return out
}

func sameShape(want, got [][][]float64) error {
	if len(want) != len(got) {
		return fmt.Errorf("weights have %d layers, network has %d", len(got), len(want))
	}
	for l := range want {
		if len(want[l]) != len(got[l]) {
			return fmt.Errorf("layer %d has %d neurons, network has %d", l, len(got[l]), len(want[l]))
		}
		for j := range want[l] {
			if len(want[l][j]) != len(got[l][j]) {
				return fmt.Errorf("layer %d neuron %d has %d inputs, network has %d", l, j, len(got[l][j]), len(want[l][j]))
			}
		}
	}
	return nil
}
