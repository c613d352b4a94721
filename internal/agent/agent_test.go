package agent

import (
	"testing"

	"briscola-env/internal/game"
	"briscola-env/internal/shared"
)

func card(s string) *shared.Card {
	c, err := shared.ParseCard(s)
	if err != nil {
		panic(err)
	}
	return &c
}

func TestAgentsReturnHeldIndex(t *testing.T) {
	neural, err := NewNeural(DefaultNeuralConfig(3))
	if err != nil {
		t.Fatalf("NewNeural: %v", err)
	}
	agents := []Agent{NewRandom(1), NewGreedy(), neural}

	for _, a := range agents {
		env := game.NewEnv()
		obs := env.ResetWithSeed(17)
		for !env.Done() {
			move := a.Act(obs)
			if move < 0 || move >= len(obs.Hand) || obs.Hand[move] == nil {
				t.Fatalf("%s chose empty slot %d for hand %v", a.Name(), move, obs.Hand)
			}
			obs = env.Step(move).Observation
		}
	}
}

func TestNewByKind(t *testing.T) {
	for _, kind := range []string{KindRandom, KindGreedy, KindNeural, ""} {
		if _, err := New(kind, 1); err != nil {
			t.Fatalf("New(%q): %v", kind, err)
		}
	}
	if _, err := New("oracle", 1); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestGreedyChoices(t *testing.T) {
	g := NewGreedy()
	cases := []struct {
		name string
		obs  game.Observation
		want int
	}{
		{
			name: "leads cheapest non-trump",
			obs: game.Observation{
				Trump: shared.Swords,
				Hand:  [3]*shared.Card{card("2S"), card("AC"), card("4D")},
			},
			want: 2,
		},
		{
			name: "takes an ace with the cheapest winner",
			obs: game.Observation{
				Trump: shared.Swords,
				Hand:  [3]*shared.Card{card("3S"), card("2S"), card("5D")},
				Table: [2]*shared.Card{card("AC"), nil},
			},
			want: 1,
		},
		{
			name: "overtakes in suit rather than trumping",
			obs: game.Observation{
				Trump: shared.Swords,
				Hand:  [3]*shared.Card{card("2S"), card("3C"), nil},
				Table: [2]*shared.Card{card("KC"), nil},
			},
			want: 1,
		},
		{
			name: "discards on a worthless lead it cannot win cheaply",
			obs: game.Observation{
				Trump: shared.Swords,
				Hand:  [3]*shared.Card{card("AS"), card("2D"), card("KB")},
				Table: [2]*shared.Card{card("4C"), nil},
			},
			want: 1,
		},
		{
			name: "keeps its ace on a worthless lead it could win",
			obs: game.Observation{
				Trump: shared.Swords,
				Hand:  [3]*shared.Card{card("AC"), card("4D"), card("5B")},
				Table: [2]*shared.Card{card("2C"), nil},
			},
			want: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Act(tc.obs); got != tc.want {
				t.Fatalf("Act = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNeuralIsSeeded(t *testing.T) {
	a, err := NewNeural(DefaultNeuralConfig(11))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewNeural(NeuralConfig{Name: "copy", HiddenLayers: []int{32, 16}, Weights: a.Weights()})
	if err != nil {
		t.Fatal(err)
	}
	obs := game.NewEnv().ResetWithSeed(4)
	sa, sb := a.Scores(obs), b.Scores(obs)
	if len(sa) != shared.HandSize {
		t.Fatalf("expected %d scores, got %d", shared.HandSize, len(sa))
	}
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("applied weights should give the same scores: %v vs %v", sa, sb)
		}
	}
	if len(Features(obs)) != FeatureSize {
		t.Fatalf("feature vector has %d entries, want %d", len(Features(obs)), FeatureSize)
	}

	if _, err := NewNeural(NeuralConfig{HiddenLayers: []int{8}, Weights: a.Weights()}); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
	if _, err := NewNeural(NeuralConfig{HiddenLayers: []int{0}}); err == nil {
		t.Fatalf("expected invalid layer error")
	}
}

func TestRunnerPlaysFullHands(t *testing.T) {
	r := NewRunner(game.NewEnv(), NewGreedy(), NewRandom(5), nil)
	res := r.RunSeed(8)
	if res.Seed != 8 {
		t.Fatalf("seed = %d", res.Seed)
	}
	if len(res.Tricks) != game.DefaultTrickLimit || res.Steps != 2*game.DefaultTrickLimit {
		t.Fatalf("played %d tricks in %d steps", len(res.Tricks), res.Steps)
	}
	if res.Scores[0]+res.Scores[1] != shared.TotalPoints {
		t.Fatalf("scores %v", res.Scores)
	}
	points := [2]int{}
	for _, tr := range res.Tricks {
		points[tr.Winner] += tr.Points
	}
	if points != res.Scores {
		t.Fatalf("trick points %v, scores %v", points, res.Scores)
	}

	sum := r.Simulate(6, 100, nil)
	if sum.Hands != 6 || sum.Wins[0]+sum.Wins[1]+sum.Ties != 6 {
		t.Fatalf("summary %+v", sum)
	}
	if sum.Points[0]+sum.Points[1] != 6*shared.TotalPoints {
		t.Fatalf("summary points %v", sum.Points)
	}
}
