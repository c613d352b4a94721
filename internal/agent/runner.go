package agent

import (
	"briscola-env/internal/game"

	"go.uber.org/zap"
)

// maxSteps bounds a hand in case an engine configuration never terminates.
const maxSteps = 4 * game.DefaultTrickLimit

// EpisodeResult records one hand played by the runner.
type EpisodeResult struct {
	Seed        uint64             `json:"seed"`
	Agents      [2]string          `json:"agents"`
	Scores      [2]int             `json:"scores"`
	Winner      int                `json:"winner"` // -1 on a tie
	TotalReward int                `json:"total_reward"`
	Steps       int                `json:"steps"`
	Tricks      []game.TrickResult `json:"tricks"`
}

// Summary aggregates many hands.
type Summary struct {
	Hands  int    `json:"hands"`
	Wins   [2]int `json:"wins"`
	Ties   int    `json:"ties"`
	Points [2]int `json:"points"`
}

// Runner drives an engine with one agent per seat.
type Runner struct {
	env    *game.Env
	agents [2]Agent
	log    *zap.Logger
}

// NewRunner sets the agents for seats 0 and 1.
func NewRunner(env *game.Env, a0, a1 Agent, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{env: env, agents: [2]Agent{a0, a1}, log: log}
}

// Run plays a hand with a fresh seed.
func (r *Runner) Run() EpisodeResult {
	obs := r.env.Reset()
	return r.play(obs)
}

// RunSeed plays the hand determined by seed.
func (r *Runner) RunSeed(seed uint64) EpisodeResult {
	obs := r.env.ResetWithSeed(seed)
	return r.play(obs)
}

func (r *Runner) play(obs game.Observation) EpisodeResult {
	result := EpisodeResult{
		Seed:   r.env.Seed(),
		Agents: [2]string{r.agents[0].Name(), r.agents[1].Name()},
	}
	for result.Steps < maxSteps {
		move := r.agents[obs.Player].Act(obs)
		res := r.env.Step(move)
		result.Steps++
		result.TotalReward += res.Reward
		if res.Trick != nil {
			result.Tricks = append(result.Tricks, *res.Trick)
		}
		if msg, ok := res.Info[game.InfoError]; ok {
			r.log.Warn("hand ended early", zap.Uint64("seed", result.Seed), zap.String("reason", msg))
		}
		if res.Done {
			break
		}
		obs = res.Observation
	}
	result.Scores = r.env.Scores()
	result.Winner = r.env.Winner()

	r.log.Info("hand finished",
		zap.Uint64("seed", result.Seed),
		zap.Strings("agents", result.Agents[:]),
		zap.Ints("scores", result.Scores[:]),
		zap.Int("winner", result.Winner),
		zap.Int("tricks", len(result.Tricks)))
	return result
}

// Simulate plays n hands. When seed is non-zero the hands use seed, seed+1,
// and so on. onHand, if set, sees every result.
func (r *Runner) Simulate(n int, seed uint64, onHand func(EpisodeResult)) Summary {
	var s Summary
	for i := 0; i < n; i++ {
		var res EpisodeResult
		if seed != 0 {
			res = r.RunSeed(seed + uint64(i))
		} else {
			res = r.Run()
		}
		s.Hands++
		s.Points[0] += res.Scores[0]
		s.Points[1] += res.Scores[1]
		if res.Winner >= 0 {
			s.Wins[res.Winner]++
		} else {
			s.Ties++
		}
		if onHand != nil {
			onHand(res)
		}
	}
	return s
}
