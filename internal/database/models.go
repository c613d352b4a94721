package database

import (
	"time"

	"briscola-env/internal/game"

	"github.com/google/uuid"
)

// GameResult is one finished hand as stored in the results table.
type GameResult struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Player0   string `json:"player0"`
	Player1   string `json:"player1"`
	Score0    int    `json:"score0"`
	Score1    int    `json:"score1"`
	Winner    int    `json:"winner"` // seat, -1 on a tie
	Tricks    int    `json:"tricks"`
	Seed      uint64 `json:"seed"`
	Reason    string `json:"reason,omitempty"`
}

// FromHandResult converts a finished session hand into a row.
func FromHandResult(r game.HandResult) GameResult {
	id := r.GameID
	if id == "" {
		id = uuid.NewString()
	}
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	return GameResult{
		ID:        id,
		CreatedAt: finished.Format(time.RFC3339),
		Player0:   r.Players[0],
		Player1:   r.Players[1],
		Score0:    r.Scores[0],
		Score1:    r.Scores[1],
		Winner:    r.Winner,
		Tricks:    r.Tricks,
		Seed:      r.Seed,
		Reason:    r.Reason,
	}
}
