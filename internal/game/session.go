package game

import (
	"sync"
	"time"

	"briscola-env/internal/protocol"
	"briscola-env/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionState represents the lifecycle of a session.
type SessionState string

const (
	Waiting  SessionState = "Waiting"  // Seats filled, hand not started
	Playing  SessionState = "Playing"  // Tricks are being played
	GameOver SessionState = "GameOver" // Hand finished or forfeited
)

// MessageSender defines the function signature for sending messages back to clients.
// The Hub will provide an implementation of this.
type MessageSender func(clientID string, message []byte)

// Bot plays a seat without a connected client.
type Bot interface {
	Name() string
	Act(obs Observation) int
}

// HandResult is the outcome of a finished session.
type HandResult struct {
	GameID     string
	Players    [2]string
	Scores     [2]int
	Winner     int // -1 on a tie
	Tricks     int
	Seed       uint64
	Reason     string
	FinishedAt time.Time
}

// ResultRecorder stores finished hands.
type ResultRecorder interface {
	RecordResult(HandResult) error
}

// RecorderFunc adapts a function to ResultRecorder.
type RecorderFunc func(HandResult) error

func (f RecorderFunc) RecordResult(r HandResult) error { return f(r) }

// SessionOptions configures a Session.
type SessionOptions struct {
	Bots       [2]Bot
	Seed       uint64 // 0 draws a random seed
	TrickLimit int
	Recorder   ResultRecorder
	Logger     *zap.Logger
	// OnFinish runs once when the hand ends, before game_over is sent.
	// It is called with the session lock held and must not call back into
	// the session.
	OnFinish func()
}

// Session seats two players on one engine and turns every transition into
// protocol messages. All methods are safe for concurrent use.
type Session struct {
	ID      string
	Players [2]*shared.Player

	env         *Env
	bots        [2]Bot
	seed        uint64
	state       SessionState
	recorder    ResultRecorder
	onFinish    func()
	log         *zap.Logger
	mu          sync.Mutex
	sendMessage MessageSender
}

// NewSession creates a session for the given seats.
func NewSession(players [2]*shared.Player, opts SessionOptions) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New().String()
	log = log.With(zap.String("game_id", id))

	return &Session{
		ID:       id,
		Players:  players,
		env:      NewEnv(WithLogger(log), WithTrickLimit(opts.TrickLimit), WithPlayers(players[0], players[1])),
		bots:     opts.Bots,
		seed:     opts.Seed,
		state:    Waiting,
		recorder: opts.Recorder,
		onFinish: opts.OnFinish,
		log:      log,
	}
}

// Start deals the hand and lets bots move until a client has to act.
// It's called in a goroutine by the Hub.
func (s *Session) Start(sender MessageSender) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendMessage = sender
	if s.seed != 0 {
		s.env.ResetWithSeed(s.seed)
	} else {
		s.env.Reset()
	}
	s.state = Playing
	s.log.Info("session started",
		zap.String("player0", s.Players[0].Name),
		zap.String("player1", s.Players[1].Name),
		zap.Uint64("seed", s.env.Seed()))

	playerInfos := make([]protocol.PlayerInfo, len(s.Players))
	for i, p := range s.Players {
		playerInfos[i] = protocol.PlayerInfo{ID: p.ID, Name: p.Name, Position: i, Bot: s.bots[i] != nil}
	}
	startMsg, _ := protocol.NewMessage(protocol.TypeGameStart, protocol.GameStartPayload{
		GameID:    s.ID,
		Players:   playerInfos,
		Trump:     s.env.Trump(),
		TrumpCard: s.env.TrumpCard(),
		Seed:      s.env.Seed(),
	})
	s.broadcast(startMsg)

	s.sendObservations()
	s.runBots()
}

// HandlePlayerAction processes incoming actions from a player.
func (s *Session) HandlePlayerAction(clientID string, msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == GameOver {
		s.log.Debug("action after game over", zap.String("client_id", clientID))
		s.sendErrorToPlayer(clientID, "Game is already over.")
		return
	}

	seat := s.GetPlayerIndex(clientID)
	if seat == -1 {
		s.log.Warn("action from unknown client", zap.String("client_id", clientID))
		return
	}

	switch msg.Type {
	case protocol.TypePlayCard:
		if s.state != Playing {
			s.sendErrorToPlayer(clientID, "Cannot play card now.")
			return
		}
		if seat != s.env.ActivePlayer() {
			s.log.Debug("play out of turn", zap.String("client_id", clientID), zap.Int("active", s.env.ActivePlayer()))
			s.sendErrorToPlayer(clientID, "Not your turn.")
			return
		}
		var payload protocol.PlayCardPayload
		if err := msg.Decode(&payload); err != nil {
			s.log.Debug("bad play_card payload", zap.String("client_id", clientID), zap.Error(err))
			s.sendErrorToPlayer(clientID, "Invalid play_card message.")
			return
		}
		s.play(seat, payload.Index)
		s.runBots()

	default:
		s.log.Debug("unhandled action", zap.String("type", msg.Type), zap.String("client_id", clientID))
		s.sendErrorToPlayer(clientID, "Unknown action.")
	}
}

// play steps the engine for seat and reports the transition. Assumes lock is held.
func (s *Session) play(seat, index int) {
	res := s.env.Step(index)
	if reason, ok := res.Info[InfoError]; ok {
		s.endGame(reason)
		return
	}

	if res.Played != nil {
		playedMsg, _ := protocol.NewMessage(protocol.TypeCardPlayed, protocol.CardPlayedPayload{
			PlayerID: s.Players[seat].ID,
			Position: seat,
			Card:     res.Played.Card,
			Index:    index,
		})
		s.broadcast(playedMsg)
	}

	if res.Trick != nil {
		s.log.Debug("trick won",
			zap.Int("trick", res.Trick.Number),
			zap.String("winner", s.Players[res.Trick.Winner].Name),
			zap.Int("points", res.Trick.Points))
		trickMsg, _ := protocol.NewMessage(protocol.TypeTrickEnd, protocol.TrickEndPayload{
			Number:   res.Trick.Number,
			WinnerID: s.Players[res.Trick.Winner].ID,
			Cards:    res.Trick.Cards,
			Points:   res.Trick.Points,
			Reward:   res.Reward,
			Scores:   s.env.Scores(),
		})
		s.broadcast(trickMsg)
	}

	if res.Done {
		s.endGame("")
		return
	}
	s.sendObservations()
}

// runBots plays bot seats until a client must act or the hand ends.
// Assumes lock is held.
func (s *Session) runBots() {
	for s.state == Playing {
		seat := s.env.ActivePlayer()
		bot := s.bots[seat]
		if bot == nil {
			return
		}
		s.play(seat, bot.Act(s.env.ObservationFor(seat)))
	}
}

// endGame finalizes the hand and records it. Assumes lock is held.
func (s *Session) endGame(reason string) {
	s.state = GameOver
	scores := s.env.Scores()
	winner := s.env.Winner()
	s.finish(winner, scores, reason)
}

func (s *Session) finish(winner int, scores [2]int, reason string) {
	var winnerID string
	if winner >= 0 {
		winnerID = s.Players[winner].ID
	}
	s.log.Info("session over", zap.Ints("scores", scores[:]), zap.Int("winner", winner), zap.String("reason", reason))
	if s.onFinish != nil {
		s.onFinish()
	}

	overMsg, _ := protocol.NewMessage(protocol.TypeGameOver, protocol.GameOverPayload{
		WinnerID: winnerID,
		Scores:   scores,
		Reason:   reason,
	})
	s.broadcast(overMsg)

	if s.recorder == nil {
		return
	}
	result := HandResult{
		GameID:     s.ID,
		Players:    [2]string{s.Players[0].Name, s.Players[1].Name},
		Scores:     scores,
		Winner:     winner,
		Tricks:     s.env.TrickCount(),
		Seed:       s.env.Seed(),
		Reason:     reason,
		FinishedAt: time.Now().UTC(),
	}
	if err := s.recorder.RecordResult(result); err != nil {
		s.log.Error("failed to record result", zap.Error(err))
	}
}

// HandlePlayerDisconnect handles a player leaving mid-game: the other seat
// wins by forfeit.
func (s *Session) HandlePlayerDisconnect(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == GameOver {
		s.log.Debug("disconnect after game over", zap.String("client_id", clientID))
		return
	}
	seat := s.GetPlayerIndex(clientID)
	if seat == -1 {
		s.log.Debug("disconnect from unknown client", zap.String("client_id", clientID))
		return
	}
	s.log.Info("player disconnected", zap.String("client_id", clientID), zap.String("name", s.Players[seat].Name))
	s.state = GameOver

	leftMsg, _ := protocol.NewMessage(protocol.TypePlayerLeft, protocol.PlayerLeftPayload{PlayerID: clientID})
	s.broadcast(leftMsg)
	s.finish(1-seat, s.env.Scores(), "forfeit")
}

// State returns the session lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Scores returns both players' current points.
func (s *Session) Scores() [2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env.Scores()
}

// --- Messaging Helpers (Assume lock is held) ---

// broadcast sends a message to every client seat.
func (s *Session) broadcast(message []byte) {
	for i := range s.Players {
		s.sendToSeat(i, message)
	}
}

func (s *Session) sendToSeat(seat int, message []byte) {
	if s.bots[seat] != nil {
		return
	}
	s.sendToPlayer(s.Players[seat].ID, message)
}

// sendToPlayer sends a message to a specific player by ID.
func (s *Session) sendToPlayer(playerID string, message []byte) {
	if s.sendMessage == nil {
		s.log.Warn("no sender set", zap.String("player_id", playerID))
		return
	}
	s.sendMessage(playerID, message)
}

// sendErrorToPlayer sends an error message to a specific player.
func (s *Session) sendErrorToPlayer(playerID string, errorMsg string) {
	msgBytes, err := protocol.NewMessage(protocol.TypeError, protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		s.log.Error("failed to build error message", zap.Error(err))
		return
	}
	s.sendToPlayer(playerID, msgBytes)
}

// sendObservations gives every client seat its own view and tells the
// active seat to move.
func (s *Session) sendObservations() {
	for seat := range s.Players {
		if s.bots[seat] != nil {
			continue
		}
		obs := s.env.ObservationFor(seat)
		obsMsg, err := protocol.NewMessage(protocol.TypeObservation, protocol.ObservationPayload{
			Observation: obs,
			Encoded:     obs.Encode(),
		})
		if err != nil {
			s.log.Error("failed to build observation", zap.Error(err))
			continue
		}
		s.sendToSeat(seat, obsMsg)
	}

	active := s.env.ActivePlayer()
	if s.bots[active] != nil {
		return
	}
	turnMsg, _ := protocol.NewMessage(protocol.TypeYourTurn, protocol.YourTurnPayload{
		PlayerID: s.Players[active].ID,
		HandSize: len(s.Players[active].Hand),
	})
	s.sendToSeat(active, turnMsg)
}

// GetPlayerIndex finds the seat of a player by their ID. Returns -1 if not found.
func (s *Session) GetPlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p != nil && p.ID == playerID {
			return i
		}
	}
	return -1
}
