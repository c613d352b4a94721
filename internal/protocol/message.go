package protocol

import (
	"encoding/json"

	"briscola-env/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Type of the message (e.g., "create_game", "play_card")
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, allows flexible structures
}

// Message types.
const (
	TypeCreateGame = "create_game"
	TypeJoinGame   = "join_game"
	TypePlayCard   = "play_card"
	TypePing       = "ping"

	TypePong        = "pong"
	TypeGameCreated = "game_created"
	TypeLobbyUpdate = "lobby_update"
	TypeJoinError   = "join_error"
	TypeGameStart   = "game_start"
	TypeObservation = "observation"
	TypeYourTurn    = "your_turn"
	TypeCardPlayed  = "card_played"
	TypeTrickEnd    = "trick_end"
	TypeGameOver    = "game_over"
	TypePlayerLeft  = "player_left"
	TypeError       = "error"
)

// --- Client -> Server Payload Structs ---

type CreateGamePayload struct {
	Name  string `json:"name"`
	VsBot bool   `json:"vs_bot"`         // Start immediately against a built-in agent
	Bot   string `json:"bot,omitempty"`  // random | greedy | neural
	Seed  uint64 `json:"seed,omitempty"` // Fixed shuffle seed, 0 for random
}

type JoinGamePayload struct {
	Name     string `json:"name"`
	GameCode string `json:"game_code"`
}

// PlayCardPayload selects a card by its position in the player's hand.
// Out-of-range positions play the first card.
type PlayCardPayload struct {
	Index int `json:"index"`
}

// --- Server -> Client Payload Structs ---

type GameCreatedPayload struct {
	GameCode string `json:"game_code"`
}

type LobbyUpdatePayload struct {
	Players []PlayerInfo `json:"players"`
}

type JoinErrorPayload struct {
	Message string `json:"message"`
}

type PlayerInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"` // Seat at the table (0 or 1)
	Bot      bool   `json:"bot,omitempty"`
}

type GameStartPayload struct {
	GameID    string       `json:"game_id"`
	Players   []PlayerInfo `json:"players"`
	Trump     shared.Suit  `json:"trump"`
	TrumpCard shared.Card  `json:"trump_card"`
	Seed      uint64       `json:"seed"`
}

// ObservationPayload carries a seat's view in both structured and encoded form.
type ObservationPayload struct {
	Observation interface{} `json:"observation"`
	Encoded     interface{} `json:"encoded"`
}

type YourTurnPayload struct {
	PlayerID string `json:"player_id"`
	HandSize int    `json:"hand_size"`
}

type CardPlayedPayload struct {
	PlayerID string      `json:"player_id"`
	Position int         `json:"position"`
	Card     shared.Card `json:"card"`
	Index    int         `json:"index"` // Index as requested by the player
}

type TrickEndPayload struct {
	Number   int                 `json:"number"`
	WinnerID string              `json:"winner_id"`
	Cards    []shared.PlayedCard `json:"cards"`
	Points   int                 `json:"points"`
	Reward   int                 `json:"reward"`
	Scores   [2]int              `json:"scores"`
}

type GameOverPayload struct {
	WinnerID string `json:"winner_id,omitempty"` // Empty on a tie
	Scores   [2]int `json:"scores"`
	Reason   string `json:"reason,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
}

// NewMessage marshals a typed payload into a message.
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
	return json.Marshal(msg)
}

// Decode unmarshals a message's payload into v.
func (m Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
