package server

import (
	"math/rand/v2"
	"strings"
	"sync"

	"briscola-env/internal/agent"
	"briscola-env/internal/game"
	"briscola-env/internal/protocol"
	"briscola-env/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

const (
	gameCodeLength = 5 // Length of the unique game code
	seatsPerGame   = 2
)

// HubOptions configures the sessions a Hub creates.
type HubOptions struct {
	Recorder   game.ResultRecorder
	TrickLimit int
	DefaultBot string
	Logger     *zap.Logger
}

// Hub manages active WebSocket connections, lobbies, and game sessions.
type Hub struct {
	clients        map[*Client]bool
	lobbies        map[string][]*Client     // Map game code to list of clients in the lobby
	games          map[string]*game.Session // Map game code to session
	clientToGame   map[*Client]string       // Map client to game code (lobby or active game)
	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client
	clientMu       sync.RWMutex
	lobbyMu        sync.RWMutex
	gameMu         sync.RWMutex
	rng            *rand.Rand
	opts           HubOptions
	log            *zap.Logger
}

// NewHub creates a new Hub instance.
func NewHub(opts HubOptions) *Hub {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:        make(map[*Client]bool),
		lobbies:        make(map[string][]*Client),
		games:          make(map[string]*game.Session),
		clientToGame:   make(map[*Client]string),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		rng:            rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		opts:           opts,
		log:            log,
	}
}

// generateGameCode creates a unique alphanumeric game code.
func (h *Hub) generateGameCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		var sb strings.Builder
		for i := 0; i < gameCodeLength; i++ {
			sb.WriteByte(letters[h.rng.IntN(len(letters))])
		}
		code := sb.String()

		h.lobbyMu.RLock()
		_, lobbyExists := h.lobbies[code]
		h.lobbyMu.RUnlock()

		h.gameMu.RLock()
		_, gameExists := h.games[code]
		h.gameMu.RUnlock()

		if !lobbyExists && !gameExists {
			return code
		}
		h.log.Debug("game code collided, retrying", zap.String("code", code))
	}
}

// Run starts the Hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.log.Info("client connected", zap.String("client_id", client.ID), zap.String("remote", client.remoteAddr()))
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientMu.Unlock()

		case client := <-h.unregister:
			h.removeClient(client)

		case clientMsg := <-h.processMessage:
			h.handleMessage(clientMsg.client, clientMsg.message)
		}
	}
}

// removeClient drops a client and notifies its lobby or session.
func (h *Hub) removeClient(client *Client) {
	h.clientMu.Lock()
	gameCode, inGameOrLobby := h.clientToGame[client]
	_, clientExists := h.clients[client]
	if clientExists {
		delete(h.clients, client)
		delete(h.clientToGame, client)
		close(client.send)
		h.log.Info("client disconnected", zap.String("client_id", client.ID), zap.String("name", client.Name))
	}
	h.clientMu.Unlock()

	if !inGameOrLobby {
		return
	}

	h.lobbyMu.Lock()
	if lobby, ok := h.lobbies[gameCode]; ok {
		newLobby := make([]*Client, 0, len(lobby))
		for _, c := range lobby {
			if c != client {
				newLobby = append(newLobby, c)
			}
		}
		if len(newLobby) > 0 {
			h.lobbies[gameCode] = newLobby
			h.lobbyMu.Unlock()
			h.broadcastLobbyUpdate(gameCode, newLobby)
		} else {
			delete(h.lobbies, gameCode)
			h.lobbyMu.Unlock()
			h.log.Debug("lobby deleted", zap.String("code", gameCode))
		}
		return
	}
	h.lobbyMu.Unlock()

	h.gameMu.RLock()
	session, ok := h.games[gameCode]
	h.gameMu.RUnlock()
	if !ok {
		h.log.Debug("client mapped to unknown game", zap.String("client_id", client.ID), zap.String("code", gameCode))
		return
	}
	session.HandlePlayerDisconnect(client.ID)
}

// handleMessage processes a message received from a client.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeCreateGame:
		h.handleCreateGame(client, msg)
	case protocol.TypeJoinGame:
		h.handleJoinGame(client, msg)
	case protocol.TypePlayCard:
		h.handleGameAction(client, msg)
	case protocol.TypePing:
		pongMsg, _ := protocol.NewMessage(protocol.TypePong, nil)
		h.sendMessageToClient(client.ID, pongMsg)
	default:
		h.log.Debug("unknown message type", zap.String("type", msg.Type), zap.String("client_id", client.ID))
		h.sendErrorToClient(client, "Unknown message type.")
	}
}

// handleCreateGame opens a lobby, or starts a session at once against a bot.
func (h *Hub) handleCreateGame(client *Client, msg protocol.Message) {
	h.clientMu.RLock()
	_, alreadyInGame := h.clientToGame[client]
	h.clientMu.RUnlock()
	if alreadyInGame {
		h.sendErrorToClient(client, "Already in a game or lobby.")
		return
	}

	var payload protocol.CreateGamePayload
	if err := msg.Decode(&payload); err != nil {
		h.log.Debug("bad create_game payload", zap.String("client_id", client.ID), zap.Error(err))
		h.sendErrorToClient(client, "Invalid create_game message format.")
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		h.sendErrorToClient(client, "Name cannot be empty.")
		return
	}

	var bot agent.Agent
	if payload.VsBot {
		kind := payload.Bot
		if kind == "" {
			kind = h.opts.DefaultBot
		}
		var err error
		bot, err = agent.New(kind, h.rng.Uint64())
		if err != nil {
			h.sendErrorToClient(client, "Unknown bot.")
			return
		}
	}

	gameCode := h.generateGameCode()
	h.clientMu.Lock()
	client.Name = payload.Name
	client.seed = payload.Seed
	h.clientToGame[client] = gameCode
	h.clientMu.Unlock()

	createdMsg, _ := protocol.NewMessage(protocol.TypeGameCreated, protocol.GameCreatedPayload{GameCode: gameCode})
	h.sendMessageToClient(client.ID, createdMsg)
	h.log.Info("game created", zap.String("code", gameCode), zap.String("client_id", client.ID), zap.Bool("vs_bot", bot != nil))

	if bot != nil {
		botPlayer := shared.NewPlayer("bot-"+uuid.NewString(), bot.Name())
		players := [2]*shared.Player{shared.NewPlayer(client.ID, client.Name), botPlayer}
		h.startSession(gameCode, players, [2]game.Bot{nil, bot}, payload.Seed)
		return
	}

	h.lobbyMu.Lock()
	h.lobbies[gameCode] = []*Client{client}
	h.lobbyMu.Unlock()
	h.broadcastLobbyUpdate(gameCode, []*Client{client})
}

// handleJoinGame seats a client in an existing lobby and starts the session
// once both seats are taken.
func (h *Hub) handleJoinGame(client *Client, msg protocol.Message) {
	h.clientMu.RLock()
	_, alreadyInGame := h.clientToGame[client]
	h.clientMu.RUnlock()
	if alreadyInGame {
		h.sendJoinError(client, "Already in a game or lobby.")
		return
	}

	var payload protocol.JoinGamePayload
	if err := msg.Decode(&payload); err != nil {
		h.sendJoinError(client, "Invalid join_game message format.")
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		h.sendJoinError(client, "Name cannot be empty.")
		return
	}
	if payload.GameCode == "" {
		h.sendJoinError(client, "Game code cannot be empty.")
		return
	}
	gameCode := strings.ToUpper(payload.GameCode)

	h.lobbyMu.Lock()
	lobby, ok := h.lobbies[gameCode]
	if !ok {
		h.lobbyMu.Unlock()
		h.sendJoinError(client, "Game code not found.")
		return
	}
	if len(lobby) >= seatsPerGame {
		h.lobbyMu.Unlock()
		h.sendJoinError(client, "Game lobby is full.")
		return
	}
	for _, existing := range lobby {
		if existing.Name == payload.Name {
			h.lobbyMu.Unlock()
			h.sendJoinError(client, "Name already taken in this lobby.")
			return
		}
	}
	client.Name = payload.Name
	lobby = append(lobby, client)
	full := len(lobby) == seatsPerGame
	if full {
		delete(h.lobbies, gameCode)
	} else {
		h.lobbies[gameCode] = lobby
	}
	h.lobbyMu.Unlock()

	h.clientMu.Lock()
	h.clientToGame[client] = gameCode
	h.clientMu.Unlock()

	h.log.Info("client joined lobby", zap.String("code", gameCode), zap.String("client_id", client.ID), zap.Int("size", len(lobby)))
	h.broadcastToClients(lobby, lobbyUpdateMessage(lobby))

	if full {
		players := [2]*shared.Player{
			shared.NewPlayer(lobby[0].ID, lobby[0].Name),
			shared.NewPlayer(lobby[1].ID, lobby[1].Name),
		}
		h.startSession(gameCode, players, [2]game.Bot{}, lobby[0].seed)
	}
}

// startSession registers a session under gameCode and deals.
func (h *Hub) startSession(gameCode string, players [2]*shared.Player, bots [2]game.Bot, seed uint64) {
	var session *game.Session
	session = game.NewSession(players, game.SessionOptions{
		Bots:       bots,
		Seed:       seed,
		TrickLimit: h.opts.TrickLimit,
		Recorder:   h.opts.Recorder,
		Logger:     h.log,
		OnFinish:   func() { h.releaseGame(gameCode, session) },
	})
	h.gameMu.Lock()
	h.games[gameCode] = session
	h.gameMu.Unlock()

	h.log.Info("session created", zap.String("code", gameCode), zap.String("game_id", session.ID))
	go session.Start(h.sendMessageToClient)
}

// handleGameAction forwards play_card to the client's session.
func (h *Hub) handleGameAction(client *Client, msg protocol.Message) {
	h.clientMu.RLock()
	gameCode, inGame := h.clientToGame[client]
	h.clientMu.RUnlock()
	if !inGame {
		h.sendErrorToClient(client, "You are not in an active game or lobby.")
		return
	}

	h.gameMu.RLock()
	session, ok := h.games[gameCode]
	h.gameMu.RUnlock()
	if !ok {
		h.sendErrorToClient(client, "Game not found or not active.")
		return
	}
	session.HandlePlayerAction(client.ID, msg)
}

// releaseGame forgets a finished session and frees its clients to create
// or join another game.
func (h *Hub) releaseGame(gameCode string, session *game.Session) {
	h.gameMu.Lock()
	if h.games[gameCode] == session {
		delete(h.games, gameCode)
	}
	h.gameMu.Unlock()

	h.clientMu.Lock()
	for c, code := range h.clientToGame {
		if code == gameCode {
			delete(h.clientToGame, c)
		}
	}
	h.clientMu.Unlock()
	h.log.Debug("game released", zap.String("code", gameCode), zap.String("game_id", session.ID))
}

// sendMessageToClient allows sessions to send messages back via the hub/client.
// This is passed as a callback to the session.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	var target *Client
	for client := range h.clients {
		if client.ID == clientID {
			target = client
			break
		}
	}
	if target == nil {
		h.clientMu.RUnlock()
		h.log.Debug("no client for message", zap.String("client_id", clientID))
		return
	}
	// Sending under the read lock keeps removeClient from closing the channel mid-send.
	select {
	case target.send <- message:
		h.clientMu.RUnlock()
	default:
		h.clientMu.RUnlock()
		h.log.Warn("client send buffer full, dropping client", zap.String("client_id", clientID))
		go func() { h.unregister <- target }()
	}
}

func lobbyUpdateMessage(lobby []*Client) []byte {
	infos := make([]protocol.PlayerInfo, len(lobby))
	for i, c := range lobby {
		infos[i] = protocol.PlayerInfo{ID: c.ID, Name: c.Name, Position: i}
	}
	msg, _ := protocol.NewMessage(protocol.TypeLobbyUpdate, protocol.LobbyUpdatePayload{Players: infos})
	return msg
}

// broadcastLobbyUpdate sends the current list of players in the lobby.
func (h *Hub) broadcastLobbyUpdate(gameCode string, lobby []*Client) {
	h.log.Debug("lobby update", zap.String("code", gameCode), zap.Int("size", len(lobby)))
	h.broadcastToClients(lobby, lobbyUpdateMessage(lobby))
}

func (h *Hub) broadcastToClients(clients []*Client, message []byte) {
	for _, c := range clients {
		h.sendMessageToClient(c.ID, message)
	}
}

// sendErrorToClient sends a generic error message to a specific client.
func (h *Hub) sendErrorToClient(client *Client, errorMsg string) {
	msg, err := protocol.NewMessage(protocol.TypeError, protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		h.log.Error("failed to build error message", zap.Error(err))
		return
	}
	h.sendMessageToClient(client.ID, msg)
}

// sendJoinError sends a specific join error message to a client.
func (h *Hub) sendJoinError(client *Client, errorMsg string) {
	msg, err := protocol.NewMessage(protocol.TypeJoinError, protocol.JoinErrorPayload{Message: errorMsg})
	if err != nil {
		h.log.Error("failed to build join_error message", zap.Error(err))
		return
	}
	h.sendMessageToClient(client.ID, msg)
}
