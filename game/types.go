package game

import (
	"encoding/json"
	"time"
)

type RoomPhase int

const (
	PhaseLobby RoomPhase = iota
	PhaseRoundActive
	PhaseRoundTransition
	PhaseGameOver
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseRoundActive:
		return "round-active"
	case PhaseRoundTransition:
		return "round-transition"
	case PhaseGameOver:
		return "game-over"
	}
	return "unknown"
}

// Inbound events.
const (
	EventJoinRoom    = "join-room"
	EventStartGame   = "start-game"
	EventDrawing     = "drawing"
	EventClear       = "clear"
	EventSendMessage = "send-message"
)

// Outbound events.
const (
	EventUserJoined     = "user-joined"
	EventUserList       = "user-list"
	EventSetHost        = "set-host"
	EventGameStarted    = "game-started"
	EventYourWord       = "your-word"
	EventTimer          = "timer"
	EventCorrectGuess   = "correct-guess"
	EventReceiveMessage = "receive-message"
	EventGameEnded      = "game-ended"
	EventUserLeft       = "user-left"
)

const systemSender = "🟢 System"

type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	HasGuessed bool   `json:"hasGuessed"`
}

// Outbound is one event the transport must deliver to the listed connections.
type Outbound struct {
	To      []string
	Event   string
	Payload any
}

// Dispatcher delivers outbound events. Rooms call it while holding their
// lock, so it must not block or call back into a room.
type Dispatcher interface {
	Dispatch(tasks []Outbound)
}

type RoomSettings struct {
	RoundDuration   int
	DefaultRounds   int
	ExpiryDelay     time.Duration
	EarlyEndDelay   time.Duration
	DrawerLeftDelay time.Duration
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		RoundDuration:   30,
		DefaultRounds:   3,
		ExpiryDelay:     2 * time.Second,
		EarlyEndDelay:   3 * time.Second,
		DrawerLeftDelay: 2 * time.Second,
	}
}

type GameStartedPayload struct {
	DrawerName string `json:"drawerName"`
	WordHint   string `json:"wordHint"`
	RoundsLeft int    `json:"roundsLeft"`
}

type CorrectGuessPayload struct {
	Guesser string `json:"guesser"`
}

type ChatPayload struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

type GameEndedPayload struct {
	Message string `json:"message"`
}

// ClientEnvelope is an inbound frame: {"event": "...", "data": ...}.
type ClientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ServerEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type startGamePayload struct {
	RoomID string `json:"roomId"`
	Rounds int    `json:"rounds"`
}

type sendMessagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

type drawingPayload struct {
	Room string `json:"room"`
}

type clearPayload struct {
	RoomID string `json:"roomId"`
}
