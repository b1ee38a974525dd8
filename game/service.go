package game

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const defaultPlayerName = "Player"

// Service routes decoded client events to rooms. Rooms deliver what they
// produce through the hub themselves.
type Service struct {
	registry *Registry
	hub      *Hub
	log      zerolog.Logger

	locker sync.Mutex
	// conns maps a connection to the room it currently sits in.
	conns map[string]string
}

func NewService(registry *Registry, hub *Hub, log zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		hub:      hub,
		log:      log,
		conns:    make(map[string]string),
	}
}

func (s *Service) HandleEvent(connID string, envelope ClientEnvelope) {
	switch envelope.Event {
	case EventJoinRoom:
		var req joinRoomPayload
		if s.decode(envelope, &req) {
			s.join(connID, req)
		}
	case EventStartGame:
		var req startGamePayload
		if !s.decode(envelope, &req) {
			return
		}
		if room, ok := s.registry.Get(req.RoomID); ok {
			room.StartGame(connID, req.Rounds)
		}
	case EventSendMessage:
		var req sendMessagePayload
		if !s.decode(envelope, &req) {
			return
		}
		if room, ok := s.registry.Get(req.Room); ok {
			room.HandleMessage(connID, req.Message)
		}
	case EventDrawing:
		var req drawingPayload
		if !s.decode(envelope, &req) {
			return
		}
		if room, ok := s.registry.Get(req.Room); ok {
			room.Relay(connID, EventDrawing, envelope.Data)
		}
	case EventClear:
		roomID, ok := clearTarget(envelope.Data)
		if !ok {
			return
		}
		if room, ok := s.registry.Get(roomID); ok {
			room.Relay(connID, EventClear, nil)
		}
	default:
		s.log.Debug().Str("conn", connID).Str("event", envelope.Event).Msg("unknown event")
	}
}

// HandleDisconnect removes the connection from its room, deleting the room
// if it emptied.
func (s *Service) HandleDisconnect(connID string) {
	s.hub.Unregister(connID)
	s.leave(connID)
}

// Stats reports live rooms and the members across them.
func (s *Service) Stats() (rooms, members int) {
	return s.registry.Stats()
}

func (s *Service) decode(envelope ClientEnvelope, v any) bool {
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		s.log.Debug().Err(err).Str("event", envelope.Event).Msg("invalid payload")
		return false
	}
	return true
}

// clearTarget accepts both "roomId" and {"roomId": "..."}.
func clearTarget(data json.RawMessage) (string, bool) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err == nil {
		return roomID, roomID != ""
	}
	var req clearPayload
	if err := json.Unmarshal(data, &req); err == nil {
		return req.RoomID, req.RoomID != ""
	}
	return "", false
}

func (s *Service) join(connID string, req joinRoomPayload) {
	if req.RoomID == "" {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultPlayerName
	}

	s.locker.Lock()
	current, inRoom := s.conns[connID]
	s.locker.Unlock()
	if inRoom && current != req.RoomID {
		s.leave(connID)
	}

	_, _, err := s.registry.Join(req.RoomID, connID, name)
	switch {
	case errors.Is(err, ErrAlreadyInRoom):
		return
	case err != nil:
		s.log.Warn().Err(err).Str("conn", connID).Str("room", req.RoomID).Msg("join failed")
		return
	}

	s.locker.Lock()
	s.conns[connID] = req.RoomID
	s.locker.Unlock()
}

func (s *Service) leave(connID string) {
	s.locker.Lock()
	roomID, inRoom := s.conns[connID]
	delete(s.conns, connID)
	s.locker.Unlock()
	if !inRoom {
		return
	}

	room, ok := s.registry.Get(roomID)
	if !ok {
		return
	}
	if _, empty := room.RemoveUser(connID); empty && s.registry.DeleteIfEmpty(roomID) {
		s.log.Info().Str("room", roomID).Msg("room deleted")
	}
}
