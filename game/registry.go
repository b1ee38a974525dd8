package game

import (
	"errors"
	"sync"
)

// RoomFactory builds a fresh room for the given id.
type RoomFactory func(id string) *Room

// Registry maps room ids to live rooms. The registry lock is always taken
// before a room lock, never the other way around.
type Registry struct {
	locker   sync.Mutex
	rooms    map[string]*Room
	newRoom  RoomFactory
	shutdown bool
}

func NewRegistry(factory RoomFactory) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		newRoom: factory,
	}
}

func (reg *Registry) GetOrCreate(id string) (*Room, error) {
	reg.locker.Lock()
	defer reg.locker.Unlock()

	if reg.shutdown {
		return nil, ErrShuttingDown
	}
	if room, exists := reg.rooms[id]; exists {
		return room, nil
	}
	room := reg.newRoom(id)
	reg.rooms[id] = room
	return room, nil
}

func (reg *Registry) Get(id string) (*Room, bool) {
	reg.locker.Lock()
	defer reg.locker.Unlock()
	room, exists := reg.rooms[id]
	return room, exists
}

// DeleteIfEmpty removes the room when it has no members left. A room that
// was already replaced under the same id is left alone.
func (reg *Registry) DeleteIfEmpty(id string) bool {
	reg.locker.Lock()
	defer reg.locker.Unlock()

	room, exists := reg.rooms[id]
	if !exists {
		return false
	}
	if !room.CloseIfEmpty() {
		return false
	}
	delete(reg.rooms, id)
	return true
}

// Join adds the connection to the room, creating it if needed. A room torn
// down between lookup and join is looked up again.
func (reg *Registry) Join(id, connID, name string) (*Room, []Outbound, error) {
	for {
		room, err := reg.GetOrCreate(id)
		if err != nil {
			return nil, nil, err
		}
		out, err := room.AddUser(connID, name)
		if errors.Is(err, ErrRoomClosed) {
			reg.forget(id, room)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return room, out, nil
	}
}

func (reg *Registry) forget(id string, room *Room) {
	reg.locker.Lock()
	defer reg.locker.Unlock()
	if reg.rooms[id] == room {
		delete(reg.rooms, id)
	}
}

// Stats reports the number of live rooms and the members across them.
func (reg *Registry) Stats() (rooms, members int) {
	reg.locker.Lock()
	defer reg.locker.Unlock()

	for _, room := range reg.rooms {
		members += room.MemberCount()
	}
	return len(reg.rooms), members
}

// Shutdown closes every room. Later joins fail with ErrShuttingDown.
func (reg *Registry) Shutdown() {
	reg.locker.Lock()
	defer reg.locker.Unlock()

	reg.shutdown = true
	for id, room := range reg.rooms {
		room.Close()
		delete(reg.rooms, id)
	}
}
