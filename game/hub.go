package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks the live connections and delivers outbound events to them.
type Hub struct {
	locker  sync.RWMutex
	players map[string]*Player
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		players: make(map[string]*Player),
		log:     log,
	}
}

func (h *Hub) Register(p *Player) {
	h.locker.Lock()
	h.players[p.ID()] = p
	h.locker.Unlock()
}

func (h *Hub) Unregister(id string) {
	h.locker.Lock()
	delete(h.players, id)
	h.locker.Unlock()
}

func (h *Hub) Count() int {
	h.locker.RLock()
	defer h.locker.RUnlock()
	return len(h.players)
}

// Dispatch encodes each task once and queues it for every recipient. A
// recipient whose buffer is full is disconnected.
func (h *Hub) Dispatch(tasks []Outbound) {
	for _, task := range tasks {
		data, err := json.Marshal(ServerEnvelope{Event: task.Event, Data: task.Payload})
		if err != nil {
			h.log.Error().Err(err).Str("event", task.Event).Msg("failed to encode event")
			continue
		}

		h.locker.RLock()
		for _, id := range task.To {
			p, ok := h.players[id]
			if !ok {
				continue
			}
			if err := p.Send(data); errors.Is(err, ErrSendBufferFull) {
				h.log.Warn().Str("conn", id).Msg("slow consumer, disconnecting")
				p.CancelAndRelease()
			}
		}
		h.locker.RUnlock()
	}
}

func (h *Hub) PingAll() {
	h.locker.RLock()
	defer h.locker.RUnlock()
	for _, p := range h.players {
		p.Ping()
	}
}

// RunPinger pings every connection each pingPeriod until ctx is done.
func (h *Hub) RunPinger(ctx context.Context, clock Clock) {
	ticks, stop := clock.NewTicker(pingPeriod)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			h.PingAll()
		}
	}
}

func (h *Hub) CloseAll() {
	h.locker.RLock()
	defer h.locker.RUnlock()
	for _, p := range h.players {
		p.CancelAndRelease()
	}
}
