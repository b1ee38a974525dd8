package game

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const sendBufferSize = 256

// EventRouter receives decoded client events for a connection.
type EventRouter interface {
	HandleEvent(connID string, envelope ClientEnvelope)
	HandleDisconnect(connID string)
}

// Player is one websocket connection. ReadPump and WritePump each run in their
// own goroutine; everything else may be called from anywhere.
type Player struct {
	id          string
	log         zerolog.Logger
	rateLimiter *rate.Limiter
	inbox       chan []byte
	pingChan    chan struct{}
	ctx         context.Context
	cancelCtx   context.CancelFunc
}

func NewPlayer(id string, log zerolog.Logger) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		id:          id,
		log:         log.With().Str("conn", id).Logger(),
		rateLimiter: rate.NewLimiter(1, 5),
		inbox:       make(chan []byte, sendBufferSize),
		pingChan:    make(chan struct{}, 1),
		ctx:         ctx,
		cancelCtx:   cancel,
	}
}

func (p *Player) ID() string {
	return p.id
}

// Send queues data without blocking.
func (p *Player) Send(data []byte) error {
	if p.ctx.Err() != nil {
		return ErrPlayerClosed
	}
	select {
	case p.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *Player) Ping() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// CancelAndRelease stops both pumps; the socket is closed by whichever pump
// exits first.
func (p *Player) CancelAndRelease() {
	p.cancelCtx()
}

func (p *Player) ReadPump(socket WebsocketConnection, router EventRouter) {
	defer func() {
		p.cancelCtx()
		socket.Close()
		router.HandleDisconnect(p.id)
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			p.log.Debug().Err(err).Msg("read pump stopped")
			return
		}
		if p.ctx.Err() != nil {
			return
		}

		var envelope ClientEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Event == "" {
			p.log.Debug().Msg("dropping malformed frame")
			continue
		}

		if envelope.Event == EventSendMessage && !p.rateLimiter.Allow() {
			p.log.Debug().Msg("chat rate limited")
			continue
		}

		router.HandleEvent(p.id, envelope)
	}
}

func (p *Player) WritePump(socket WebsocketConnection) {
	defer func() {
		p.cancelCtx()
		socket.Close()
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case data := <-p.inbox:
			if err := socket.Write(data); err != nil {
				p.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-p.pingChan:
			if err := socket.Ping(); err != nil {
				p.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
