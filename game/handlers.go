package game

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type GameHandler struct {
	service  *Service
	hub      *Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewGameHandler(service *Service, hub *Hub, allowedOrigins []string, log zerolog.Logger) *GameHandler {
	return &GameHandler{
		service: service,
		hub:     hub,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// WebsocketHandler upgrades the request and runs the connection's pumps.
func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	player := NewPlayer(uuid.NewString(), h.log)
	socket := NewGorillaWebSocketWrapper(conn)
	h.hub.Register(player)
	h.log.Debug().Str("conn", player.ID()).Str("ip", ctx.ClientIP()).Msg("connection opened")

	go player.WritePump(socket)
	go player.ReadPump(socket, h.service)
}

type statusResponse struct {
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	ActiveRooms int       `json:"activeRooms"`
	TotalUsers  int       `json:"totalUsers"`
}

func (h *GameHandler) StatusHandler(ctx *gin.Context) {
	rooms, users := h.service.Stats()
	ctx.JSON(http.StatusOK, statusResponse{
		Message:     "Doodle What Backend Server is running!",
		Timestamp:   time.Now().UTC(),
		ActiveRooms: rooms,
		TotalUsers:  users,
	})
}
