package game

import "errors"

var (
	ErrRoomClosed    = errors.New("room-closed")
	ErrAlreadyInRoom = errors.New("already-in-room")
	ErrShuttingDown  = errors.New("shutting-down")
)

var (
	ErrSendBufferFull = errors.New("send-buffer-full")
	ErrPlayerClosed   = errors.New("player-closed")
)
