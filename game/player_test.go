package game

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReadPump(t *testing.T) {
	t.Parallel()

	t.Run("Read Error", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		mockRouter := &MockEventRouter{}
		p := NewPlayer("id", zerolog.Nop())

		mockSocket.On("Read").Return([]byte{}, assert.AnError)
		mockSocket.On("Close").Return()
		mockRouter.On("HandleDisconnect", "id").Return().Once()

		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.ReadPump(mockSocket, mockRouter)
		})
		// on read error, the goroutine must release
		wg.Wait()

		mockSocket.AssertExpectations(t)
		mockRouter.AssertExpectations(t)
		assert.Error(t, p.ctx.Err())
	})

	t.Run("Cancelled Player Stops Reading", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		mockRouter := &MockEventRouter{}
		p := NewPlayer("id", zerolog.Nop())
		p.CancelAndRelease()

		mockSocket.On("Read").Return([]byte(`{"event":"drawing","data":{"room":"r1"}}`), nil)
		mockSocket.On("Close").Return()
		mockRouter.On("HandleDisconnect", "id").Return().Once()

		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.ReadPump(mockSocket, mockRouter)
		})
		wg.Wait()

		mockSocket.AssertNumberOfCalls(t, "Read", 1)
		mockRouter.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
	})

	t.Run("Read garbage data", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		mockRouter := &MockEventRouter{}
		p := NewPlayer("id", zerolog.Nop())

		mockSocket.On("Read").Return([]byte{1, 5}, nil).Once()
		mockSocket.On("Read").Return([]byte(`{"data":"no event"}`), nil).Once()
		mockSocket.On("Read").Return([]byte{}, assert.AnError).Once()
		mockSocket.On("Close").Return()
		mockRouter.On("HandleDisconnect", "id").Return().Once()

		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.ReadPump(mockSocket, mockRouter)
		})
		wg.Wait()

		mockSocket.AssertExpectations(t)
		mockRouter.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
	})

	t.Run("Read good data", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		mockRouter := &MockEventRouter{}
		p := NewPlayer("id", zerolog.Nop())

		mockSocket.On("Read").Return([]byte(`{"event":"join-room","data":{"roomId":"r1","name":"Alice"}}`), nil).Once()
		mockSocket.On("Read").Return([]byte{}, assert.AnError).Once()
		mockSocket.On("Close").Return()
		mockRouter.On("HandleEvent", "id", mock.AnythingOfType("ClientEnvelope")).Run(func(args mock.Arguments) {
			envelope := args.Get(1).(ClientEnvelope)
			assert.Equal(t, EventJoinRoom, envelope.Event)
			assert.JSONEq(t, `{"roomId":"r1","name":"Alice"}`, string(envelope.Data))
		}).Return().Once()
		mockRouter.On("HandleDisconnect", "id").Return().Once()

		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.ReadPump(mockSocket, mockRouter)
		})
		wg.Wait()

		mockSocket.AssertExpectations(t)
		mockRouter.AssertExpectations(t)
	})

	t.Run("Chat gets rate limited", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		mockRouter := &MockEventRouter{}
		p := NewPlayer("id", zerolog.Nop())

		frame := []byte(`{"event":"send-message","data":{"room":"r1","message":"hi","name":"Alice"}}`)
		mockSocket.On("Read").Return(frame, nil).Times(50)
		mockSocket.On("Read").Return([]byte{}, assert.AnError).Once()
		mockSocket.On("Close").Return()

		var delivered atomic.Int32
		mockRouter.On("HandleEvent", "id", mock.Anything).Run(func(mock.Arguments) {
			delivered.Add(1)
		}).Return()
		mockRouter.On("HandleDisconnect", "id").Return()

		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.ReadPump(mockSocket, mockRouter)
		})
		wg.Wait()

		// burst of 5, plus at most one refill if the loop was slow
		assert.InDelta(t, 5, delivered.Load(), 1)
		mockSocket.AssertExpectations(t)
	})

	t.Run("Stuff like drawing data doesn't get rate limited", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		mockRouter := &MockEventRouter{}
		p := NewPlayer("id", zerolog.Nop())

		frame := []byte(`{"event":"drawing","data":{"room":"r1","x":1,"y":2}}`)
		mockSocket.On("Read").Return(frame, nil).Times(50)
		mockSocket.On("Read").Return([]byte{}, assert.AnError).Once()
		mockSocket.On("Close").Return()
		mockRouter.On("HandleEvent", "id", mock.Anything).Return().Times(50)
		mockRouter.On("HandleDisconnect", "id").Return()

		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.ReadPump(mockSocket, mockRouter)
		})
		wg.Wait()

		mockSocket.AssertExpectations(t)
		mockRouter.AssertExpectations(t)
	})
}

func TestWritePump(t *testing.T) {
	t.Parallel()

	t.Run("Canceling and Releasing Must Release The Goroutine", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		mockSocket.On("Close").Return().Once()
		p := NewPlayer("id", zerolog.Nop())
		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.WritePump(mockSocket)
		})
		p.CancelAndRelease()
		wg.Wait()
		mockSocket.AssertExpectations(t)
	})

	t.Run("Write Error Releases The Goroutine", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		data := []byte(`{"event":"timer","data":3}`)

		mockSocket.On("Write", data).Return(assert.AnError).Once()
		mockSocket.On("Close").Return().Once()

		p := NewPlayer("id", zerolog.Nop())
		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.WritePump(mockSocket)
		})

		assert.NoError(t, p.Send(data))
		wg.Wait()

		mockSocket.AssertExpectations(t)
		assert.ErrorIs(t, p.Send(data), ErrPlayerClosed)
	})

	t.Run("Correct Data Writing", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		data := []byte(`{"event":"set-host"}`)

		// First write succeeds, second fails to trigger exit
		mockSocket.On("Write", data).Return(nil).Once()
		mockSocket.On("Write", data).Return(assert.AnError).Once()
		mockSocket.On("Close").Return().Once()

		p := NewPlayer("id", zerolog.Nop())
		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.WritePump(mockSocket)
		})
		p.Send(data)
		p.Send(data)
		wg.Wait()

		mockSocket.AssertExpectations(t)
	})

	t.Run("Correct Ping Writing", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}
		p := NewPlayer("id", zerolog.Nop())

		mockSocket.On("Ping").Return(nil).Run(func(mock.Arguments) {
			p.CancelAndRelease()
		}).Once()
		mockSocket.On("Close").Return().Once()

		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.WritePump(mockSocket)
		})

		p.Ping()
		wg.Wait()

		mockSocket.AssertExpectations(t)
	})

	t.Run("Ping Writing Must Release", func(t *testing.T) {
		t.Parallel()
		mockSocket := &MockWebsocketConnection{}

		mockSocket.On("Ping").Return(assert.AnError).Once()
		mockSocket.On("Close").Return().Once()

		p := NewPlayer("id", zerolog.Nop())
		wg := sync.WaitGroup{}
		wg.Go(func() {
			p.WritePump(mockSocket)
		})

		p.Ping()
		wg.Wait()

		mockSocket.AssertExpectations(t)
	})
}

func TestPlayerSend(t *testing.T) {
	t.Parallel()
	p := NewPlayer("id", zerolog.Nop())

	for range sendBufferSize {
		assert.NoError(t, p.Send([]byte("x")))
	}
	assert.ErrorIs(t, p.Send([]byte("x")), ErrSendBufferFull)

	p.CancelAndRelease()
	assert.ErrorIs(t, p.Send([]byte("x")), ErrPlayerClosed)
}
