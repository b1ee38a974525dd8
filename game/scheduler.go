package game

import (
	"sync"
	"time"
)

const tickInterval = time.Second

// RoundScheduler counts a single round down once per second. It is started
// at most once; a new round gets a new scheduler.
type RoundScheduler struct {
	clock      Clock
	cancelled  chan struct{}
	cancelOnce sync.Once
}

func NewRoundScheduler(clock Clock) *RoundScheduler {
	return &RoundScheduler{
		clock:     clock,
		cancelled: make(chan struct{}),
	}
}

// Start calls onTick with the seconds remaining after every tick and onExpire
// exactly once when the count reaches zero. Neither callback runs after
// Cancel has returned, except a callback already in flight.
func (s *RoundScheduler) Start(seconds int, onTick func(remaining int), onExpire func()) {
	ticks, stop := s.clock.NewTicker(tickInterval)

	go func() {
		defer stop()
		remaining := seconds

		for remaining > 0 {
			select {
			case <-s.cancelled:
				return
			case <-ticks:
			}

			// a tick and a cancel can be ready together, cancel wins
			select {
			case <-s.cancelled:
				return
			default:
			}

			remaining--
			onTick(remaining)
		}

		select {
		case <-s.cancelled:
			return
		default:
		}
		s.Cancel()
		onExpire()
	}()
}

// Cancel stops the countdown. Calling it again, or after expiry, does nothing.
func (s *RoundScheduler) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelled) })
}
