package game

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close() {
	m.Called()
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- EventRouter ---

type MockEventRouter struct {
	mock.Mock
}

func (m *MockEventRouter) HandleEvent(connID string, envelope ClientEnvelope) {
	m.Called(connID, envelope)
}

func (m *MockEventRouter) HandleDisconnect(connID string) {
	m.Called(connID)
}

// --- Clock ---

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

// fakeClock hands out tick channels the test drives by hand and keeps
// AfterFunc callbacks until FirePending runs them.
type fakeClock struct {
	locker  sync.Mutex
	tickers []chan time.Time
	timers  []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	c.locker.Lock()
	c.tickers = append(c.tickers, ch)
	c.locker.Unlock()
	return ch, func() {}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := &fakeTimer{delay: d, f: f}
	c.locker.Lock()
	c.timers = append(c.timers, t)
	c.locker.Unlock()

	return func() bool {
		c.locker.Lock()
		defer c.locker.Unlock()
		pending := !t.stopped && !t.fired
		t.stopped = true
		return pending
	}
}

// Ticker returns the channel of the most recent ticker.
func (c *fakeClock) Ticker() chan time.Time {
	c.locker.Lock()
	defer c.locker.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// Pending lists the delays of timers that are neither stopped nor fired.
func (c *fakeClock) Pending() []time.Duration {
	c.locker.Lock()
	defer c.locker.Unlock()
	var delays []time.Duration
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			delays = append(delays, t.delay)
		}
	}
	return delays
}

// FirePending runs every live timer on the calling goroutine.
func (c *fakeClock) FirePending() int {
	c.locker.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.locker.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

// FireAll runs every timer ever scheduled, stopped ones included, the way a
// timer that lost the race with Stop would.
func (c *fakeClock) FireAll() {
	c.locker.Lock()
	all := append([]*fakeTimer(nil), c.timers...)
	c.locker.Unlock()

	for _, t := range all {
		t.f()
	}
}

// --- Dispatcher ---

type recordingDispatcher struct {
	locker sync.Mutex
	tasks  []Outbound
}

func (d *recordingDispatcher) Dispatch(tasks []Outbound) {
	d.locker.Lock()
	d.tasks = append(d.tasks, tasks...)
	d.locker.Unlock()
}

// Take returns the recorded tasks and forgets them.
func (d *recordingDispatcher) Take() []Outbound {
	d.locker.Lock()
	defer d.locker.Unlock()
	tasks := d.tasks
	d.tasks = nil
	return tasks
}
