package game

import "time"

// Clock is the time source rooms and schedulers are built on. Tests swap it
// for a fake that fires on demand.
type Clock interface {
	// NewTicker returns the tick channel and a function releasing the ticker.
	NewTicker(d time.Duration) (<-chan time.Time, func())
	// AfterFunc runs f once after d. The returned function cancels it and
	// reports whether f was still pending.
	AfterFunc(d time.Duration, f func()) func() bool
}

type TickerGen struct{}

func NewTickerGen() TickerGen {
	return TickerGen{}
}

func (TickerGen) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (TickerGen) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
