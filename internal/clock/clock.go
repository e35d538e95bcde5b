// Package clock provides the frame ticker that drives per-frame updates.
package clock

import (
	"context"
	"sync"
	"time"
)

// TickEvent is the event name handlers subscribe to.
const TickEvent = "tick"

// DefaultFrameRate is used when a non-positive rate is configured.
const DefaultFrameRate = 60

// Tick describes one frame.
type Tick struct {
	Frame uint64
	Time  time.Time
	Delta time.Duration
}

// Handler is called once per tick.
type Handler func(Tick)

// Token identifies a subscription.
type Token uint64

type subscription struct {
	token Token
	fn    Handler
}

// Ticker fans ticks out to subscribed handlers. Handlers run on the goroutine
// that calls Step or Run and may call On/Off themselves.
type Ticker struct {
	interval time.Duration

	mu    sync.Mutex
	next  Token
	subs  map[string][]subscription
	frame uint64
	last  time.Time
}

// New creates a ticker firing fps times per second.
func New(fps int) *Ticker {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &Ticker{
		interval: time.Second / time.Duration(fps),
		subs:     make(map[string][]subscription),
	}
}

// Interval returns the time between ticks.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// On subscribes fn to event and returns a token for Off.
func (t *Ticker) On(event string, fn Handler) Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.subs[event] = append(t.subs[event], subscription{token: t.next, fn: fn})
	return t.next
}

// Off removes the subscription identified by token.
func (t *Ticker) Off(event string, token Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.subs[event]
	for i, s := range list {
		if s.token != token {
			continue
		}
		next := make([]subscription, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		t.subs[event] = next
		return
	}
}

// Has reports whether event has subscribers.
func (t *Ticker) Has(event string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs[event]) > 0
}

// Step fires a single tick at now. Run calls it from its loop; tests and
// headless hosts call it directly.
func (t *Ticker) Step(now time.Time) {
	t.mu.Lock()
	t.frame++
	var delta time.Duration
	if !t.last.IsZero() {
		delta = now.Sub(t.last)
	}
	t.last = now
	tick := Tick{Frame: t.frame, Time: now, Delta: delta}
	subs := t.subs[TickEvent]
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(tick)
	}
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t.Step(now)
		}
	}
}
