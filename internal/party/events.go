package party

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventChanged         EventKind = "changed"
	EventReset           EventKind = "reset"
	EventResponseStarted EventKind = "response_started"
	EventTimerTick       EventKind = "timer_tick"
	EventTimerExpired    EventKind = "timer_expired"
)

// Event notifies observers that a party's state changed. Remaining is only
// set for timer ticks.
type Event struct {
	Kind      EventKind
	PartyID   uuid.UUID
	Party     *Party
	Remaining time.Duration
}

type Handler func(Event)

// Notifier is what a party needs to announce its own timer events.
type Notifier interface {
	Publish(Event)
}

type subscription struct {
	id      uint64
	handler Handler
}

// Publisher is an in-process pub/sub for party events. Delivery is
// synchronous and follows registration order.
type Publisher struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (p *Publisher) Subscribe(h Handler) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscription{id: id, handler: h})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { p.unsubscribe(id) })
	}
}

func (p *Publisher) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subs {
		if s.id == id {
			p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every current subscriber. A panicking subscriber is
// logged and skipped; the remaining subscribers still receive the event.
func (p *Publisher) Publish(e Event) {
	if e.Party != nil && e.PartyID == uuid.Nil {
		e.PartyID = e.Party.ID()
	}

	p.mu.RLock()
	subs := p.subs
	p.mu.RUnlock()

	// Handlers run without the lock so they may subscribe or unsubscribe.
	for _, s := range subs {
		p.deliver(s, e)
	}
}

// Len returns the number of subscribers.
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

func (p *Publisher) deliver(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("party subscriber panicked",
				"party_id", e.PartyID,
				"event", e.Kind,
				"subscriber", s.id,
				"panic", r,
			)
		}
	}()
	s.handler(e)
}
