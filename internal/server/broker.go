package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/party"
)

// FeedEvent is the payload pushed to SSE and WebSocket subscribers.
type FeedEvent struct {
	Type             party.EventKind `json:"type"`
	PartyID          uuid.UUID       `json:"partyId"`
	RemainingSeconds *int            `json:"remainingSeconds,omitempty"`
	Party            *party.Snapshot `json:"party,omitempty"`
}

func newFeedEvent(e party.Event) FeedEvent {
	fe := FeedEvent{Type: e.Kind, PartyID: e.PartyID}
	if e.Kind == party.EventTimerTick {
		secs := int(e.Remaining.Seconds())
		fe.RemainingSeconds = &secs
		return fe
	}
	if e.Party != nil {
		snap := e.Party.Snapshot()
		fe.Party = &snap
	}
	return fe
}

// Broker fans party events out to feed subscribers, keyed by party ID.
type Broker struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan []byte]struct{}
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		logger: logger,
		subs:   make(map[uuid.UUID]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given party.
func (b *Broker) Subscribe(partyID uuid.UUID) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[partyID] == nil {
		b.subs[partyID] = make(map[chan []byte]struct{})
	}
	b.subs[partyID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the party's subscribers.
func (b *Broker) Unsubscribe(partyID uuid.UUID, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[partyID], ch)
	if len(b.subs[partyID]) == 0 {
		delete(b.subs, partyID)
	}
	b.mu.Unlock()
}

func (b *Broker) has(partyID uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[partyID]) > 0
}

// Handle is a party.Handler. Events for parties nobody watches are not
// encoded.
func (b *Broker) Handle(e party.Event) {
	if !b.has(e.PartyID) {
		return
	}
	data, err := json.Marshal(newFeedEvent(e))
	if err != nil {
		b.logger.Error("encoding feed event", "party_id", e.PartyID, "event", e.Kind, "error", err)
		return
	}
	b.publish(e.PartyID, data)
}

func (b *Broker) publish(partyID uuid.UUID, data []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[partyID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}
