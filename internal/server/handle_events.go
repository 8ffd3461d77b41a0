package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/playperu/speedgame/internal/party"
)

// initialEvent is the first message of every feed: the current party state.
func initialEvent(p *party.Party) []byte {
	snap := p.Snapshot()
	data, _ := json.Marshal(FeedEvent{Type: party.EventChanged, PartyID: p.ID(), Party: &snap})
	return data
}

func handleEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := partyFrom(r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := broker.Subscribe(p.ID())
		defer broker.Unsubscribe(p.ID(), ch)

		fmt.Fprintf(w, "event: party\ndata: %s\n\n", initialEvent(p))
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: party\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
