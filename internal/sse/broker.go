// Package sse streams session and file change events to connected UI
// clients over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// treeThrottle coalesces bursts of file-system events into at most one
// tree.updated per window, so a large copy does not flood clients.
const treeThrottle = 250 * time.Millisecond

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Broker fans events out to subscribers. All client state is owned by
// the run loop; the exported methods only pass messages to it.
type Broker struct {
	logger *slog.Logger

	subscribe   chan chan Event
	unsubscribe chan chan Event
	publish     chan Event
	count       chan chan int
	done        chan struct{}
	closeOnce   sync.Once
}

// NewBroker starts a broker and its dispatch loop.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		logger:      logger,
		subscribe:   make(chan chan Event),
		unsubscribe: make(chan chan Event),
		publish:     make(chan Event, 64),
		count:       make(chan chan int),
		done:        make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	clients := make(map[chan Event]struct{})
	var treeTimer <-chan time.Time
	treePending := false

	for {
		select {
		case <-b.done:
			for c := range clients {
				close(c)
			}
			return

		case c := <-b.subscribe:
			clients[c] = struct{}{}

		case c := <-b.unsubscribe:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c)
			}

		case ev := <-b.publish:
			if ev.Type == "tree.updated" {
				treePending = true
				if treeTimer == nil {
					treeTimer = time.After(treeThrottle)
				}
				continue
			}
			b.broadcast(clients, ev)

		case <-treeTimer:
			treeTimer = nil
			if treePending {
				treePending = false
				b.broadcast(clients, Event{Type: "tree.updated"})
			}

		case reply := <-b.count:
			reply <- len(clients)
		}
	}
}

func (b *Broker) broadcast(clients map[chan Event]struct{}, ev Event) {
	for c := range clients {
		select {
		case c <- ev:
		default:
			// Slow consumer: drop rather than stall the loop.
			b.logger.Warn("sse: dropping event for slow client", slog.String("type", ev.Type))
		}
	}
}

// Subscribe registers a new client channel.
func (b *Broker) Subscribe() chan Event {
	c := make(chan Event, 16)
	select {
	case b.subscribe <- c:
	case <-b.done:
		close(c)
	}
	return c
}

// Unsubscribe removes a client; the broker closes its channel.
func (b *Broker) Unsubscribe(c chan Event) {
	select {
	case b.unsubscribe <- c:
	case <-b.done:
	}
}

// Publish queues an event for all clients. tree.updated events are
// throttled; everything else is forwarded as-is.
func (b *Broker) Publish(ev Event) {
	select {
	case b.publish <- ev:
	case <-b.done:
	}
}

// PublishFileEvent forwards a file change and schedules a throttled
// tree refresh hint.
func (b *Broker) PublishFileEvent(kind, path string) {
	b.Publish(Event{Type: kind, Data: map[string]string{"path": path}})
	b.Publish(Event{Type: "tree.updated"})
}

// ClientCount reports the number of connected clients.
func (b *Broker) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case b.count <- reply:
		return <-reply
	case <-b.done:
		return 0
	}
}

// Close shuts the broker down and disconnects all clients.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.Subscribe()
	defer b.Unsubscribe(c)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-c:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				b.logger.Warn("sse: encode event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}
