// internal/events/hub.go
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/sirupsen/logrus"
)

// subscriberBuffer is how many events a slow subscriber may lag before drops.
const subscriberBuffer = 64

// Hub broadcasts events to live websocket subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan models.Event
	logger *logrus.Logger
}

// NewHub returns a hub with no subscribers.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]chan models.Event),
		logger: logger,
	}
}

// Subscribe registers a new listener. The channel is closed by Unsubscribe.
func (h *Hub) Subscribe() (uuid.UUID, <-chan models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := uuid.New()
	ch := make(chan models.Event, subscriberBuffer)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Close drops every listener. Streams see their channel close.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Subscribers reports the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(_ context.Context, events []models.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
				h.logger.WithFields(logrus.Fields{
					"subscriber": id,
					"tx_id":      ev.TxID,
					"type":       ev.Type,
				}).Warn("event subscriber full, dropped event")
			}
		}
	}
	return nil
}
