// Package realtime fans live events out to connected admin sessions. Delivery
// is at most once: a session that fails a send is dropped and must re-fetch
// state after reconnecting.
package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrDeliveryFailed marks a send that did not reach the session.
var ErrDeliveryFailed = errors.New("live delivery failed")

// Event represents a live event sent to subscribers
type Event struct {
	Name   string      `json:"event"`
	Data   interface{} `json:"data,omitempty"`
	SentAt time.Time   `json:"sent_at"`
}

// Session is one connected client, whatever the transport.
type Session interface {
	ID() string
	Send(ev Event) error
	Close() error
}

// Hub manages live sessions per topic and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]Session
	logger      *slog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]map[string]Session),
		logger:      logger,
	}
}

// Subscribe registers s on topic. Re-subscribing the same session id replaces it.
func (h *Hub) Subscribe(topic string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[string]Session)
	}
	h.subscribers[topic][s.ID()] = s
}

// Unsubscribe removes a session and reports whether it was registered.
func (h *Hub) Unsubscribe(topic, sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[topic]
	if !ok {
		return false
	}
	if _, ok := subs[sessionID]; !ok {
		return false
	}
	delete(subs, sessionID)
	if len(subs) == 0 {
		delete(h.subscribers, topic)
	}
	return true
}

// Publish sends ev to every session subscribed to topic and returns how many
// accepted it. Sessions that fail are deregistered and closed; they are never
// retried.
func (h *Hub) Publish(topic string, ev Event) int {
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now().UTC()
	}

	h.mu.RLock()
	subs := make([]Session, 0, len(h.subscribers[topic]))
	for _, s := range h.subscribers[topic] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if err := s.Send(ev); err != nil {
			h.drop(topic, s, err)
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) drop(topic string, s Session, err error) {
	if !errors.Is(err, ErrDeliveryFailed) {
		err = fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	h.remove(topic, s)
	_ = s.Close()

	h.logger.Warn("live session dropped",
		slog.String("topic", topic),
		slog.String("session_id", s.ID()),
		slog.String("error", err.Error()),
	)
}

// remove deregisters s only if it is still the session registered under its
// id, so a late failure never drops a replacement.
func (h *Hub) remove(topic string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[topic]
	if current, ok := subs[s.ID()]; !ok || current != s {
		return
	}
	delete(subs, s.ID())
	if len(subs) == 0 {
		delete(h.subscribers, topic)
	}
}

// SubscriberCount returns the number of sessions on topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// TotalSubscribers returns the number of sessions across all topics
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// CloseAll closes and removes every session.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subscribers := h.subscribers
	h.subscribers = make(map[string]map[string]Session)
	h.mu.Unlock()

	for _, subs := range subscribers {
		for _, s := range subs {
			_ = s.Close()
		}
	}
}
