package telemetry

import (
	"sync"
	"time"
)

// EventType identifies the kind of telemetry event.
type EventType string

const (
	EventSessionDialed         EventType = "session.dialed"
	EventSessionClosed         EventType = "session.closed"
	EventWorkflowAdopted       EventType = "workflow.adopted"
	EventWorkflowChained       EventType = "workflow.chained"
	EventWorkflowChainFailed   EventType = "workflow.chain_failed"
	EventWorkflowReleased      EventType = "workflow.released"
	EventWorkflowReleaseFailed EventType = "workflow.release_failed"
)

// Event describes handle lifecycle telemetry that sinks can consume.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"sessionId,omitempty"`
	Token     string         `json:"token,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

const subscriberBuffer = 64

// Hub fan-outs telemetry events to any number of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewHub constructs a telemetry hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Event]struct{})}
}

// Publish notifies all subscribers of an event. Non-blocking; drops if buffer
// full. A nil hub ignores the event.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel that will receive future events and a cleanup func.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		empty := make(chan Event)
		close(empty)
		return empty, func() {}
	}
	ch := make(chan Event, subscriberBuffer)
	h.subscribers[ch] = struct{}{}
	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Close unsubscribes all listeners and prevents future publications.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, ch)
	}
}
