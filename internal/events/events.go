// Package events defines the platform's event types and an in-process
// broadcast hub. Subscribers (the websocket stream, tests) receive every
// event published after they subscribe; slow subscribers drop events rather
// than block publishers.
package events

import (
	"sync"
	"time"
)

// EventType identifies an event variant
type EventType string

const (
	RunStarted      EventType = "run_started"
	RunCompleted    EventType = "run_completed"
	RunFailed       EventType = "run_failed"
	PricesUpdated   EventType = "prices_updated"
	BackupCompleted EventType = "backup_completed"
)

// Event is one published event with its typed payload.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// EventData is the interface that all event data types must implement
type EventData interface {
	EventType() EventType
}

// RunStartedData contains data for RunStarted events
type RunStartedData struct {
	RunID  string `json:"run_id"`
	Assets int    `json:"assets"`
}

// EventType returns the event type for RunStartedData
func (d *RunStartedData) EventType() EventType { return RunStarted }

// RunCompletedData contains data for RunCompleted events
type RunCompletedData struct {
	RunID        string   `json:"run_id"`
	Assets       int      `json:"assets"`
	DurationMs   int64    `json:"duration_ms"`
	PortfolioIRR *float64 `json:"portfolio_irr,omitempty"`
}

// EventType returns the event type for RunCompletedData
func (d *RunCompletedData) EventType() EventType { return RunCompleted }

// RunFailedData contains data for RunFailed events
type RunFailedData struct {
	RunID string `json:"run_id,omitempty"`
	Error string `json:"error"`
}

// EventType returns the event type for RunFailedData
func (d *RunFailedData) EventType() EventType { return RunFailed }

// PricesUpdatedData contains data for PricesUpdated events
type PricesUpdatedData struct {
	PointsWritten int `json:"points_written"`
}

// EventType returns the event type for PricesUpdatedData
func (d *PricesUpdatedData) EventType() EventType { return PricesUpdated }

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Archive string `json:"archive"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType { return BackupCompleted }

// subscriberBuffer bounds each subscriber's channel; events beyond it drop.
const subscriberBuffer = 16

// Hub broadcasts events to all current subscribers. Safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewHub creates a new event hub
func NewHub() *Hub {
	return &Hub{
		subs: make(map[chan Event]struct{}),
	}
}

// Publish sends an event to every subscriber. Never blocks: a subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called to release the subscription; after cancel the channel is closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
