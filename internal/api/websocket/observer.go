package websocket

import (
	"github.com/ramonehamilton/season-engine/internal/events"
)

// Observer forwards dispatched domain events to the hub.
type Observer struct {
	name   string
	hub    *Hub
	topics map[string]bool
}

// NewObserver creates an observer that forwards events of the given topics,
// or every event when no topic is given.
func NewObserver(hub *Hub, topics ...string) *Observer {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}
	return &Observer{name: "WebSocketObserver", hub: hub, topics: set}
}

// OnEvent broadcasts the typed payload when present, else the untyped map.
func (o *Observer) OnEvent(event events.Event) error {
	if o.hub == nil {
		return nil
	}

	var data interface{} = event.Data
	if event.TypedData != nil {
		data = event.TypedData
	}
	o.hub.BroadcastEvent(Event{Type: event.Type, Data: data})
	return nil
}

// GetName returns the observer's name.
func (o *Observer) GetName() string {
	return o.name
}

// ShouldHandle filters by topic.
func (o *Observer) ShouldHandle(eventType string) bool {
	return len(o.topics) == 0 || o.topics[Topic(eventType)]
}

var _ events.Observer = (*Observer)(nil)
