package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// Event is a domain event raised by the season engine.
type Event struct {
	// Type is "<topic>:<name>", e.g. "match:substitution" or "matchday:finalized".
	Type string

	// Data is the payload flattened to its JSON object form, as sent over the wire.
	Data map[string]interface{}

	// TypedData is the payload struct. In-process observers should prefer it over Data.
	TypedData any

	// Context is the context of the operation that raised the event.
	Context context.Context
}

// Observer receives dispatched events.
// Implementations push to websocket clients, append to a Redis stream or log.
type Observer interface {
	// OnEvent handles one event. An error is logged and counted, never propagated.
	OnEvent(event Event) error

	// GetName names the observer in logs and stats.
	GetName() string

	// ShouldHandle filters the event types the observer receives.
	ShouldHandle(eventType string) bool
}

// ObserverStats reports how an observer has fared.
type ObserverStats struct {
	Name      string `json:"name"`
	Delivered int64  `json:"delivered"`
	Failures  int64  `json:"failures"`
}

type registration struct {
	observer  Observer
	delivered atomic.Int64
	failures  atomic.Int64
}

// EventDispatcher fans domain events out to observers, synchronously and in
// registration order. A failing observer does not stop delivery to the rest,
// and a domain operation never fails because of an observer.
// Safe for concurrent use. A nil *EventDispatcher drops every event.
type EventDispatcher struct {
	mu            sync.RWMutex
	registrations []*registration
}

// NewEventDispatcher creates a dispatcher with no observers.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{}
}

// Register adds an observer for every future event it accepts.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.registrations = append(d.registrations, &registration{observer: observer})
	log.Printf("[EventDispatcher] Registered observer: %s", observer.GetName())
}

// Dispatch delivers event to every observer that accepts its type.
func (d *EventDispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	regs := d.registrations
	d.mu.RUnlock()

	for _, reg := range regs {
		if !reg.observer.ShouldHandle(event.Type) {
			continue
		}
		if err := reg.observer.OnEvent(event); err != nil {
			reg.failures.Add(1)
			log.Printf("[EventDispatcher] Observer %s failed to handle event %s: %v",
				reg.observer.GetName(), event.Type, err)
			continue
		}
		reg.delivered.Add(1)
	}
}

// Publish dispatches a typed payload under eventType.
func Publish[T any](d *EventDispatcher, ctx context.Context, eventType string, payload T) {
	if d == nil {
		return
	}
	d.Dispatch(NewTypedEvent(eventType, payload, ctx))
}

// ObserverCount returns the number of registered observers.
func (d *EventDispatcher) ObserverCount() int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.registrations)
}

// Stats returns the delivery counters of every observer, in registration order.
func (d *EventDispatcher) Stats() []ObserverStats {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := make([]ObserverStats, 0, len(d.registrations))
	for _, reg := range d.registrations {
		stats = append(stats, ObserverStats{
			Name:      reg.observer.GetName(),
			Delivered: reg.delivered.Load(),
			Failures:  reg.failures.Load(),
		})
	}
	return stats
}

// NewTypedEvent builds an Event carrying data both typed and flattened.
func NewTypedEvent[T any](eventType string, data T, ctx context.Context) Event {
	return Event{
		Type:      eventType,
		Data:      flatten(data),
		TypedData: data,
		Context:   ctx,
	}
}

// flatten converts a payload to the map its JSON object form decodes to, so
// the keys follow the payload's json tags.
func flatten(v any) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}

	result := make(map[string]interface{})
	if v == nil {
		return result
	}

	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[EventDispatcher] Failed to encode event payload %T: %v", v, err)
		return result
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		// Not a JSON object (e.g. a bare number); keep it under one key.
		return map[string]interface{}{"value": v}
	}
	return result
}

// GetTypedData extracts the typed payload of an event.
// ok is false when the payload is missing or of another type.
func GetTypedData[T any](event Event) (T, bool) {
	typed, ok := event.TypedData.(T)
	return typed, ok
}
