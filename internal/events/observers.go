package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamObserver appends every event to a Redis stream so other services can
// consume the season's live feed.
// Stream key format: {prefix}.{event type prefix}, e.g. season.events.match
type StreamObserver struct {
	name    string
	client  *redis.Client
	prefix  string
	maxLen  int64
	timeout time.Duration
}

// NewStreamObserver creates an observer that publishes to Redis streams under prefix.
// maxLen caps each stream approximately; 0 leaves streams unbounded.
func NewStreamObserver(client *redis.Client, prefix string, maxLen int64) *StreamObserver {
	return &StreamObserver{
		name:    "StreamObserver",
		client:  client,
		prefix:  prefix,
		maxLen:  maxLen,
		timeout: 2 * time.Second,
	}
}

// StreamKey returns the stream an event type is published to.
func (o *StreamObserver) StreamKey(eventType string) string {
	category := eventType
	if i := strings.IndexByte(eventType, ':'); i >= 0 {
		category = eventType[:i]
	}
	return fmt.Sprintf("%s.%s", o.prefix, category)
}

// OnEvent publishes the event payload as JSON.
func (o *StreamObserver) OnEvent(event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("error marshaling event %s: %w", event.Type, err)
	}

	ctx := event.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: o.StreamKey(event.Type),
		Values: map[string]interface{}{
			"type": event.Type,
			"data": string(data),
		},
	}
	if o.maxLen > 0 {
		args.MaxLen = o.maxLen
		args.Approx = true
	}

	if err := o.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("error publishing to stream %s: %w", args.Stream, err)
	}
	return nil
}

// GetName returns the observer's name.
func (o *StreamObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events.
func (o *StreamObserver) ShouldHandle(eventType string) bool {
	return true
}

// LoggingObserver logs all events for debugging purposes.
type LoggingObserver struct {
	name    string
	verbose bool
}

// NewLoggingObserver creates a new observer that logs events.
func NewLoggingObserver(verbose bool) *LoggingObserver {
	return &LoggingObserver{
		name:    "LoggingObserver",
		verbose: verbose,
	}
}

// OnEvent logs the event details.
func (o *LoggingObserver) OnEvent(event Event) error {
	if o.verbose {
		log.Printf("[%s] Event: %s, Data: %v", o.name, event.Type, event.Data)
	} else {
		log.Printf("[%s] Event: %s", o.name, event.Type)
	}
	return nil
}

// GetName returns the observer's name.
func (o *LoggingObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events (logs everything).
func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return true
}
