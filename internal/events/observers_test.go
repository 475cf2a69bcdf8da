package events

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestStreamObserver_StreamKey(t *testing.T) {
	o := NewStreamObserver(nil, "season.events", 0)

	tests := map[string]string{
		TypeMatchSubstitution: "season.events.match",
		TypeMatchdayFinalized: "season.events.matchday",
		"plain":               "season.events.plain",
	}
	for eventType, want := range tests {
		if got := o.StreamKey(eventType); got != want {
			t.Errorf("StreamKey(%q) = %q, want %q", eventType, got, want)
		}
	}
}

// TestStreamObserver_Integration requires a running Redis; set REDIS_TEST_URL to enable it.
func TestStreamObserver_Integration(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("invalid REDIS_TEST_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	o := NewStreamObserver(client, "season.test", 100)
	key := o.StreamKey(TypeMatchResult)
	client.Del(ctx, key)
	defer client.Del(ctx, key)

	if err := o.OnEvent(NewTypedEvent(TypeMatchResult, MatchResultEvent{MatchID: 9, HomeGoals: 1}, ctx)); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	entries, err := client.XRange(ctx, key, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 stream entry, got %d", len(entries))
	}
	if entries[0].Values["type"] != TypeMatchResult {
		t.Errorf("Expected type %s, got %v", TypeMatchResult, entries[0].Values["type"])
	}
}
