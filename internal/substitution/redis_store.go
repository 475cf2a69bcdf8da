package substitution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// DefaultStateTTL bounds how long an abandoned live state lingers in Redis.
const DefaultStateTTL = 6 * time.Hour

// RedisStore keeps live match states in Redis, one JSON value per match.
// Key format: {prefix}:match:{id}:state
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed StateStore. A zero ttl means DefaultStateTTL.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(matchID int) string {
	return fmt.Sprintf("%s:match:%d:state", s.prefix, matchID)
}

// Get returns the state of a match, or nil if none is stored.
func (s *RedisStore) Get(ctx context.Context, matchID int) (*models.MatchState, error) {
	data, err := s.client.Get(ctx, s.key(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading match state %d: %w", matchID, err)
	}

	var state models.MatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshaling match state %d: %w", matchID, err)
	}
	return &state, nil
}

// Put stores the state and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, state *models.MatchState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling match state %d: %w", state.MatchID, err)
	}
	return s.client.Set(ctx, s.key(state.MatchID), data, s.ttl).Err()
}

// Delete removes the state of a match.
func (s *RedisStore) Delete(ctx context.Context, matchID int) error {
	return s.client.Del(ctx, s.key(matchID)).Err()
}
