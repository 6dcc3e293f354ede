package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/game"
)

const (
	keyGameState = "game:state:%s"

	// DefaultGameTTL bounds how long an untouched game is kept.
	DefaultGameTTL = 7 * 24 * time.Hour
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Store keeping JSON-encoded games in Redis.
// Every Save refreshes the key's TTL; ttl <= 0 uses DefaultGameTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultGameTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

// Save writes the game with a refreshed TTL.
func (r *redisStore) Save(ctx context.Context, s game.State) error {
	if s.ID == "" {
		return errors.New("game has no ID")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, fmt.Sprintf(keyGameState, s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save game %s: %w", s.ID, err)
	}
	return nil
}

// Get reads and decodes a game.
func (r *redisStore) Get(ctx context.Context, id string) (game.State, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(keyGameState, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.State{}, ErrNotFound
	}
	if err != nil {
		return game.State{}, fmt.Errorf("load game %s: %w", id, err)
	}
	var s game.State
	if err := json.Unmarshal(data, &s); err != nil {
		return game.State{}, fmt.Errorf("decode game %s: %w", id, err)
	}
	if !s.Hand.Valid() {
		return game.State{}, fmt.Errorf("decode game %s: invalid hand %v", id, s.Hand)
	}
	return s, nil
}

// Delete removes the key.
func (r *redisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, fmt.Sprintf(keyGameState, id)).Err()
}
