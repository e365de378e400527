// Package redisstore keeps offered opponent sets in Redis so that every arena
// process sees the same sets.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/matchmaking"
)

const (
	// KeyPrefix namespaces every key written by OpponentStore.
	KeyPrefix = "arena:opponents:"

	claimAttempts = 5
)

var _ matchmaking.OpponentStore = (*OpponentStore)(nil)

type entry struct {
	IDs []int64 `json:"ids"`
}

// OpponentStore implements matchmaking.OpponentStore with one JSON value per
// key. Entries expire after ttl.
type OpponentStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient connects to the Redis server described by cfg.
//
// Postcondition: the server answered PING, or an error is returned and the
// client is closed.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewOpponentStore creates an OpponentStore. A non-positive ttl stores
// entries without expiry.
func NewOpponentStore(client *redis.Client, ttl time.Duration) *OpponentStore {
	if ttl < 0 {
		ttl = 0
	}
	return &OpponentStore{client: client, ttl: ttl}
}

func redisKey(key matchmaking.Key) string {
	return KeyPrefix + key.String()
}

// Remember replaces the set stored under key.
func (s *OpponentStore) Remember(ctx context.Context, key matchmaking.Key, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(entry{IDs: ids})
	if err != nil {
		return fmt.Errorf("failed to marshal opponents: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store opponents for %s: %w", key, err)
	}
	return nil
}

// Recall returns the set stored under key, or matchmaking.ErrNoOpponents.
func (s *OpponentStore) Recall(ctx context.Context, key matchmaking.Key) ([]int64, error) {
	return decode(s.client.Get(ctx, redisKey(key)), key)
}

func decode(cmd *redis.StringCmd, key matchmaking.Key) ([]int64, error) {
	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, matchmaking.ErrNoOpponents
		}
		return nil, fmt.Errorf("failed to load opponents for %s: %w", key, err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal opponents for %s: %w", key, err)
	}
	return e.IDs, nil
}

// Claim deletes the set stored under key if it contains id. The check and
// the delete run under WATCH, so a concurrent Claim or Remember aborts the
// transaction and the check is retried.
func (s *OpponentStore) Claim(ctx context.Context, key matchmaking.Key, id int64) error {
	k := redisKey(key)
	claim := func(tx *redis.Tx) error {
		ids, err := decode(tx.Get(ctx, k), key)
		if err != nil {
			return err
		}
		if !slices.Contains(ids, id) {
			return matchmaking.ErrNotOffered
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, k)
			return nil
		})
		return err
	}
	for range claimAttempts {
		err := s.client.Watch(ctx, claim, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, matchmaking.ErrNoOpponents) && !errors.Is(err, matchmaking.ErrNotOffered) {
			return fmt.Errorf("failed to claim opponent %d for %s: %w", id, key, err)
		}
		return err
	}
	return fmt.Errorf("failed to claim opponent %d for %s: %w", id, key, redis.TxFailedErr)
}

// Forget deletes the set stored under key.
func (s *OpponentStore) Forget(ctx context.Context, key matchmaking.Key) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete opponents for %s: %w", key, err)
	}
	return nil
}
