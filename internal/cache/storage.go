package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Keys used by the client.
const (
	KeyAuthToken      = "auth_token"
	KeyAuthUser       = "auth_user"
	KeyLocalFavorites = "travel-vibes-favorites"
)

const maxUpdateRetries = 10

// ErrConflict is returned when an Update keeps losing to concurrent writers.
var ErrConflict = errors.New("storage key modified concurrently")

// Storage is persistent string storage for the client, namespaced by a prefix
// so several profiles can share one Redis. Values never expire.
type Storage struct {
	client *redis.Client
	prefix string
}

// NewStorage returns storage writing keys as prefix+key.
func NewStorage(client *redis.Client, prefix string) *Storage {
	return &Storage{client: client, prefix: prefix}
}

func (s *Storage) key(k string) string { return s.prefix + k }

// Get returns the value for k and whether it was present.
func (s *Storage) Get(ctx context.Context, k string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage get %s: %w", k, err)
	}
	return val, true, nil
}

// Set stores v under k.
func (s *Storage) Set(ctx context.Context, k, v string) error {
	if err := s.client.Set(ctx, s.key(k), v, 0).Err(); err != nil {
		return fmt.Errorf("storage set %s: %w", k, err)
	}
	return nil
}

// Remove deletes the given keys.
func (s *Storage) Remove(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("storage remove %v: %w", keys, err)
	}
	return nil
}

// Update runs fn on the current value of k and writes back what it returns,
// using WATCH/MULTI so a concurrent writer forces a retry instead of being
// overwritten. fn may be called more than once.
func (s *Storage) Update(ctx context.Context, k string, fn func(cur string, ok bool) (string, error)) error {
	full := s.key(k)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, full).Result()
		ok := true
		if errors.Is(err, redis.Nil) {
			cur, ok = "", false
		} else if err != nil {
			return err
		}
		next, err := fn(cur, ok)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("storage update %s: %w", k, err)
		}
		return nil
	}
	return fmt.Errorf("storage update %s: %w", k, ErrConflict)
}
