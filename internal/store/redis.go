// Package store provides the flat key-value persistence layer for groups,
// pads and user relationship sets, backed by Redis. Only single-key writes
// are atomic; batch operations may partially apply and the callers are
// expected to be idempotent.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("store: key not found")

// ErrConflict is returned by SetRecord when a concurrent writer updated the
// record between the caller's read and its write.
var ErrConflict = errors.New("store: write conflict")

// Store wraps a Redis client with the get/set/batch/prefix primitives the
// indexing core relies on.
type Store struct {
	client *redis.Client
}

// Open connects to Redis using a redis:// URL and verifies the connection.
func Open(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a store from an existing Redis client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get loads the JSON record at key into dst.
func (s *Store) Get(ctx context.Context, key string, dst any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Set writes value at key as JSON, unconditionally.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SetRecord writes rec at key only if the stored version still matches
// rec.Ver(), then bumps the version. A missing key counts as version zero.
// It runs under WATCH so the check-and-write pair is atomic; callers retry
// the whole read-modify-write on ErrConflict.
func (s *Store) SetRecord(ctx context.Context, key string, rec Versioned) error {
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		var stored int64
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			stored = 0
		case err != nil:
			return fmt.Errorf("get %s: %w", key, err)
		default:
			var probe struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(data, &probe); err != nil {
				return fmt.Errorf("unmarshal %s: %w", key, err)
			}
			stored = probe.Version
		}
		if stored != rec.Ver() {
			return ErrConflict
		}

		rec.Bump()
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)

	if err == redis.TxFailedErr {
		return ErrConflict
	}
	if err != nil && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("set record %s: %w", key, err)
	}
	return err
}

// Remove deletes the record at key and, when dst is non-nil, decodes the
// removed value into it (get-and-delete).
func (s *Store) Remove(ctx context.Context, key string, dst any) error {
	data, err := s.client.GetDel(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	if dst != nil {
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
	}
	return nil
}

// Delete removes keys without reading them back. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// GetKeys batch-reads keys; missing keys are simply absent from the result
// map, not an error. An empty key list returns an empty map without a round
// trip.
func (s *Store) GetKeys(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	for i, value := range values {
		if value == nil {
			continue
		}
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("mget %s: unexpected value type %T", keys[i], value)
		}
		result[keys[i]] = json.RawMessage(text)
	}
	return result, nil
}

// SetKeys batch-writes the given key/value pairs. Each key write is
// independent; a failure may leave a subset applied.
func (s *Store) SetKeys(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	pairs := make([]any, 0, len(values)*2)
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		pairs = append(pairs, key, data)
	}
	if err := s.client.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("mset: %w", err)
	}
	return nil
}

// AllExist reports whether every one of the given keys exists. Duplicates
// are collapsed before the check.
func (s *Store) AllExist(ctx context.Context, keys []string) (bool, error) {
	if len(keys) == 0 {
		return true, nil
	}
	seen := make(map[string]struct{}, len(keys))
	unique := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	count, err := s.client.Exists(ctx, unique...).Result()
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return count == int64(len(unique)), nil
}

// Exists reports whether a single key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return count > 0, nil
}

// FindKeysByPrefix scans the keyspace for keys starting with prefix.
func (s *Store) FindKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	return keys, nil
}

// CountPrefix returns the number of keys starting with prefix.
func (s *Store) CountPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.FindKeysByPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
