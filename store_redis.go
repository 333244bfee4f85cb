package entrysource

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements the Store interface using Redis string keys.
type RedisStore struct {
	Client    redis.UniversalClient
	Prefix    string
	Separator string
}

// NewRedisStore creates a Redis store.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "esrc"
	}
	return &RedisStore{
		Client:    client,
		Prefix:    prefix,
		Separator: "::",
	}
}

func (s *RedisStore) Description() string {
	return "RedisStore"
}

// Get reads a key, reporting absence without error.
func (s *RedisStore) Get(key string) (string, bool, error) {
	if s.Client == nil {
		return "", false, fmt.Errorf("redis store requires Client")
	}
	value, err := s.Client.Get(context.Background(), s.joinedKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes a key without expiry.
func (s *RedisStore) Set(key, value string) error {
	if s.Client == nil {
		return fmt.Errorf("redis store requires Client")
	}
	return s.Client.Set(context.Background(), s.joinedKey(key), value, 0).Err()
}

// Delete removes a key.
func (s *RedisStore) Delete(key string) error {
	if s.Client == nil {
		return fmt.Errorf("redis store requires Client")
	}
	return s.Client.Del(context.Background(), s.joinedKey(key)).Err()
}

func (s *RedisStore) joinedKey(key string) string {
	return s.Prefix + s.Separator + key
}
