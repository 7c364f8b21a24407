package redirect

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending redirect targets in Redis. GETDEL gives the
// read-once/delete-once semantics atomically.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given Redis address.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(loginID string) string {
	return fmt.Sprintf("%s:%s", KeyPrefix, loginID)
}

// Put records the redirect target for a login attempt.
func (s *RedisStore) Put(ctx context.Context, loginID, path string) error {
	if err := s.client.Set(ctx, key(loginID), path, TTL).Err(); err != nil {
		return fmt.Errorf("failed to store redirect target: %w", err)
	}
	return nil
}

// Take returns the stored target and deletes it atomically.
func (s *RedisStore) Take(ctx context.Context, loginID string) (string, bool, error) {
	val, err := s.client.GetDel(ctx, key(loginID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read redirect target: %w", err)
	}
	return val, true, nil
}

// Delete removes the stored target, if any.
func (s *RedisStore) Delete(ctx context.Context, loginID string) error {
	if err := s.client.Del(ctx, key(loginID)).Err(); err != nil {
		return fmt.Errorf("failed to delete redirect target: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
