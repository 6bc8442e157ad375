package quiz

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is the server-side attempt counter for authenticated users.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func counterKey(userID string, mode Mode) string {
	return "attempts:" + userID + ":" + string(mode)
}

func (c *RedisCounter) AttemptCount(ctx context.Context, userID string, mode Mode) (int, error) {
	n, err := c.client.Get(ctx, counterKey(userID, mode)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get attempt count: %w", err)
	}
	return n, nil
}

func (c *RedisCounter) IncrementAttemptCount(ctx context.Context, userID string, mode Mode) error {
	if err := c.client.Incr(ctx, counterKey(userID, mode)).Err(); err != nil {
		return fmt.Errorf("increment attempt count: %w", err)
	}
	return nil
}
