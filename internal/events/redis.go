// internal/events/redis.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the historian drains.
const DefaultQueueName = "rewards_events"

// RedisQueue pushes every event as JSON onto a Redis list.
type RedisQueue struct {
	Client *redis.Client
	Queue  string
}

// ConnectRedis builds a client for addr/db and verifies it with a ping.
func ConnectRedis(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisQueue wraps an existing client. An empty queue name uses DefaultQueueName.
func NewRedisQueue(client *redis.Client, queue string) *RedisQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisQueue{Client: client, Queue: queue}
}

// Publish RPushes the whole batch in a single command so it lands contiguously.
func (q *RedisQueue) Publish(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		values = append(values, data)
	}
	if err := q.Client.RPush(ctx, q.Queue, values...).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.Queue, err)
	}
	return nil
}
