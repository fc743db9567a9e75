package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis publishes messages on a pub/sub channel.
type Redis struct {
	client  *redis.Client
	channel string
}

// NewRedis connects and pings the server.
func NewRedis(addr, password string, db int, channel string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client, channel: channel}, nil
}

func (r *Redis) Send(ctx context.Context, message string) error {
	if err := r.client.Publish(ctx, r.channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscribe listens on the notification channel.
func (r *Redis) Subscribe(ctx context.Context) *redis.PubSub {
	return r.client.Subscribe(ctx, r.channel)
}

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }
