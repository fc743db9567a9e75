package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	Container string
}

// Redis keeps object bytes in plain keys, metadata in a hash and a creation-time
// ordered index in a sorted set, all under <prefix>:<container>.
type Redis struct {
	client *redis.Client
	base   string
	now    func() time.Time
}

// NewRedis connects and pings the server.
func NewRedis(o RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisWithClient(client, o.Prefix, o.Container), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix, container string) *Redis {
	if prefix == "" {
		prefix = "csvsentry"
	}
	return &Redis{client: client, base: prefix + ":" + container, now: time.Now}
}

func (r *Redis) blobKey(name string) string { return r.base + ":blob:" + name }
func (r *Redis) metaKey(name string) string { return r.base + ":meta:" + name }
func (r *Redis) indexKey() string           { return r.base + ":index" }

func (r *Redis) Fetch(ctx context.Context, name string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.blobKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return b, nil
}

func (r *Redis) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	now := r.now().UTC()
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.blobKey(name), data, 0)
		p.HSet(ctx, r.metaKey(name),
			"contentType", contentType,
			"size", len(data),
			"createdOn", now.Format(time.RFC3339Nano),
		)
		p.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(now.UnixMilli()), Member: name})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis put %s: %w", name, err)
	}
	return fmt.Sprintf("redis://%s/%s", r.client.Options().Addr, r.blobKey(name)), nil
}

func (r *Redis) Exists(ctx context.Context, name string) (bool, error) {
	n, err := r.client.Exists(ctx, r.blobKey(name)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", name, err)
	}
	return n > 0, nil
}

func (r *Redis) List(ctx context.Context) ([]BlobInfo, error) {
	names, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = p.HGetAll(ctx, r.metaKey(name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis list metadata: %w", err)
	}
	out := make([]BlobInfo, 0, len(names))
	for i, name := range names {
		m := cmds[i].Val()
		size, _ := strconv.ParseInt(m["size"], 10, 64)
		created, _ := time.Parse(time.RFC3339Nano, m["createdOn"])
		out = append(out, BlobInfo{
			Name:        name,
			ContentType: m["contentType"],
			Size:        size,
			CreatedOn:   created,
		})
	}
	return out, nil
}

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }
