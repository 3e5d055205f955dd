package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	viewKeyPrefix       = "views:"
	invalidationChannel = "view-invalidations"
)

// NewClient connects to Redis and verifies the connection before returning.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// RedisInvalidator drops cached view payloads and announces the invalidation
// on a pub/sub channel so connected frontends can refetch.
type RedisInvalidator struct {
	client *redis.Client
}

func NewRedisInvalidator(client *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{client: client}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, view string) error {
	if err := r.client.Del(ctx, viewKeyPrefix+view).Err(); err != nil {
		return err
	}
	return r.client.Publish(ctx, invalidationChannel, view).Err()
}
