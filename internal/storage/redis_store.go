package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisKeyPrefix = "arcadia:seen_post:"
	redisTimeout   = 3 * time.Second
)

// redisStore keeps one key per seen post and lets Redis expire it, so
// several watchers can share one seen-set.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func openRedis(rawURL string, opts Options) (*redisStore, error) {
	redisOpts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisStore{client: client, ttl: opts.PostTTL}, nil
}

func (r *redisStore) SeenPost(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *redisStore) MarkPost(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	marked := time.Now().UTC().Format(time.RFC3339)
	if err := r.client.Set(ctx, redisKeyPrefix+id, marked, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", id, err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
