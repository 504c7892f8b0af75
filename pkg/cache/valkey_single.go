package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// valkeySingleImpl implements Store against a single-node Valkey/Redis
// instance.
type valkeySingleImpl struct {
	client *redis.Client
}

func NewValkeySingle(addr string, db int, password string) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey single-node: %w", err)
	}

	return &valkeySingleImpl{client: client}, nil
}

func (v *valkeySingleImpl) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (v *valkeySingleImpl) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return v.client.Set(ctx, key, value, ttl).Err()
}

func (v *valkeySingleImpl) Delete(ctx context.Context, key string) error {
	return v.client.Del(ctx, key).Err()
}

func (v *valkeySingleImpl) Exists(ctx context.Context, key string) (bool, error) {
	n, err := v.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (v *valkeySingleImpl) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := v.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		// first increment sets the counter's lifetime
		if err := v.client.Expire(ctx, key, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (v *valkeySingleImpl) Keys(ctx context.Context, prefix string) ([]string, error) {
	return v.client.Keys(ctx, prefix+"*").Result()
}
