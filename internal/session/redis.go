package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session state in Redis with TTLs, so click evidence
// survives a bot restart.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) MarkClicked(ctx context.Context, userID int64, link Link) error {
	key := fmt.Sprintf("clicked:%s:%d", link, userID)
	if err := r.rdb.Set(ctx, key, "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("mark clicked: %w", err)
	}
	return nil
}

func (r *RedisStore) Clicked(ctx context.Context, userID int64, link Link) (bool, error) {
	key := fmt.Sprintf("clicked:%s:%d", link, userID)
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check clicked: %w", err)
	}
	return n > 0, nil
}

func (r *RedisStore) AwaitWallet(ctx context.Context, userID int64, provider string) error {
	key := fmt.Sprintf("await_wallet:%d", userID)
	if err := r.rdb.Set(ctx, key, provider, r.ttl).Err(); err != nil {
		return fmt.Errorf("await wallet: %w", err)
	}
	return nil
}

func (r *RedisStore) AwaitedWallet(ctx context.Context, userID int64) (string, bool, error) {
	key := fmt.Sprintf("await_wallet:%d", userID)
	provider, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("awaited wallet: %w", err)
	}
	return provider, true, nil
}

func (r *RedisStore) ClearAwaitWallet(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("await_wallet:%d", userID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear await wallet: %w", err)
	}
	return nil
}

func (r *RedisStore) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("once %s: %w", key, err)
	}
	return ok, nil
}
