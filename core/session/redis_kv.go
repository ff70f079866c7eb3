package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const cookieHashKey = "session:netease:cookies"

// RedisKV persists the cookie map in a Redis hash so a restarted process
// keeps its provider login.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV creates Redis-backed session persistence.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) GetAll(ctx context.Context) (map[string]string, error) {
	values, err := r.client.HGetAll(ctx, cookieHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie hash: %w", err)
	}
	return values, nil
}

func (r *RedisKV) SetAll(ctx context.Context, values map[string]string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, cookieHashKey)
	if len(values) > 0 {
		flat := make([]interface{}, 0, len(values)*2)
		for k, v := range values {
			flat = append(flat, k, v)
		}
		pipe.HSet(ctx, cookieHashKey, flat...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write cookie hash: %w", err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, cookieHashKey).Err(); err != nil {
		return fmt.Errorf("failed to delete cookie hash: %w", err)
	}
	return nil
}
