package rdx

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

// RdxSetNX acquires key if free, used as a distributed lock with TTL.
func RdxSetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return Conn.SetNX(ctx, key, value, ttl).Result()
}

func RdxDel(ctx context.Context, key string) error {
	return Conn.Del(ctx, key).Err()
}
