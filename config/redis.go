package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis is nil when REDIS_ADDR is unset; callers fall back to DB-only paths.
var Redis *goredis.Client

// InitRedis connects the shared redis client used by the query cache and the
// notification bus. A missing address is not fatal.
func InitRedis() {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Println("REDIS_ADDR not set, cache and realtime notifications disabled")
		return
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Printf("Warning: redis ping failed, continuing without cache: %v", err)
		return
	}

	Redis = client
	log.Println("Redis connected successfully")
}
