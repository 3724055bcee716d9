package database

import (
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds a client from REDIS_URL. Returns nil when REDIS_URL is
// unset or malformed; callers treat a nil client as "realtime relay
// disabled" and must not crash on it.
func ConnectRedis() *redis.Client {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		log.Println("REDIS_URL not set, realtime chat relay disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("invalid REDIS_URL, realtime chat relay disabled: %v", err)
		return nil
	}

	return redis.NewClient(opts)
}
