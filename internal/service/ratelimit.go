package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// checkAndSetRateLimit acquires a per-user lock for the given action using
// SETNX with an expiry. Returns false when the lock is already held, i.e.
// the user acted within the last interval. A nil redis client disables the
// limit entirely.
func checkAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, interval time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)

	wasSet, err := rdb.SetNX(ctx, key, "locked", interval).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}
