// internal/matching/lock.go
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLock serializes matching runs per posting. A run that finds the lock
// held reports RUN_IN_PROGRESS instead of racing the holder; the TTL keeps
// a crashed worker from wedging the posting forever.
type RunLock struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRunLock(redisClient *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{redis: redisClient, ttl: ttl}
}

func lockKey(postingID string) string {
	return fmt.Sprintf("matchrun:lock:%s", postingID)
}

// Acquire returns false when another run already holds the posting.
func (l *RunLock) Acquire(ctx context.Context, postingID string) (bool, error) {
	return l.redis.SetNX(ctx, lockKey(postingID), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *RunLock) Release(ctx context.Context, postingID string) error {
	return l.redis.Del(ctx, lockKey(postingID)).Err()
}
