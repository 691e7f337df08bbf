package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetLockKey = "booktokviral.weekly_reset"

// Lock TTL is a backstop in case a reset crashes before release; no reset
// should take anywhere near this long.
const resetLockTTL = 5 * time.Minute

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// AcquireResetLock takes the weekly-reset mutex. Two concurrent resets would
// otherwise both archive the same week.
func AcquireResetLock(ctx context.Context, rdb *redis.Client) (bool, error) {
	return rdb.SetNX(ctx, resetLockKey, "1", resetLockTTL).Result()
}

func ReleaseResetLock(ctx context.Context, rdb *redis.Client) {
	rdb.Del(ctx, resetLockKey)
}
