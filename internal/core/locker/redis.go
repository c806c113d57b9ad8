package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
)

const lockExpiry = 30 * time.Second

// Redis is a distributed Locker backed by redsync. The lock expiry bounds
// how long a crashed instance can keep a submission window blocked.
type Redis struct {
	sync *redsync.Redsync
}

// NewRedis creates a redsync-backed locker over an existing redis client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{sync: redsync.New(goredis.NewPool(rdb))}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	mutex := r.sync.NewMutex(
		fmt.Sprintf("lock:submit:%s", key),
		redsync.WithExpiry(lockExpiry),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, ErrAlreadyLocked
		}
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}

	release := func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Expiry cleans up if unlock fails.
		mutex.UnlockContext(unlockCtx) //nolint:errcheck
	}
	return release, nil
}
