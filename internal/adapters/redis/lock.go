package redisad

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"review_enrichment/internal/domain"
)

// Locker hands out redis-backed locks under the "lock:" prefix.
type Locker struct{ l *redislock.Client }

func NewLocker(c *redis.Client) *Locker { return &Locker{l: redislock.New(c)} }

func (k *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := k.l.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrLocked
	}
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}
