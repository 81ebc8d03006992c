package redisad

import "github.com/redis/go-redis/v9"

// NewClient is shared by the cache and the locker.
func NewClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}
