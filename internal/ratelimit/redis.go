// internal/ratelimit/redis.go
//
// Redis-backed fixed-window limiter for multi-replica deployments.
//
// Context
//   The counter key is prefix+clientKey.  INCR and the first PEXPIRE run in
//   one Lua script so a crash between them cannot leave a counter without a
//   TTL.
//
//------------------------------------------------------------------------------

package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var incrScript = goredis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisStore is a Limiter shared by every process pointing at the same
// Redis.
type RedisStore struct {
	policy Policy
	prefix string
	rdb    goredis.Scripter
}

// NewRedisStore wraps an existing client.  The caller owns rdb.
func NewRedisStore(rdb goredis.Scripter, prefix string, p Policy) (*RedisStore, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if rdb == nil {
		return nil, fmt.Errorf("ratelimit: redis client required")
	}
	return &RedisStore{policy: p, prefix: prefix, rdb: rdb}, nil
}

// Dial connects to addr and verifies the server with PING.
func Dial(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// CheckAndConsume implements Limiter.
func (r *RedisStore) CheckAndConsume(ctx context.Context, key string) (bool, error) {
	n, err := incrScript.Run(ctx, r.rdb, []string{r.prefix + key}, r.policy.Window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis incr: %w", err)
	}
	return n <= int64(r.policy.Limit), nil
}
