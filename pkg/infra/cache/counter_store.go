package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/terrizoaguimor/kore-shield/pkg/domain"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/ratelimit"
)

// incrScript performs the conditional increment in one round trip so a
// denied request never bumps the counter, even under concurrency. Returns
// -1 when the quota is spent.
const incrScript = `
local current = redis.call('GET', KEYS[1])
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return -1
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return current
`

type counterStore struct {
	redis *redis.Client
}

// NewCounterStore returns the Redis-backed CounterStore used on the hot
// path. Keys carry the deterministic window start, so a new window simply
// shadows the previous key and the EXPIRE bounds storage growth.
func NewCounterStore(redisClient *redis.Client) ratelimit.CounterStore {
	return &counterStore{
		redis: redisClient,
	}
}

func (s *counterStore) Incr(ctx context.Context, key ratelimit.Key, limit int) (int64, bool, error) {
	ttl := int64(key.Window / time.Second)
	if ttl <= 0 {
		ttl = 1
	}

	res, err := s.redis.Eval(ctx, incrScript, []string{key.String()}, limit, ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("rate limit script (%w): %v", domain.ErrStoreUnavailable, err)
	}

	count, ok := res.(int64)
	if !ok {
		return 0, false, fmt.Errorf("unexpected rate limit script result: %v", res)
	}
	if count < 0 {
		return int64(limit), false, nil
	}
	return count, true, nil
}
