package inflight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "epi:inflight:"

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisGuard struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisGuard returns a guard shared by every instance using the same
// Redis. ttl bounds how long a crashed holder can block the key.
func NewRedisGuard(client redis.UniversalClient, ttl time.Duration) Guard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisGuard{client: client, ttl: ttl}
}

func (g *redisGuard) Acquire(ctx context.Context, key string) (Release, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, keyPrefix+key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrInProgress
	}

	return func() {
		// Use a fresh context: the request context may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{keyPrefix + key}, token).Err(); err != nil {
			// the key still expires after ttl
			log.Warn().Err(err).Str("key", key).Msg("Failed to release in-flight guard")
		}
	}, nil
}
