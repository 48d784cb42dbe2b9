package inflight

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRedis grants every SET NX and fails every other command, standing in
// for a connection that drops between acquire and release.
type flakyRedis struct{}

func (flakyRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (flakyRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		if c, ok := cmd.(*redis.BoolCmd); ok {
			c.SetVal(true)
			return nil
		}
		return errors.New("connection reset by peer")
	}
}

func (flakyRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisGuardLogsFailedRelease(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(flakyRedis{})
	defer client.Close()

	g := NewRedisGuard(client, time.Second)
	release, err := g.Acquire(context.Background(), Key("product", "p1"))
	require.NoError(t, err)

	release()

	assert.Contains(t, buf.String(), "Failed to release in-flight guard")
	assert.Contains(t, buf.String(), "product:p1")
	assert.Contains(t, buf.String(), "connection reset by peer")
}
