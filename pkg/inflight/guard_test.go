package inflight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuardRejectsSecondHolder(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	release, err := g.Acquire(ctx, Key("product", "p1"))
	require.NoError(t, err)

	_, err = g.Acquire(ctx, Key("product", "p1"))
	assert.ErrorIs(t, err, ErrInProgress)

	// other entities are independent
	other, err := g.Acquire(ctx, Key("product", "p2"))
	require.NoError(t, err)
	other()

	release()
	release() // idempotent

	again, err := g.Acquire(ctx, Key("product", "p1"))
	require.NoError(t, err)
	again()
}

func TestMemoryGuardCancelledContext(t *testing.T) {
	g := NewMemoryGuard()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryGuardConcurrentAcquire(t *testing.T) {
	g := NewMemoryGuard()
	var winners int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := g.Acquire(context.Background(), "category:42"); err == nil {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
