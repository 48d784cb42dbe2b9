// Package inflight provides per-entity "operation in progress" guards so that
// two overlapping mutations of the same entity cannot both reach the backend.
package inflight

import (
	"context"
	"errors"
	"sync"
)

// ErrInProgress is returned when the key is already held.
var ErrInProgress = errors.New("operation already in progress")

// Release frees a previously acquired key.
type Release func()

// Guard hands out exclusive, non-blocking holds on string keys.
type Guard interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Key builds the guard key for an entity.
func Key(kind, id string) string {
	return kind + ":" + id
}

type memoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard returns a process-local guard.
func NewMemoryGuard() Guard {
	return &memoryGuard{held: make(map[string]struct{})}
}

func (g *memoryGuard) Acquire(ctx context.Context, key string) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return nil, ErrInProgress
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
