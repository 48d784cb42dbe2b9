package worker

import (
	"context"
	"time"

	"github.com/epi-platform/admin-api/pkg/logger"
)

// Reloader refetches one entity kind into the store.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloadFunc adapts a plain function to Reloader.
type ReloadFunc func(ctx context.Context) error

func (f ReloadFunc) Reload(ctx context.Context) error { return f(ctx) }

// StoreRefresher keeps the entity store warm so list endpoints rarely wait
// on the backend.
type StoreRefresher struct {
	reloaders map[string]Reloader
	interval  time.Duration
	timeout   time.Duration
	logger    *logger.Logger
}

func NewStoreRefresher(reloaders map[string]Reloader, interval time.Duration, log *logger.Logger) *StoreRefresher {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StoreRefresher{
		reloaders: reloaders,
		interval:  interval,
		timeout:   interval,
		logger:    log.With("store_refresher"),
	}
}

// Start reloads every kind right away and then once per interval until ctx
// ends. A failed reload is logged; the store keeps serving what it had.
func (r *StoreRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.RefreshAll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *StoreRefresher) RefreshAll(ctx context.Context) {
	for kind, reloader := range r.reloaders {
		if ctx.Err() != nil {
			return
		}

		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := reloader.Reload(rctx)
		cancel()

		if err != nil {
			r.logger.Error(err, "store refresh failed", "kind", kind)
			continue
		}
		r.logger.Debug("store refreshed", "kind", kind)
	}
}
