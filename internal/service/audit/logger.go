package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditLogger records entries off the request path. A failed audit write never
// fails the admin action that triggered it.
type AuditLogger struct {
	service *Service
	wg      sync.WaitGroup
}

func NewAuditLogger(service *Service) *AuditLogger {
	return &AuditLogger{
		service: service,
	}
}

func (l *AuditLogger) Log(ctx context.Context, action, entityType, entityID string, changes interface{}) {
	ctx = context.WithoutCancel(ctx)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := l.service.Log(ctx, action, entityType, entityID, changes); err != nil {
			log.Error().Err(err).
				Str("action", action).
				Str("entity_type", entityType).
				Str("entity_id", entityID).
				Msg("Failed to write audit log")
		}
	}()
}

// Wait blocks until pending writes finish. Called on shutdown.
func (l *AuditLogger) Wait() {
	l.wg.Wait()
}
