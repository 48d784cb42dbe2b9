package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/epi-platform/admin-api/pkg/logger"
)

// AuditCleaner deletes audit entries older than the retention.
type AuditCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

type AuditCleanupWorker struct {
	cleaner         AuditCleaner
	retentionDays   int
	cleanupInterval time.Duration
	logger          *logger.Logger
}

func NewAuditCleanupWorker(cleaner AuditCleaner, retentionDays int, cleanupInterval time.Duration, log *logger.Logger) *AuditCleanupWorker {
	if cleanupInterval <= 0 {
		cleanupInterval = 24 * time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuditCleanupWorker{
		cleaner:         cleaner,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          log.With("audit_cleanup"),
	}
}

// Start runs one cleanup immediately and then on every tick until ctx ends.
// A retention of zero days keeps everything.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	if w.retentionDays <= 0 {
		w.logger.Info("audit retention disabled")
		return
	}

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		if err := w.cleanup(ctx); err != nil {
			w.logger.Error(err, "audit cleanup failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *AuditCleanupWorker) cleanup(ctx context.Context) error {
	retention := time.Duration(w.retentionDays) * 24 * time.Hour

	rows, err := w.cleaner.Cleanup(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	w.logger.Info("cleaned up audit logs", "rows", rows, "retention_days", w.retentionDays)
	return nil
}
