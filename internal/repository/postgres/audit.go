package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/repository"
)

const defaultAuditLimit = 100

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
        INSERT INTO audit_logs (
            id, user_id, user_email, action, entity_type, entity_id,
            changes, ip_address, user_agent, created_at
        ) VALUES (
            :id, :user_id, :user_email, :action, :entity_type, :entity_id,
            :changes, :ip_address, :user_agent, :created_at
        )
    `

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, log); err != nil {
			return fmt.Errorf("failed to insert audit log: %w", err)
		}
		return nil
	})
}

func (r *auditRepository) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(column, op string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	if filter.UserID != "" {
		add("user_id", "=", filter.UserID)
	}
	if filter.EntityType != "" {
		add("entity_type", "=", filter.EntityType)
	}
	if filter.EntityID != "" {
		add("entity_id", "=", filter.EntityID)
	}
	if filter.Action != "" {
		add("action", "=", filter.Action)
	}
	if !filter.From.IsZero() {
		add("created_at", ">=", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at", "<=", filter.To)
	}

	query := `SELECT id, user_id, user_email, action, entity_type, entity_id,
        COALESCE(changes, '{}'::jsonb) AS changes, ip_address, user_agent, created_at FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultAuditLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var logs []*model.AuditLog
	if err := r.GetDB().SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	query := `
        DELETE FROM audit_logs
        WHERE created_at < $1
    `

	result, err := r.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	return result.RowsAffected()
}
