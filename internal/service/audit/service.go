package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/repository"
)

type actorKey struct{}

// WithActor records who is acting for the rest of the request.
func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) model.Actor {
	actor, _ := ctx.Value(actorKey{}).(model.Actor)
	return actor
}

type Service struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewService(repo repository.AuditRepository) *Service {
	if repo == nil {
		repo = NewNopRepository()
	}
	return &Service{repo: repo, now: time.Now}
}

// Log creates an audit log entry for the actor found in ctx
func (s *Service) Log(ctx context.Context, action, entityType, entityID string, changes interface{}) error {
	var raw json.RawMessage
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("failed to marshal audit changes: %w", err)
		}
		raw = b
	}

	actor := ActorFrom(ctx)
	return s.repo.Create(ctx, &model.AuditLog{
		ID:         uuid.New(),
		UserID:     actor.UserID,
		UserEmail:  actor.Email,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    raw,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		CreatedAt:  s.now(),
	})
}

func (s *Service) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, filter)
}

// Cleanup deletes entries older than the retention window.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.Cleanup(ctx, s.now().Add(-retention))
}

type nopRepository struct{}

// NewNopRepository is used when no audit database is configured.
func NewNopRepository() repository.AuditRepository {
	return nopRepository{}
}

func (nopRepository) Create(context.Context, *model.AuditLog) error { return nil }

func (nopRepository) List(context.Context, model.AuditFilter) ([]*model.AuditLog, error) {
	return nil, nil
}

func (nopRepository) Cleanup(context.Context, time.Time) (int64, error) { return 0, nil }
