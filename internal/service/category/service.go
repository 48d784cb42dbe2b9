package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/service/override"
	"github.com/epi-platform/admin-api/internal/service/region"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
	"github.com/epi-platform/admin-api/pkg/inflight"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

// Backend is the part of the catalog client the category service calls.
type Backend interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, payload model.CategoryPayload) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, payload model.CategoryPayload) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	UploadCategoryImage(ctx context.Context, id string, upload backend.Upload) (*model.Category, error)
}

type Auditor interface {
	Log(ctx context.Context, action, entityType, entityID string, changes interface{})
}

type Publisher interface {
	Emit(ctx context.Context, eventType, entity, id string)
}

type Config struct {
	LowStockThreshold int
	RequireRegion     bool
	MaxDepth          int
}

type Deps struct {
	Backend   Backend
	Store     *store.Store
	Regions   *region.Service
	Guard     inflight.Guard
	Auditor   Auditor
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

type Service struct {
	backend Backend
	store   *store.Store
	regions *region.Service
	guard   inflight.Guard
	auditor Auditor
	events  Publisher
	metrics *metrics.Metrics
	logger  zerolog.Logger
	cfg     Config
}

func NewService(deps Deps, cfg Config) *Service {
	if deps.Guard == nil {
		deps.Guard = inflight.NewMemoryGuard()
	}
	if deps.Auditor == nil {
		deps.Auditor = nopAuditor{}
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = MaxDepth
	}
	return &Service{
		backend: deps.Backend,
		store:   deps.Store,
		regions: deps.Regions,
		guard:   deps.Guard,
		auditor: deps.Auditor,
		events:  deps.Publisher,
		metrics: deps.Metrics,
		logger:  deps.Logger.With().Str("component", "category_service").Logger(),
		cfg:     cfg,
	}
}

// Reload replaces the cached categories with the backend's listing.
func (s *Service) Reload(ctx context.Context) ([]model.Category, error) {
	cats, err := s.backend.ListCategories(ctx)
	if err != nil {
		s.metrics.StoreRefreshes.WithLabelValues(store.KindCategory, "error").Inc()
		return nil, err
	}
	s.store.Categories.Replace(cats)
	s.metrics.StoreRefreshes.WithLabelValues(store.KindCategory, "ok").Inc()
	return cats, nil
}

// All returns the cached categories, reloading them when the cache is cold.
// A failed reload falls back to the last listing when there is one.
func (s *Service) All(ctx context.Context) ([]model.Category, error) {
	cats, fresh := s.store.Categories.All()
	if fresh {
		return cats, nil
	}

	loaded, err := s.Reload(ctx)
	if err != nil {
		if len(cats) > 0 {
			s.logger.Warn().Err(err).Msg("Serving stale categories after failed reload")
			return cats, nil
		}
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return loaded, nil
}

func (s *Service) List(ctx context.Context, q store.Query) ([]model.Category, httputil.Pagination, error) {
	cats, err := s.All(ctx)
	if err != nil {
		return nil, httputil.Pagination{}, err
	}
	items, p := store.QueryCategories(cats, q)
	return items, p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Category, error) {
	if c, ok := s.store.Categories.Get(id); ok {
		return &c, nil
	}
	c, err := s.backend.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store.Categories.Put(*c)
	return c, nil
}

func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	cats, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(cats, s.cfg.MaxDepth), nil
}

func (s *Service) Create(ctx context.Context, req model.CategorySaveRequest) (*model.Category, error) {
	payload, err := s.prepare(ctx, "", req, nil)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, "create:"+strings.ToLower(payload.Name))
	if err != nil {
		return nil, err
	}
	defer release()

	created, err := s.backend.CreateCategory(ctx, payload)
	if err != nil {
		return nil, err
	}

	s.saved(ctx, model.AuditActionCreate, created, payload)
	return created, nil
}

// Update replaces the category. A request without a regions list keeps the
// stored overrides.
func (s *Service) Update(ctx context.Context, id string, req model.CategorySaveRequest) (*model.Category, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := s.prepare(ctx, id, req, &existing.Regional)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := s.backend.UpdateCategory(ctx, id, payload)
	if err != nil {
		return nil, err
	}

	s.saved(ctx, model.AuditActionUpdate, updated, payload)
	return updated, nil
}

// Delete removes a leaf category. Subcategories must be moved or deleted
// first so the backend never holds orphans.
func (s *Service) Delete(ctx context.Context, id string) error {
	cats, err := s.All(ctx)
	if err != nil {
		return err
	}
	if below := Descendants(cats, id); len(below) > 0 {
		return s.invalid(errors.BadRequest(fmt.Sprintf("category has %d subcategories; move or delete them first", len(below)), nil))
	}

	release, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		return err
	}

	s.store.Categories.Delete(id)
	s.events.Emit(ctx, model.EventCategoryDeleted, store.KindCategory, id)
	s.auditor.Log(ctx, model.AuditActionDelete, model.AuditEntityCategory, id, nil)
	return nil
}

func (s *Service) UploadImage(ctx context.Context, id string, upload backend.Upload) (*model.Category, error) {
	if _, err := backend.DetectImageType(upload.Data); err != nil {
		s.metrics.ValidationFailures.WithLabelValues(store.KindCategory).Inc()
		return nil, err
	}

	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := s.backend.UploadCategoryImage(ctx, id, upload)
	if err != nil {
		return nil, err
	}

	s.store.Categories.Put(*updated)
	s.events.Emit(ctx, model.EventCategorySaved, store.KindCategory, id)
	s.auditor.Log(ctx, model.AuditActionUpload, model.AuditEntityCategory, id, map[string]string{
		"filename": upload.Filename,
	})
	return updated, nil
}

// Preview collects the regional payload a save would send, without saving.
func (s *Service) Preview(req model.PreviewRequest) (model.Regional, error) {
	editor := override.NewEditor(s.regions.List())
	if err := editor.Apply(req.Regions); err != nil {
		return model.Regional{}, err
	}
	return s.collect(editor, req.IsGlobal)
}

// prepare validates the request and builds the full replacement payload.
// Nothing here touches the backend except loading the category listing.
func (s *Service) prepare(ctx context.Context, id string, req model.CategorySaveRequest, existing *model.Regional) (model.CategoryPayload, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.CategoryPayload{}, s.invalid(errors.BadRequest("category name is required", nil))
	}

	var parent *string
	if req.ParentCategoryID != nil && strings.TrimSpace(*req.ParentCategoryID) != "" {
		p := strings.TrimSpace(*req.ParentCategoryID)
		parent = &p

		cats, err := s.All(ctx)
		if err != nil {
			return model.CategoryPayload{}, err
		}
		if !contains(cats, p) {
			return model.CategoryPayload{}, s.invalid(errors.BadRequest("parent category not found", nil))
		}
		if WouldCycle(cats, id, p) {
			return model.CategoryPayload{}, s.invalid(errors.BadRequest("a category cannot be moved under itself or one of its descendants", nil))
		}
	}

	editor := override.NewEditor(s.regions.List())
	if req.Regions == nil && existing != nil {
		editor.Load(*existing)
	}
	if err := editor.Apply(req.Regions); err != nil {
		return model.CategoryPayload{}, s.invalid(err)
	}
	regional, err := s.collect(editor, req.IsGlobalCategory)
	if err != nil {
		return model.CategoryPayload{}, s.invalid(err)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return model.CategoryPayload{
		Name:             name,
		Slug:             strings.TrimSpace(req.Slug),
		Description:      strings.TrimSpace(req.Description),
		ParentCategoryID: parent,
		IsActive:         active,
		IsGlobalCategory: req.IsGlobalCategory,
		DisplayOrder:     req.DisplayOrder,
		Regional:         regional,
	}, nil
}

// collect builds the category's overrides. Categories carry no price, so
// pricing is always sent empty.
func (s *Service) collect(editor *override.Editor, global bool) (model.Regional, error) {
	regional, err := override.Collect(editor, override.Base{IsGlobal: global}, s.options())
	regional.RegionalPricing = []model.RegionalPricing{}
	return regional, err
}

func (s *Service) saved(ctx context.Context, action string, c *model.Category, payload model.CategoryPayload) {
	s.store.Categories.Put(*c)
	s.events.Emit(ctx, model.EventCategorySaved, store.KindCategory, c.ID)
	s.auditor.Log(ctx, action, model.AuditEntityCategory, c.ID, payload)
}

func (s *Service) acquire(ctx context.Context, id string) (inflight.Release, error) {
	release, err := s.guard.Acquire(ctx, inflight.Key(store.KindCategory, id))
	if errors.Is(err, inflight.ErrInProgress) {
		s.metrics.GuardConflicts.WithLabelValues(store.KindCategory).Inc()
		return nil, errors.Conflict("this category is already being saved", err)
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return release, nil
}

func (s *Service) invalid(err error) error {
	s.metrics.ValidationFailures.WithLabelValues(store.KindCategory).Inc()
	return err
}

func (s *Service) options() override.Options {
	return override.Options{
		LowStockThreshold: s.cfg.LowStockThreshold,
		RequireRegion:     s.cfg.RequireRegion,
	}
}

func contains(cats []model.Category, id string) bool {
	for _, c := range cats {
		if c.ID == id {
			return true
		}
	}
	return false
}

type nopAuditor struct{}

func (nopAuditor) Log(context.Context, string, string, string, interface{}) {}

type nopPublisher struct{}

func (nopPublisher) Emit(context.Context, string, string, string) {}
