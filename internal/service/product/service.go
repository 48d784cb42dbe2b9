package product

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/service/override"
	"github.com/epi-platform/admin-api/internal/service/plan"
	"github.com/epi-platform/admin-api/internal/service/region"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
	"github.com/epi-platform/admin-api/pkg/inflight"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

// Backend is the part of the catalog client the product service calls.
type Backend interface {
	AllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, payload model.ProductPayload) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, payload model.ProductPayload) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadProductImages(ctx context.Context, id string, uploads []backend.Upload) (*model.Product, error)
}

// Categories resolves the category a product is filed under.
type Categories interface {
	Get(ctx context.Context, id string) (*model.Category, error)
}

type Auditor interface {
	Log(ctx context.Context, action, entityType, entityID string, changes interface{})
}

type Publisher interface {
	Emit(ctx context.Context, eventType, entity, id string)
}

type Notifier interface {
	LowStock(ctx context.Context, alert model.LowStockAlert) error
}

type Config struct {
	LowStockThreshold int
	RequireRegion     bool
	// MaxImages caps the files accepted by one upload.
	MaxImages int
}

type Deps struct {
	Backend    Backend
	Categories Categories
	Store      *store.Store
	Regions    *region.Service
	Guard      inflight.Guard
	Auditor    Auditor
	Publisher  Publisher
	Notifier   Notifier
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

type Service struct {
	backend    Backend
	categories Categories
	store      *store.Store
	regions    *region.Service
	guard      inflight.Guard
	auditor    Auditor
	events     Publisher
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	cfg        Config
	alerts     sync.WaitGroup
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
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = override.DefaultLowStockThreshold
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 10
	}
	return &Service{
		backend:    deps.Backend,
		categories: deps.Categories,
		store:      deps.Store,
		regions:    deps.Regions,
		guard:      deps.Guard,
		auditor:    deps.Auditor,
		events:     deps.Publisher,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With().Str("component", "product_service").Logger(),
		cfg:        cfg,
	}
}

// Reload replaces the cached products with every page of the backend listing.
func (s *Service) Reload(ctx context.Context) ([]model.Product, error) {
	products, err := s.backend.AllProducts(ctx)
	if err != nil {
		s.metrics.StoreRefreshes.WithLabelValues(store.KindProduct, "error").Inc()
		return nil, err
	}
	s.store.Products.Replace(products)
	s.metrics.StoreRefreshes.WithLabelValues(store.KindProduct, "ok").Inc()
	return products, nil
}

func (s *Service) All(ctx context.Context) ([]model.Product, error) {
	products, fresh := s.store.Products.All()
	if fresh {
		return products, nil
	}

	loaded, err := s.Reload(ctx)
	if err != nil {
		if len(products) > 0 {
			s.logger.Warn().Err(err).Msg("Serving stale products after failed reload")
			return products, nil
		}
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return loaded, nil
}

func (s *Service) List(ctx context.Context, q store.Query) ([]model.Product, httputil.Pagination, error) {
	products, err := s.All(ctx)
	if err != nil {
		return nil, httputil.Pagination{}, err
	}
	items, p := store.QueryProducts(products, q)
	return items, p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	if p, ok := s.store.Products.Get(id); ok {
		return &p, nil
	}
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store.Products.Put(*p)
	return p, nil
}

func (s *Service) Create(ctx context.Context, req model.ProductSaveRequest) (*model.Product, error) {
	payload, err := s.prepare(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, "create:"+strings.ToLower(payload.Name))
	if err != nil {
		return nil, err
	}
	defer release()

	created, err := s.backend.CreateProduct(ctx, payload)
	if err != nil {
		return nil, err
	}

	s.saved(ctx, model.AuditActionCreate, created, payload)
	return created, nil
}

// Update sends the full replacement of the product. Submitted rows are the
// complete regional state and regions left out are dropped. A request without
// a regions list keeps the stored overrides.
func (s *Service) Update(ctx context.Context, id string, req model.ProductSaveRequest) (*model.Product, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := s.prepare(ctx, req, &existing.Regional)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := s.backend.UpdateProduct(ctx, id, payload)
	if err != nil {
		return nil, err
	}

	s.saved(ctx, model.AuditActionUpdate, updated, payload)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.store.Products.Delete(id)
	s.events.Emit(ctx, model.EventProductDeleted, store.KindProduct, id)
	s.auditor.Log(ctx, model.AuditActionDelete, model.AuditEntityProduct, id, nil)
	return nil
}

// UploadImages forwards the files after checking each one is a real image.
func (s *Service) UploadImages(ctx context.Context, id string, uploads []backend.Upload) (*model.Product, error) {
	if len(uploads) == 0 {
		return nil, s.invalid(errors.BadRequest("no images uploaded", nil))
	}
	if len(uploads) > s.cfg.MaxImages {
		return nil, s.invalid(errors.BadRequest(fmt.Sprintf("at most %d images can be uploaded at once", s.cfg.MaxImages), nil))
	}
	for _, u := range uploads {
		if _, err := backend.DetectImageType(u.Data); err != nil {
			return nil, s.invalid(err)
		}
	}

	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := s.backend.UploadProductImages(ctx, id, uploads)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(uploads))
	for _, u := range uploads {
		names = append(names, u.Filename)
	}

	s.store.Products.Put(*updated)
	s.events.Emit(ctx, model.EventProductSaved, store.KindProduct, id)
	s.auditor.Log(ctx, model.AuditActionUpload, model.AuditEntityProduct, id, map[string]interface{}{
		"files": names,
	})
	return updated, nil
}

// Preview collects the regional payload a save would send, without saving.
func (s *Service) Preview(req model.PreviewRequest) (model.Regional, error) {
	editor := override.NewEditor(s.regions.List())
	if err := editor.Apply(req.Regions); err != nil {
		return model.Regional{}, err
	}
	return override.Collect(editor, override.Base{
		RegularPrice: override.Decimal(req.RegularPrice),
		SalePrice:    override.Decimal(req.SalePrice),
		IsGlobal:     req.IsGlobal,
	}, s.options())
}

// Wait blocks until pending low-stock alerts are sent. Called on shutdown.
func (s *Service) Wait() {
	s.alerts.Wait()
}

// prepare runs every check that must pass before the backend is called and
// builds the full replacement payload.
func (s *Service) prepare(ctx context.Context, req model.ProductSaveRequest, existing *model.Regional) (model.ProductPayload, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.ProductPayload{}, s.invalid(errors.BadRequest("product name is required", nil))
	}

	regular := override.Decimal(req.RegularPrice)
	sale := override.Decimal(req.SalePrice)
	if !regular.IsPositive() {
		return model.ProductPayload{}, s.invalid(errors.BadRequest("regular price must be greater than 0", nil))
	}
	if sale.IsPositive() && sale.GreaterThanOrEqual(regular) {
		return model.ProductPayload{}, s.invalid(errors.BadRequest("sale price must be lower than the regular price", nil))
	}

	if strings.TrimSpace(req.CategoryID) == "" {
		return model.ProductPayload{}, s.invalid(errors.BadRequest("category is required", nil))
	}
	if _, err := s.categories.Get(ctx, req.CategoryID); err != nil {
		if errors.IsCode(err, errors.ErrNotFound) {
			return model.ProductPayload{}, s.invalid(errors.BadRequest("category not found", err))
		}
		return model.ProductPayload{}, err
	}

	if err := plan.Validate(req.Plans); err != nil {
		return model.ProductPayload{}, s.invalid(err)
	}

	editor := override.NewEditor(s.regions.List())
	if req.Regions == nil && existing != nil {
		editor.Load(*existing)
	}
	if err := editor.Apply(req.Regions); err != nil {
		return model.ProductPayload{}, s.invalid(err)
	}
	regional, err := override.Collect(editor, override.Base{
		RegularPrice: regular,
		SalePrice:    sale,
		IsGlobal:     req.IsGlobalProduct,
	}, s.options())
	if err != nil {
		return model.ProductPayload{}, s.invalid(err)
	}

	status := req.Status
	if status == "" {
		status = model.ProductStatusActive
	}

	return model.ProductPayload{
		Name:            name,
		Description:     strings.TrimSpace(req.Description),
		CategoryID:      req.CategoryID,
		RegularPrice:    regular,
		SalePrice:       effectiveSale(regular, sale),
		Status:          status,
		IsGlobalProduct: req.IsGlobalProduct,
		StockQuantity:   override.Int(req.StockQuantity),
		Plans:           req.Plans,
		Regional:        regional,
	}, nil
}

func effectiveSale(regular, sale decimal.Decimal) decimal.Decimal {
	if sale.IsPositive() {
		return sale
	}
	return regular
}

func (s *Service) saved(ctx context.Context, action string, p *model.Product, payload model.ProductPayload) {
	s.store.Products.Put(*p)
	s.events.Emit(ctx, model.EventProductSaved, store.KindProduct, p.ID)
	s.auditor.Log(ctx, action, model.AuditEntityProduct, p.ID, payload)

	low := override.LowStock(payload.Regional)
	if len(low) == 0 {
		return
	}

	alert := model.LowStockAlert{
		ProductID:   p.ID,
		ProductName: payload.Name,
		Threshold:   s.cfg.LowStockThreshold,
		Regions:     low,
	}
	ctx = context.WithoutCancel(ctx)

	s.alerts.Add(1)
	go func() {
		defer s.alerts.Done()

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := s.notifier.LowStock(ctx, alert); err != nil {
			s.logger.Error().Err(err).Str("product_id", alert.ProductID).Msg("Failed to send low stock alert")
		}
	}()
}

func (s *Service) acquire(ctx context.Context, id string) (inflight.Release, error) {
	release, err := s.guard.Acquire(ctx, inflight.Key(store.KindProduct, id))
	if errors.Is(err, inflight.ErrInProgress) {
		s.metrics.GuardConflicts.WithLabelValues(store.KindProduct).Inc()
		return nil, errors.Conflict("this product is already being saved", err)
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return release, nil
}

func (s *Service) invalid(err error) error {
	s.metrics.ValidationFailures.WithLabelValues(store.KindProduct).Inc()
	return err
}

func (s *Service) options() override.Options {
	return override.Options{
		LowStockThreshold: s.cfg.LowStockThreshold,
		RequireRegion:     s.cfg.RequireRegion,
	}
}

type nopAuditor struct{}

func (nopAuditor) Log(context.Context, string, string, string, interface{}) {}

type nopPublisher struct{}

func (nopPublisher) Emit(context.Context, string, string, string) {}

type nopNotifier struct{}

func (nopNotifier) LowStock(context.Context, model.LowStockAlert) error { return nil }
