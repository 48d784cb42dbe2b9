package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/epi-platform/admin-api/internal/middleware"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups the route owners mounted by the router. Health and Metrics
// are served without authentication.
type Handlers struct {
	Health     Handler
	Metrics    gin.HandlerFunc
	Regions    Handler
	Categories Handler
	Products   Handler
	Plans      Handler
	Audit      Handler
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RateLimitOff   bool
	AllowedOrigins []string
	RequestTimeout time.Duration
	SizeLimit      middleware.SizeLimitConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	region   *middleware.RegionMiddleware
	limiter  *middleware.RateLimiter
	handlers Handlers
	config   RouterConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	region *middleware.RegionMiddleware,
	m *metrics.Metrics,
	handlers Handlers,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		region:   region,
		handlers: handlers,
		config:   config,
	}
	if !config.RateLimitOff {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}

	// RequestID first so every later log line carries it
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.AllowedOrigins),
		middleware.SizeLimit(config.SizeLimit),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
	)

	return r
}

func (r *Router) Setup() {
	if r.handlers.Metrics != nil {
		r.engine.GET("/metrics", r.handlers.Metrics)
	}
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(&r.engine.RouterGroup)
	}

	api := r.engine.Group("/api/v1")
	api.Use(r.auth.Authenticate())
	if r.limiter != nil {
		api.Use(r.limiter.RateLimit())
	}
	api.Use(r.region.DetectRegion())

	r.setupProtectedRoutes(api)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	if r.handlers.Regions != nil {
		r.handlers.Regions.RegisterRoutes(rg)
	}

	if r.handlers.Categories != nil {
		categories := rg.Group("")
		categories.Use(r.auth.RequireModule(model.ModuleCategories))
		r.handlers.Categories.RegisterRoutes(categories)
	}

	if r.handlers.Products != nil || r.handlers.Plans != nil {
		products := rg.Group("")
		products.Use(r.auth.RequireModule(model.ModuleProducts))
		if r.handlers.Products != nil {
			r.handlers.Products.RegisterRoutes(products)
		}
		if r.handlers.Plans != nil {
			r.handlers.Plans.RegisterRoutes(products)
		}
	}

	if r.handlers.Audit != nil {
		audit := rg.Group("")
		audit.Use(r.auth.RequireSuperAdmin())
		r.handlers.Audit.RegisterRoutes(audit)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
