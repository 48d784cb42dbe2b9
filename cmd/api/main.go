package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/config"
	auditHandler "github.com/epi-platform/admin-api/internal/handler/audit"
	categoryHandler "github.com/epi-platform/admin-api/internal/handler/category"
	"github.com/epi-platform/admin-api/internal/handler/health"
	planHandler "github.com/epi-platform/admin-api/internal/handler/plan"
	productHandler "github.com/epi-platform/admin-api/internal/handler/product"
	promHandler "github.com/epi-platform/admin-api/internal/handler/prometheus"
	regionHandler "github.com/epi-platform/admin-api/internal/handler/region"
	"github.com/epi-platform/admin-api/internal/middleware"
	"github.com/epi-platform/admin-api/internal/repository"
	"github.com/epi-platform/admin-api/internal/repository/postgres"
	"github.com/epi-platform/admin-api/internal/router"
	auditService "github.com/epi-platform/admin-api/internal/service/audit"
	categoryService "github.com/epi-platform/admin-api/internal/service/category"
	eventService "github.com/epi-platform/admin-api/internal/service/event"
	"github.com/epi-platform/admin-api/internal/service/notification"
	productService "github.com/epi-platform/admin-api/internal/service/product"
	regionService "github.com/epi-platform/admin-api/internal/service/region"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/internal/worker"
	"github.com/epi-platform/admin-api/pkg/auth"
	"github.com/epi-platform/admin-api/pkg/circuitbreaker"
	"github.com/epi-platform/admin-api/pkg/inflight"
	"github.com/epi-platform/admin-api/pkg/logger"
	"github.com/epi-platform/admin-api/pkg/messaging"
	"github.com/epi-platform/admin-api/pkg/messaging/redis"
	"github.com/epi-platform/admin-api/pkg/metrics"
	"github.com/epi-platform/admin-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.New(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	log.Logger = lg.ZL

	validator.Register()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("epi_admin", reg)

	regions, err := regionService.FromConfig(cfg.Regions)
	if err != nil {
		lg.Fatal(err, "invalid region registry")
	}

	entities := store.New(cfg.Catalog.StoreTTL, m)
	catalog := backend.NewClient(cfg.Backend, m)

	checks := []health.Check{{
		Name: "catalog_backend",
		Probe: func(context.Context) error {
			if catalog.Breaker().State() == circuitbreaker.StateOpen {
				return circuitbreaker.ErrOpen
			}
			return nil
		},
	}}

	// Redis is optional: without it the save guard is per process and
	// no events leave this instance.
	guard := inflight.NewMemoryGuard()
	broker := messaging.NewNopBroker()
	if cfg.Redis.URL != "" {
		client, err := redis.NewClient(cfg.Redis.ToBrokerConfig())
		if err != nil {
			lg.Fatal(err, "failed to connect to Redis")
		}
		defer client.Close()

		guard = inflight.NewRedisGuard(client, cfg.Redis.GuardTTL)
		broker = redis.NewRedisBroker(client, &lg.ZL)
		checks = append(checks, redisCheck(client))
	}
	defer broker.Close()

	// Audit trail
	var auditRepo repository.AuditRepository = auditService.NewNopRepository()
	if cfg.Database.Enabled() {
		db, err := postgres.NewDB(cfg.DSN())
		if err != nil {
			lg.Fatal(err, "failed to connect to audit database")
		}
		defer db.Close()

		if err := postgres.Migrate(context.Background(), db); err != nil {
			lg.Fatal(err, "failed to migrate audit database")
		}
		auditRepo = postgres.NewAuditRepository(postgres.NewBaseRepository(db))
		checks = append(checks, dbCheck(db))
	}
	auditSvc := auditService.NewService(auditRepo)
	auditLogger := auditService.NewAuditLogger(auditSvc)

	publisher := eventService.NewPublisher(broker, cfg.Redis.Channel, m, lg.ZL)
	listener := eventService.NewListener(broker, publisher, entities, lg.ZL)

	// Services
	categorySvc := categoryService.NewService(categoryService.Deps{
		Backend:   catalog,
		Store:     entities,
		Regions:   regions,
		Guard:     guard,
		Auditor:   auditLogger,
		Publisher: publisher,
		Metrics:   m,
		Logger:    lg.ZL,
	}, categoryService.Config{
		LowStockThreshold: cfg.Catalog.LowStockThreshold,
		RequireRegion:     cfg.Catalog.RequireRegionForRegional,
		MaxDepth:          cfg.Catalog.TreeMaxDepth,
	})

	productSvc := productService.NewService(productService.Deps{
		Backend:    catalog,
		Categories: categorySvc,
		Store:      entities,
		Regions:    regions,
		Guard:      guard,
		Auditor:    auditLogger,
		Publisher:  publisher,
		Notifier:   notification.NewService(cfg.Mail),
		Metrics:    m,
		Logger:     lg.ZL,
	}, productService.Config{
		LowStockThreshold: cfg.Catalog.LowStockThreshold,
		RequireRegion:     cfg.Catalog.RequireRegionForRegional,
	})

	// Router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTAuthenticator(cfg.JWT.Secret, cfg.JWT.Issuer)),
		middleware.NewRegionMiddleware(regions),
		m,
		router.Handlers{
			Health:     health.NewHandler(checks...),
			Metrics:    promHandler.New(reg).Handler(),
			Regions:    regionHandler.NewHandler(regions),
			Categories: categoryHandler.NewHandler(categorySvc),
			Products:   productHandler.NewHandler(productSvc),
			Plans:      planHandler.NewHandler(),
			Audit:      auditHandler.NewHandler(auditSvc),
		},
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			RateLimitOff:   !cfg.RateLimit.Enabled,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			SizeLimit: middleware.SizeLimitConfig{
				MaxBodySize:   1 << 20,
				MaxUploadSize: cfg.Backend.MaxUploadBytes,
			},
		},
	)
	r.Setup()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	refresher := worker.NewStoreRefresher(map[string]worker.Reloader{
		store.KindCategory: worker.ReloadFunc(func(ctx context.Context) error {
			_, err := categorySvc.Reload(ctx)
			return err
		}),
		store.KindProduct: worker.ReloadFunc(func(ctx context.Context) error {
			_, err := productSvc.Reload(ctx)
			return err
		}),
	}, cfg.Catalog.RefreshInterval, lg)
	go refresher.Start(ctx)

	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.Error(err, "event listener stopped")
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		lg.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down server...")

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error(err, "server forced to shutdown")
	}

	// flush pending low-stock mails and audit writes
	productSvc.Wait()
	auditLogger.Wait()

	lg.Info("server exited properly")
}

func redisCheck(client *goredis.Client) health.Check {
	return health.Check{
		Name: "redis",
		Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

func dbCheck(db *sqlx.DB) health.Check {
	return health.Check{
		Name: "audit_database",
		Probe: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	}
}
