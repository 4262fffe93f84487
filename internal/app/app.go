package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/storefront/server/internal/infra/httpclient"
	"github.com/storefront/server/internal/module/catalog"
	catalogentity "github.com/storefront/server/internal/module/catalog/entity"
	"github.com/storefront/server/internal/module/customer"
	customerentity "github.com/storefront/server/internal/module/customer/entity"
	"github.com/storefront/server/internal/module/order"
	orderentity "github.com/storefront/server/internal/module/order/entity"
	"github.com/storefront/server/internal/module/payment"
	paymententity "github.com/storefront/server/internal/module/payment/entity"
	paymentprovider "github.com/storefront/server/internal/module/payment/provider"
	sharedcache "github.com/storefront/server/internal/shared/cache"
	"github.com/storefront/server/internal/shared/config"
	"github.com/storefront/server/internal/shared/database"
	"github.com/storefront/server/internal/shared/logger"
	sharedmiddleware "github.com/storefront/server/internal/shared/middleware"
	"github.com/storefront/server/internal/utils/metrics"
	"github.com/storefront/server/internal/utils/middleware"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App represents the application.
type App struct {
	config   *config.Config
	db       *gorm.DB
	redis    redis.UniversalClient
	router   *gin.Engine
	logger   *zap.Logger
	metrics  *metrics.Metrics
	registry prometheus.Gatherer

	// Modules
	catalogHandler  *catalog.Handler
	customerHandler *customer.Handler
	orderHandler    *order.Handler
	paymentHandler  *payment.Handler
	webhookRouter   *payment.WebhookRouter

	// Services (for cross-module dependencies)
	catalogService *catalog.Service
	orderRepo      order.Repository
	paymentRepo    payment.Repository
	orderService   *order.Service
	paymentService *payment.Service
	providers      *payment.ProviderRegistry
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	zapLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(&cfg.Database, zapLog)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	// Redis is optional: without it checkout runs without idempotency
	// replay or rate limiting.
	var redisClient redis.UniversalClient
	if cfg.Redis.Address != "" {
		redisClient, err = sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			zapLog.Warn("redis unavailable, idempotency and rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
	}

	app, err := newApp(cfg, zapLog, db, redisClient, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		_ = sharedcache.Close(redisClient)
		_ = database.Close(db)
		return nil, err
	}
	return app, nil
}

// newApp wires the modules on top of already opened infrastructure.
func newApp(
	cfg *config.Config,
	zapLog *zap.Logger,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (*App, error) {
	app := &App{
		config:   cfg,
		db:       db,
		redis:    redisClient,
		logger:   zapLog,
		metrics:  metrics.New(cfg.Metrics.Namespace, reg),
		registry: gatherer,
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, Models()...); err != nil {
			return nil, err
		}
	}

	app.router = app.setupRouter()

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.registerRoutes()

	return app, nil
}

// Models returns the persistence models migrated at startup.
func Models() []any {
	return []any{
		&catalogentity.StoreEntity{},
		&catalogentity.CategoryEntity{},
		&catalogentity.ItemEntity{},
		&customerentity.CustomerEntity{},
		&orderentity.OrderEntity{},
		&orderentity.OrderItemEntity{},
		&paymententity.PaymentEntity{},
	}
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(a.config.Server.AllowedOrigins))
	if a.config.Metrics.Enabled {
		r.Use(sharedmiddleware.Metrics(a.metrics, "/metrics"))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}

	r.GET("/health", a.health)

	return r
}

// health reports whether the database and, when configured, Redis respond.
func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := http.StatusOK

	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if a.redis != nil {
		checks["redis"] = "ok"
		if err := a.redis.Ping(ctx).Err(); err != nil {
			// Redis only backs optional middleware, so it degrades instead of failing.
			checks["redis"] = "unavailable"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// initModules initializes all application modules.
func (a *App) initModules() error {
	a.initCatalogModule()
	a.initCustomerModule()
	a.initOrderModule()
	if err := a.initPaymentModule(); err != nil {
		return fmt.Errorf("init payment module: %w", err)
	}
	return nil
}

// initCatalogModule initializes the catalog module.
func (a *App) initCatalogModule() {
	a.catalogService = catalog.NewService(catalog.NewRepository(a.db), a.logger)
	a.catalogHandler = catalog.NewHandler(a.catalogService)
}

// initCustomerModule initializes the customer module.
func (a *App) initCustomerModule() {
	svc := customer.NewService(customer.NewRepository(a.db), a.logger)
	a.customerHandler = customer.NewHandler(svc)
}

// initOrderModule initializes the order module.
func (a *App) initOrderModule() {
	a.orderRepo = order.NewRepository(a.db)
	a.paymentRepo = payment.NewRepository(a.db)
	a.orderService = order.NewService(
		a.orderRepo,
		newCatalogItemReader(a.catalogService),
		newOrderPaymentReader(a.paymentRepo),
		a.logger,
	)
	a.orderHandler = order.NewHandler(a.orderService)
}

// initPaymentModule initializes the payment module.
func (a *App) initPaymentModule() error {
	providers, err := a.newProviderRegistry()
	if err != nil {
		return err
	}
	a.providers = providers

	reconciler := payment.NewReconciler(
		providers,
		a.paymentRepo,
		a.orderRepo,
		database.NewTransactor(a.db),
		a.logger,
		payment.ReconcilerConfig{
			Attempts: a.config.Payment.ReconcileAttempts,
			Observer: a.metrics,
		},
	)

	a.paymentService = payment.NewService(a.paymentRepo, a.orderRepo, providers, reconciler, a.logger)
	a.paymentHandler = payment.NewHandler(a.paymentService)
	a.webhookRouter = payment.NewWebhookRouter(providers, reconciler, a.metrics, a.logger).
		WithMaxBodyBytes(a.config.Webhook.MaxBodyBytes)

	return nil
}

// newProviderRegistry registers every enabled payment gateway. Each gateway
// gets its own breaker so one failing provider does not trip the other.
func (a *App) newProviderRegistry() (*payment.ProviderRegistry, error) {
	cfg := a.config.Payment
	registry := payment.NewProviderRegistry()

	retry := paymentprovider.RetryPolicy{
		Attempts: cfg.StatusRetryAttempts,
		Backoff:  cfg.StatusRetryBackoff,
	}

	if cfg.PIX.Enabled {
		pix, err := paymentprovider.NewPIXProvider(
			paymentprovider.PIXConfig{
				BaseURL:         cfg.PIX.BaseURL,
				AccessToken:     cfg.PIX.AccessToken,
				WebhookSecret:   cfg.PIX.WebhookSecret,
				NotificationURL: cfg.PIX.NotificationURL,
				PayerEmail:      cfg.PIX.PayerEmail,
			},
			httpclient.New(a.config.HTTPClient),
			a.newGuard("pix"),
			retry,
		)
		if err != nil {
			return nil, fmt.Errorf("create pix provider: %w", err)
		}
		registry.Register(pix)
	}

	if cfg.Wechat.Enabled {
		wechat, err := paymentprovider.NewWechatProvider(
			paymentprovider.WechatConfig{
				AppID:                 cfg.Wechat.AppID,
				MchID:                 cfg.Wechat.MchID,
				APIKeyV3:              cfg.Wechat.APIKeyV3,
				SerialNo:              cfg.Wechat.SerialNo,
				PrivateKey:            cfg.Wechat.PrivateKey,
				WechatPublicKeySerial: cfg.Wechat.WechatPublicKeySerial,
				WechatPublicKey:       cfg.Wechat.WechatPublicKey,
				IsProd:                cfg.Wechat.IsProd,
				NotifyURL:             cfg.Wechat.NotifyURL,
			},
			a.newGuard("wechat"),
			retry,
		)
		if err != nil {
			return nil, fmt.Errorf("create wechat provider: %w", err)
		}
		registry.Register(wechat)
	}

	if len(registry.List()) == 0 {
		a.logger.Warn("no payment provider enabled")
	}

	return registry, nil
}

func (a *App) newGuard(name string) *paymentprovider.Guard {
	guardCfg := paymentprovider.DefaultGuardConfig()
	if a.config.Payment.GatewayTimeout > 0 {
		guardCfg.Timeout = a.config.Payment.GatewayTimeout
	}
	if a.config.Payment.BreakerFailures > 0 {
		guardCfg.FailureThreshold = a.config.Payment.BreakerFailures
	}
	if a.config.Payment.BreakerOpenTimeout > 0 {
		guardCfg.OpenTimeout = a.config.Payment.BreakerOpenTimeout
	}
	guardCfg.Observer = a.metrics
	return paymentprovider.NewGuard(name, guardCfg)
}

// paymentCreateMiddleware guards the payment creation endpoints. Both
// middlewares need Redis and are skipped without it.
func (a *App) paymentCreateMiddleware() []gin.HandlerFunc {
	if a.redis == nil {
		return nil
	}

	var chain []gin.HandlerFunc
	if a.config.RateLimit.Enabled {
		chain = append(chain, middleware.RateLimit(sharedcache.NewRateLimiter(a.redis), middleware.RateLimitConfig{
			Limit:     a.config.RateLimit.Requests,
			Window:    a.config.RateLimit.Window,
			OnLimited: a.metrics.RecordRateLimited,
			Logger:    a.logger,
		}))
	}
	chain = append(chain, middleware.Idempotency(a.redis, middleware.IdempotencyConfig{
		TTL:      a.config.Redis.IdempotencyTTL,
		OnReplay: a.metrics.RecordIdempotentReplay,
		Logger:   a.logger,
	}))
	return chain
}

// registerRoutes registers all module routes.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")

	a.catalogHandler.RegisterRoutes(v1)
	a.customerHandler.RegisterRoutes(v1)
	a.orderHandler.RegisterRoutes(v1)
	a.paymentHandler.RegisterRoutes(v1, a.paymentCreateMiddleware()...)

	// Webhooks are authenticated by provider signatures.
	a.webhookRouter.RegisterRoutes(a.router)
}

// Router returns the Gin router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop releases Redis and the database.
func (a *App) Stop() error {
	var err error
	if a.redis != nil {
		err = multierr.Append(err, sharedcache.Close(a.redis))
	}
	if a.db != nil {
		err = multierr.Append(err, database.Close(a.db))
	}
	if a.logger != nil {
		// Sync fails on non-file sinks such as a terminal.
		_ = a.logger.Sync()
	}
	return err
}
