package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appaddon "github.com/boxibox/backend/internal/application/addon"
	apppricing "github.com/boxibox/backend/internal/application/pricing"
	"github.com/boxibox/backend/internal/domain/addon"
	"github.com/boxibox/backend/internal/domain/pricing"
	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/boxibox/backend/internal/infrastructure/config"
	"github.com/boxibox/backend/internal/infrastructure/event"
	"github.com/boxibox/backend/internal/infrastructure/lock"
	"github.com/boxibox/backend/internal/infrastructure/logger"
	"github.com/boxibox/backend/internal/infrastructure/persistence"
	"github.com/boxibox/backend/internal/infrastructure/scheduler"
	"github.com/boxibox/backend/internal/infrastructure/telemetry"
	"github.com/boxibox/backend/internal/interfaces/http/handler"
	"github.com/boxibox/backend/internal/interfaces/http/middleware"
	"github.com/boxibox/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	var runSweep string
	flag.StringVar(&runSweep, "run-sweep", "", "Run the expiry and billing sweeps once for the given date (YYYY-MM-DD) and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, cfg.App.Name)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Boxibox Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	location, err := cfg.Billing.Location()
	if err != nil {
		log.Fatal("Invalid billing timezone", zap.String("timezone", cfg.Billing.Timezone), zap.Error(err))
	}
	clock := shared.NewSystemClock(location)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.GormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:   "postgresql",
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}

	// Initialize repositories
	unitRepo := persistence.NewGormRentalUnitRepository(db.DB)
	promoRepo := persistence.NewGormPromotionRepository(db.DB)
	settingsRepo := persistence.NewGormBookingSettingsRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	addonRepo := persistence.NewGormRecurringAddonRepository(db.DB)
	billingRepo := persistence.NewGormBillingRecordRepository(db.DB)

	// Event bus with the add-on audit trail
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAddonAuditHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Pricing
	calcOpts := []pricing.CalculatorOption{
		pricing.WithVATRate(decimal.NewFromFloat(cfg.Pricing.VATRate)),
	}
	if !cfg.Pricing.SeasonalPricingEnabled {
		calcOpts = append(calcOpts, pricing.WithoutSeasonalPricing())
	}
	calculator := pricing.NewPriceCalculator(promoRepo, clock, calcOpts...)
	quoteService := apppricing.NewQuoteService(unitRepo, promoRepo, settingsRepo, calculator, clock, log)

	// Add-ons
	addon.DefaultTaxRate = decimal.NewFromFloat(cfg.Pricing.DefaultAddonTaxRate)
	addonService := appaddon.NewAddonService(
		addonRepo, productRepo, contractRepo, billingRepo,
		persistence.NewGormTransactionScope(db.DB), clock, log,
	)
	addonService.SetEventPublisher(eventBus)

	// Tenant sweep leases go through Redis when configured so that several
	// instances share them; otherwise they are held in-process.
	var locker lock.Locker
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancelPing()
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		locker = lock.NewRedisLocker(redisClient, "boxibox:lock:")
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	sweepScheduler := scheduler.NewSweepScheduler(scheduler.SweepSchedulerConfig{
		Enabled:              cfg.Billing.Enabled,
		Schedule:             cfg.Billing.SweepSchedule,
		MaxConcurrentTenants: cfg.Billing.MaxConcurrentTenants,
		LockTTL:              cfg.Billing.SweepLockTTL,
		SweepTimeout:         cfg.Billing.SweepTimeout,
		Location:             location,
	}, addonService, addonRepo, locker, clock, log)

	if runSweep != "" {
		asOf, err := time.Parse(time.DateOnly, runSweep)
		if err != nil {
			log.Fatal("Invalid -run-sweep date", zap.String("value", runSweep), zap.Error(err))
		}
		report, err := sweepScheduler.RunOnce(context.Background(), asOf)
		if err != nil {
			log.Fatal("Sweep failed", zap.Error(err))
		}
		log.Info("Sweep finished",
			zap.Int("tenants", report.Tenants),
			zap.Int("expired", report.Expired),
			zap.Int("emitted", report.Emitted),
			zap.Int("failed", report.Failed),
		)
		return
	}

	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sweep scheduler", zap.Error(err))
	}
	defer func() {
		if err := sweepScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping sweep scheduler", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	pricingHandler := handler.NewPricingHandler(quoteService)
	addonHandler := handler.NewAddonHandler(addonService, clock)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db, sweepScheduler)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()

	// Middleware order: request ID, tracing, recovery, access log, security
	// headers, CORS, body limit, timeout, rate limit
	engine.Use(middleware.RequestID())
	if tracerProvider.IsEnabled() {
		engine.Use(middleware.Tracing(cfg.App.Name)...)
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(serverCtx, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.TenantMiddleware())
	r.Register(router.PricingRoutes(pricingHandler)...)
	r.Register(router.AddonRoutes(addonHandler)...)
	r.Register(router.SystemRoutes(systemHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
