package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	fulfillmentapp "github.com/dshop/backend/internal/application/fulfillment"
	identityapp "github.com/dshop/backend/internal/application/identity"
	ledgerapp "github.com/dshop/backend/internal/application/ledger"
	"github.com/dshop/backend/internal/domain/shop"
	"github.com/dshop/backend/internal/infrastructure/auth"
	"github.com/dshop/backend/internal/infrastructure/config"
	"github.com/dshop/backend/internal/infrastructure/fulfillment"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/infrastructure/persistence"
	"github.com/dshop/backend/internal/infrastructure/queue"
	"github.com/dshop/backend/internal/infrastructure/secrets"
	"github.com/dshop/backend/internal/infrastructure/telemetry"
	"github.com/dshop/backend/internal/interfaces/http/handler"
	"github.com/dshop/backend/internal/interfaces/http/middleware"
	"github.com/dshop/backend/internal/interfaces/http/router"

	_ "github.com/dshop/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			dshop backend API
//	@version		1.0
//	@description	Printful fulfillment proxy, ledger reads and queue dashboard for dshop storefronts

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The OTEL log bridge needs its own bootstrap logger
	bootLog, err := logger.NewForEnvironment(cfg.App.Env)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
	}
	logsCfg := telemetryCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled
	metricsCfg := telemetryCfg
	metricsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, loggerProvider.ZapCore(cfg.Telemetry.ServiceName, zapcore.InfoLevel))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting dshop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:              cfg.Profiling.Enabled,
		ServerAddress:        cfg.Profiling.ServerAddress,
		ApplicationName:      cfg.Profiling.ApplicationName,
		BasicAuthUser:        cfg.Profiling.BasicAuthUser,
		BasicAuthPassword:    cfg.Profiling.BasicAuthPassword,
		ProfileTypes:         cfg.Profiling.ProfileTypes,
		MutexProfileFraction: cfg.Profiling.MutexProfileFraction,
		BlockProfileRate:     cfg.Profiling.BlockProfileRate,
		Tags:                 map[string]string{"env": cfg.App.Env, "version": cfg.App.Version},
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler shutdown failed", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, metricsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel))

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithGormLogger(gormLog),
		persistence.WithTracing(dbTracing),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	// Initialize repositories
	sellerRepo := persistence.NewGormSellerRepository(db.DB)
	shopRepo := persistence.NewGormShopRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)

	cipher, err := secrets.NewCipher(cfg.Secrets.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize config encryption", zap.Error(err))
	}
	secretStore := secrets.NewEncryptedConfigStore(shopRepo, cipher)

	fulfillmentMetrics, err := telemetry.NewFulfillmentMetrics(meterProvider.Meter("dshop/fulfillment"), log)
	if err != nil {
		log.Fatal("Failed to create fulfillment metrics", zap.Error(err))
	}
	printfulClient, err := fulfillment.NewPrintfulClient(&fulfillment.PrintfulConfig{
		APIBaseURL:     cfg.Fulfillment.PrintfulBaseURL,
		TimeoutSeconds: int(cfg.Fulfillment.Timeout / time.Second),
	}, log, fulfillmentMetrics)
	if err != nil {
		log.Fatal("Failed to create Printful client", zap.Error(err))
	}

	// Redis backs both the queue dashboard and token revocation. Without it
	// the dashboard is a stub and revocations live in process memory.
	var (
		redisClient *redis.Client
		inspector   queue.Inspector
		blacklist   auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	)
	if cfg.Redis.Enabled() {
		redisClient, err = queue.NewClient(cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		inspector = queue.NewRedisInspectorWithClient(redisClient, cfg.Queue.Prefix, cfg.Queue.Names)
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		log.Info("Queue dashboard enabled", zap.Strings("queues", cfg.Queue.Names))
	} else {
		log.Info("Redis is not configured, queue dashboard disabled")
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(sellerRepo, jwtService, blacklist, log)
	shopAccess := identityapp.NewShopAccessService(shopRepo, log)
	fulfillmentService := fulfillmentapp.NewService(secretStore, printfulClient, log)
	ledgerService := ledgerapp.NewService(eventRepo, transactionRepo, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	printfulHandler := handler.NewPrintfulHandler(fulfillmentService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	systemHandler := handler.NewSystemHandler(db, cfg.App.Version)
	dashboard := handler.NewDashboard(inspector, cfg.Queue.FailedJobsLimit, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meterProvider))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins...))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", systemHandler.Health)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sellerAndShop := middleware.AuthSellerAndShop(authService, shopAccess)
	withSpanIDs := middleware.TracingAttributeInjector()

	r := router.NewRouter(engine)

	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go loginLimiter.Run(limiterCtx)

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", middleware.RateLimit(loginLimiter), authHandler.Login)
	authRoutes.POST("/logout", middleware.AuthSeller(authService), authHandler.Logout)
	authRoutes.GET("/me", middleware.AuthSeller(authService), authHandler.Me)

	printfulRoutes := router.NewDomainGroup("printful", "/orders/:orderId/printful").
		Use(sellerAndShop, withSpanIDs)
	printfulRoutes.GET("", middleware.FindOrder(orderRepo), printfulHandler.GetOrder)
	printfulRoutes.POST("/create", printfulHandler.CreateOrder)
	printfulRoutes.POST("/confirm", middleware.FindOrder(orderRepo), printfulHandler.ConfirmOrder)

	shippingRoutes := router.NewDomainGroup("shipping", "/shipping").
		Use(middleware.AuthShop(shopAccess), withSpanIDs)
	shippingRoutes.POST("", printfulHandler.Shipping)

	ledgerRoutes := router.NewDomainGroup("ledger", "")
	ledgerRoutes.GET("/events", sellerAndShop, withSpanIDs, middleware.RequireShopRole(shop.RoleAdmin), ledgerHandler.ListEvents)
	ledgerRoutes.GET("/transactions", sellerAndShop, withSpanIDs, ledgerHandler.ListTransactions)
	ledgerRoutes.GET("/events/:txId", ledgerHandler.GetEvent)

	queueRoutes := router.NewDomainGroup("super-admin", "/super-admin/queue").
		Use(middleware.AuthSeller(authService), withSpanIDs, middleware.RequireSuperUser()).
		Mount(dashboard)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.Register(authRoutes).
		Register(printfulRoutes).
		Register(shippingRoutes).
		Register(ledgerRoutes).
		Register(queueRoutes).
		Register(systemRoutes)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logs":   loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
