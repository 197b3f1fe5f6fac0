package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	historyapp "github.com/stockpile/backend/internal/application/history"
	supplyapp "github.com/stockpile/backend/internal/application/supply"
	teamapp "github.com/stockpile/backend/internal/application/team"
	"github.com/stockpile/backend/internal/domain/supply"
	"github.com/stockpile/backend/internal/infrastructure/auth"
	"github.com/stockpile/backend/internal/infrastructure/cache"
	"github.com/stockpile/backend/internal/infrastructure/config"
	"github.com/stockpile/backend/internal/infrastructure/event"
	"github.com/stockpile/backend/internal/infrastructure/logger"
	"github.com/stockpile/backend/internal/infrastructure/persistence"
	"github.com/stockpile/backend/internal/infrastructure/scheduler"
	"github.com/stockpile/backend/internal/infrastructure/telemetry"
	"github.com/stockpile/backend/internal/interfaces/http/handler"
	"github.com/stockpile/backend/internal/interfaces/http/middleware"
	"github.com/stockpile/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Stockpile Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database connection with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	supplyRepo := persistence.NewGormSupplyRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	historyRepo := persistence.NewGormHistoryRepository(db.DB)
	teamRepo := persistence.NewGormTeamRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Supply list cache
	listCache := buildListCache(cfg, log)

	// Domain event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	depletedHandler := supplyapp.NewSupplyDepletedHandler(log)
	eventBus.Subscribe(depletedHandler, depletedHandler.EventTypes()...)

	// Application services
	supplyService := supplyapp.NewService(txScope, supplyRepo, reviewRepo, historyRepo,
		supplyapp.WithListCache(listCache, cfg.Cache.TTL),
		supplyapp.WithEventBus(eventBus),
		supplyapp.WithLogger(log),
	)
	historyService := historyapp.NewService(historyRepo, log)
	teamService := teamapp.NewService(teamRepo, log)

	autoArchiveService := supplyapp.NewAutoArchiveService(txScope, supplyRepo,
		supplyapp.WithAutoArchiveWindow(cfg.AutoArchive.Window),
		supplyapp.WithAutoArchiveCache(listCache),
		supplyapp.WithAutoArchiveEventBus(eventBus),
		supplyapp.WithAutoArchiveLogger(log),
	)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	supplyHandler := handler.NewSupplyHandler(supplyService)
	historyHandler := handler.NewHistoryHandler(historyService)
	teamHandler := handler.NewTeamHandler(teamService)
	adminHandler := handler.NewAdminHandler(autoArchiveService)

	// Gin mode follows the environment
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

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes: JWT guards everything, team routes additionally check
	// membership against the store
	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithTeamMiddleware(middleware.TeamAccess(teamService)),
	)
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))
	r.Register(teamHandler)
	r.Register(adminHandler)
	r.RegisterTeamScoped(supplyHandler)
	r.RegisterTeamScoped(historyHandler)
	r.Setup()

	// Zero stock sweep
	archiveScheduler := scheduler.NewAutoArchiveScheduler(autoArchiveService, log, scheduler.AutoArchiveSchedulerConfig{
		Enabled:       cfg.AutoArchive.Enabled,
		CheckInterval: cfg.AutoArchive.CheckInterval,
		SweepTimeout:  10 * time.Minute,
		RunOnStart:    true,
	})
	if err := archiveScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start auto-archive scheduler", zap.Error(err))
	}

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	if err := archiveScheduler.Stop(ctx); err != nil {
		log.Error("Error stopping auto-archive scheduler", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildListCache creates the supply list cache per configuration: disabled
// means a no-op cache, otherwise Redis with an optional in-memory fallback
func buildListCache(cfg *config.Config, log *zap.Logger) supply.ListCache {
	if !cfg.Cache.Enabled {
		return cache.NewNopSupplyListCache()
	}

	factory := cache.NewSupplyListCacheFactory(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	},
		cache.WithLogger(log),
		cache.WithFactoryCacheConfig(supply.CacheConfig{TTL: cfg.Cache.TTL}),
		cache.WithInMemoryFallback(!cfg.Cache.RedisRequired),
	)

	if cfg.Cache.InMemoryOnly {
		return factory.CreateInMemoryCache()
	}

	listCache, err := factory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create supply list cache", zap.Error(err))
	}
	return listCache
}

// healthHandler reports process and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
