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

	approvalapp "github.com/poa/backend/internal/application/approval"
	planningapp "github.com/poa/backend/internal/application/planning"
	procurementapp "github.com/poa/backend/internal/application/procurement"
	"github.com/poa/backend/internal/infrastructure/auth"
	"github.com/poa/backend/internal/infrastructure/config"
	"github.com/poa/backend/internal/infrastructure/logger"
	"github.com/poa/backend/internal/infrastructure/persistence"
	"github.com/poa/backend/internal/interfaces/http/handler"
	"github.com/poa/backend/internal/interfaces/http/middleware"
	"github.com/poa/backend/internal/interfaces/http/router"
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
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting POA Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	reportRepo := persistence.NewGormProgressReportRepository(db.DB)
	historyRepo := persistence.NewGormApprovalHistoryRepository(db.DB)
	indicatorRepo := persistence.NewGormIndicatorRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	budgetReader := persistence.NewGormBudgetExecutionReader(db.DB)
	linkRepo := persistence.NewGormLinkRepository(db.DB)
	processRepo := persistence.NewGormProcessRepository(db.DB)

	// Authentication and authorization
	jwtService := auth.NewJWTService(cfg.JWT)
	capabilityChecker := auth.NewCapabilityChecker()

	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
		log.Info("Redis token blacklist connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Initialize application services
	approvalService := approvalapp.NewService(reportRepo, historyRepo, activityRepo, indicatorRepo, capabilityChecker)
	progressService := planningapp.NewProgressService(indicatorRepo, reportRepo)
	linkService := procurementapp.NewLinkService(linkRepo, processRepo, activityRepo, budgetReader)

	// Initialize HTTP handlers
	reportHandler := handler.NewProgressReportHandler(approvalService)
	indicatorHandler := handler.NewIndicatorHandler(progressService)
	linkHandler := handler.NewProcurementLinkHandler(linkService)
	systemHandler := handler.NewSystemHandler(cfg)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging,
	// security headers, CORS
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

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	registerRoutes(r, reportHandler, indicatorHandler, linkHandler, systemHandler)

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

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// registerRoutes wires the consumed REST surface onto the versioned router
func registerRoutes(
	r *router.Router,
	reportHandler *handler.ProgressReportHandler,
	indicatorHandler *handler.IndicatorHandler,
	linkHandler *handler.ProcurementLinkHandler,
	systemHandler *handler.SystemHandler,
) {
	// Progress reports: drafting and reporter-side lifecycle transitions
	reportRoutes := router.NewDomainGroup("progress-reports", "/progress-reports")
	reportRoutes.POST("", reportHandler.Create)
	reportRoutes.GET("", reportHandler.List)
	reportRoutes.GET("/:id", reportHandler.Get)
	reportRoutes.PUT("/:id", reportHandler.Update)
	reportRoutes.POST("/:id/submit", reportHandler.Submit)
	reportRoutes.POST("/:id/withdraw", reportHandler.Withdraw)
	reportRoutes.POST("/:id/resubmit", reportHandler.Resubmit)

	// Approvals: decisions and reviewer-facing queries
	approvalRoutes := router.NewDomainGroup("approvals", "/approvals")
	approvalRoutes.GET("/pending", reportHandler.Pending)
	approvalRoutes.GET("/my-reports", reportHandler.Mine)
	approvalRoutes.GET("/stats", reportHandler.Stats)
	approvalRoutes.POST("/:id/approve", reportHandler.Approve)
	approvalRoutes.POST("/:id/reject", reportHandler.Reject)
	approvalRoutes.GET("/:id/history", reportHandler.History)

	// Indicator progress aggregation
	indicatorRoutes := router.NewDomainGroup("indicators", "/indicators")
	indicatorRoutes.GET("/:id/progress", indicatorHandler.Progress)

	// Activity-procurement links and consistency alerts
	linkRoutes := router.NewDomainGroup("activity-procurement-links", "/activity-procurement-links")
	linkRoutes.POST("", linkHandler.Create)
	linkRoutes.PUT("/:id", linkHandler.Update)
	linkRoutes.DELETE("/:id", linkHandler.Delete)
	linkRoutes.GET("/activity/:id", linkHandler.ListByActivity)
	linkRoutes.GET("/activity/:id/alerts", linkHandler.Alerts)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.Info)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(reportRoutes).
		Register(approvalRoutes).
		Register(indicatorRoutes).
		Register(linkRoutes).
		Register(systemRoutes)
}

// healthHandler returns a handler for health check endpoints
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
