package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/api/handlers"
	"github.com/netsentinel/console/backend/internal/api/middleware"
	"github.com/netsentinel/console/backend/internal/classifier"
	"github.com/netsentinel/console/backend/internal/config"
	"github.com/netsentinel/console/backend/internal/geoip"
	"github.com/netsentinel/console/backend/internal/live"
	"github.com/netsentinel/console/backend/internal/logger"
	"github.com/netsentinel/console/backend/internal/metrics"
	"github.com/netsentinel/console/backend/internal/models"
	"github.com/netsentinel/console/backend/internal/policy"
	"github.com/netsentinel/console/backend/internal/services"
)

// Register wires up API routes, performs automatic migrations and starts the
// background schedules (block expiry sweep, optional traffic simulator).
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) error {
	if err := db.AutoMigrate(
		&models.TrafficSample{},
		&models.Alert{},
		&models.BlockedIP{},
		&models.User{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	geo, err := geoip.Open(cfg.GeoIPDatabase)
	if err != nil {
		return fmt.Errorf("open geoip database: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	hub := live.NewHub()
	classifierClient := classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierTimeout)

	auditService := services.NewAuditService(db)
	blockService := services.NewBlockService(db, cfg.BlockDuration, auditService)
	notifier := services.NewAlertNotifier(cfg.NotifyURLs)
	ingestService := services.NewIngestService(db, classifierClient,
		policy.NewIngestPolicy(cfg.IngestPolicy), policy.NewAnalysisPolicy(cfg.AnalysisPolicy),
		blockService, hub, geo, notifier)
	alertService := services.NewAlertService(db, auditService)
	dashboardService := services.NewDashboardService(db)
	authService := services.NewAuthService(db, cfg, auditService)

	router.GET("/api/v1/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(authService)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)

	protected := api.Group("/")
	protected.Use(middleware.AuthRequired(authService))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		// Traffic ingestion and lookup
		trafficHandler := handlers.NewTrafficHandler(db, ingestService)
		read := protected.Group("/", middleware.RequireCapability(middleware.CapRead))
		read.GET("/traffic", trafficHandler.List)
		read.GET("/traffic/:id", trafficHandler.Get)

		ingest := protected.Group("/", middleware.RequireCapability(middleware.CapIngest),
			middleware.RateLimit(cfg.IngestRateLimit, cfg.IngestRateBurst))
		ingest.POST("/traffic", trafficHandler.Ingest)
		ingest.POST("/traffic/analyze", trafficHandler.Analyze)

		// Alerts
		alertHandler := handlers.NewAlertHandler(alertService)
		read.GET("/alerts", alertHandler.List)
		read.GET("/alerts/:id", alertHandler.Get)
		respond := protected.Group("/", middleware.RequireCapability(middleware.CapRespond))
		respond.POST("/alerts/:id/assign", alertHandler.Assign)
		respond.POST("/alerts/:id/resolve", alertHandler.Resolve)

		// Blocked IPs
		blockHandler := handlers.NewBlockHandler(blockService)
		read.GET("/blocks", blockHandler.ListActive)
		manageBlocks := protected.Group("/", middleware.RequireCapability(middleware.CapManageBlocks))
		manageBlocks.POST("/blocks", blockHandler.Create)
		manageBlocks.DELETE("/blocks/:id", blockHandler.Unblock)

		// Dashboard
		dashboardHandler := handlers.NewDashboardHandler(dashboardService)
		read.GET("/dashboard/summary", dashboardHandler.Summary)

		// Classifier status
		read.GET("/classifier/health", handlers.ClassifierHealthHandler(classifierClient))

		// Audit trail and user management
		admin := protected.Group("/", middleware.RequireCapability(middleware.CapManageUsers))
		userHandler := handlers.NewUserHandler(db, authService)
		admin.GET("/users", userHandler.List)
		admin.PUT("/users/:id/role", userHandler.SetRole)
		admin.GET("/audit", func(c *gin.Context) {
			entries, err := auditService.List(200)
			if err != nil {
				c.JSON(500, gin.H{"error": err.Error()})
				return
			}
			c.JSON(200, entries)
		})
	}

	// Live event stream; browsers authenticate the upgrade with the auth cookie.
	wsHandler := handlers.NewWSHandler(hub)
	protected.GET("/ws", wsHandler.Serve)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.BlockSweepSchedule, func() {
		n, err := blockService.ExpireOverdue()
		if err != nil {
			logger.Log().WithError(err).Error("Block expiry sweep failed")
		} else if n > 0 {
			logger.Log().WithField("expired", n).Info("Expired temporary IP blocks")
		}
	}); err != nil {
		return fmt.Errorf("schedule block sweep: %w", err)
	}

	if cfg.SimulatorEnabled {
		simulator := services.NewSimulatorService(ingestService)
		if _, err := scheduler.AddFunc(cfg.SimulatorSchedule, simulator.Run); err != nil {
			return fmt.Errorf("schedule simulator: %w", err)
		}
		logger.Log().WithField("schedule", cfg.SimulatorSchedule).Info("Traffic simulator enabled")
	}
	scheduler.Start()

	return nil
}
