package main

import (
	"medmap-admin/internal/auth"
	"medmap-admin/internal/handler"
	"medmap-admin/internal/middleware"
	"medmap-admin/internal/provision"
	"medmap-admin/internal/tenant"
	"medmap-admin/pkg/config"
	"medmap-admin/pkg/database"
	"medmap-admin/pkg/jwtutil"
	"medmap-admin/pkg/logger"
	"medmap-admin/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting MedMap admin service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	db := database.GetDB()

	// Wire the core services
	resolver := tenant.NewResolver(cfg.Tenant.BaseDomain, cfg.Tenant.ApexLabel)
	tenants := tenant.NewStore(db)
	verifier := auth.NewVerifier(db, tenants)
	sessions := auth.NewSessionManager(tenants)
	provisioner := provision.NewService(db, log)
	h := handler.New(db, verifier, sessions, provisioner, tenants, cfg)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	handler.RegisterRoutes(e, h, resolver)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server",
		zap.String("port", port),
		zap.String("base_domain", cfg.Tenant.BaseDomain))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
