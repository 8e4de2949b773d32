package main

import (
	"erp-service/internal/gate"
	"erp-service/internal/handler"
	"erp-service/internal/middleware"
	"erp-service/internal/store"
	"erp-service/pkg/config"
	"erp-service/pkg/database"
	"erp-service/pkg/jwtutil"
	"erp-service/pkg/logger"
	"erp-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("erp-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting ERP service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Wire the request gate over the database-backed store
	gateStore := store.NewGormStore(database.GetDB())
	validator := gate.NewSubscriptionValidator(gateStore, log)
	contextCache := gate.NewContextCache(validator, cfg.Gate.CacheTTL)
	requestGate := gate.NewGate(
		gate.NewTenantResolver(cfg.Gate.TenantHeader),
		contextCache,
		gate.NewPlanLimitEnforcer(gateStore, log),
		gate.NewPermissionResolver(gateStore, log),
	)
	handler.Init(cfg.Gate.TrialPlanName, contextCache)
	log.Info("Request gate initialized", zap.Duration("cache_ttl", cfg.Gate.CacheTTL))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication or tenant context required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.GET("/plans", handler.ListPlans)
	e.POST("/signup", handler.Signup)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)
	auth.POST("/refresh", handler.RefreshToken)
	auth.POST("/select-tenant", handler.SelectTenant)

	// API routes - authentication, then the tenant gate
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.Use(requestGate.Middleware())

	api.GET("/me", handler.Me)

	// Tenant management
	api.GET("/tenant", handler.GetTenant)
	api.PATCH("/tenant", handler.UpdateTenant, gate.RequirePermission(gate.PermManageTenant))

	// Tenant membership - user creation runs through the plan's user quota
	tenantUsers := api.Group("/tenant-users")
	tenantUsers.GET("", handler.ListTenantUsers)
	tenantUsers.POST("", handler.AddTenantUser, gate.RequirePermission(gate.PermManageUsers))
	tenantUsers.DELETE("/:user_id", handler.RemoveTenantUser, gate.RequirePermission(gate.PermManageUsers))

	// Custom roles
	roles := api.Group("/roles", gate.RequirePermission(gate.PermManageRoles))
	roles.GET("", handler.ListRoles)
	roles.POST("", handler.CreateRole)
	roles.PUT("/:id", handler.UpdateRole)
	roles.DELETE("/:id", handler.DeleteRole)

	// Projects - creation runs through the plan's project quota
	projects := api.Group("/projects")
	projects.GET("", handler.ListProjects, gate.RequirePermission(gate.PermViewProjects))
	projects.POST("", handler.CreateProject, gate.RequirePermission(gate.PermManageProjects))
	projects.GET("/:id", handler.GetProject, gate.RequirePermission(gate.PermViewProjects))
	projects.PUT("/:id", handler.UpdateProject, gate.RequirePermission(gate.PermManageProjects))
	projects.DELETE("/:id", handler.DeleteProject, gate.RequirePermission(gate.PermManageProjects))

	// CRM - the whole subtree is feature-gated on the plan's 'crm' module
	customers := api.Group("/crm/customers")
	customers.GET("", handler.ListCustomers, gate.RequirePermission(gate.PermViewCRM))
	customers.POST("", handler.CreateCustomer, gate.RequirePermission(gate.PermManageCRM))
	customers.GET("/:id", handler.GetCustomer, gate.RequirePermission(gate.PermViewCRM))
	customers.PUT("/:id", handler.UpdateCustomer, gate.RequirePermission(gate.PermManageCRM))
	customers.DELETE("/:id", handler.DeleteCustomer, gate.RequirePermission(gate.PermManageCRM))

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
