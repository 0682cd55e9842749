package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pharmacy-service/internal/handler"
	mid "pharmacy-service/internal/middleware"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/stock"
	"pharmacy-service/internal/store/gormstore"
	"pharmacy-service/pkg/config"
	"pharmacy-service/pkg/database"
	"pharmacy-service/pkg/jwtutil"
	"pharmacy-service/pkg/logger"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting pharmacy-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the store and the stock mutation service
	st := gormstore.New(database.GetDB())
	stockService := stock.New(st, log)

	medicines := handler.NewMedicineHandler(st, stockService)
	transactions := handler.NewTransactionHandler(st, stockService)
	reports := handler.NewReportHandler(st)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware(log))

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.Health)

	// Auth routes
	authAPI := e.Group("/api/auth")
	authAPI.POST("/register", handler.Register)
	authAPI.POST("/login", handler.Login)
	authAPI.GET("/me", handler.Me, mid.AuthMiddleware)

	// Medicine and ledger routes - all behind the access control gate
	medicineAPI := e.Group("/api/medicines", mid.AuthMiddleware)
	medicineAPI.GET("", medicines.List)
	medicineAPI.POST("", medicines.Create, mid.RequireRoles(model.RoleAdmin, model.RolePharmacist))
	medicineAPI.GET("/barcode/:barcode", medicines.GetByBarcode)
	medicineAPI.POST("/transaction", transactions.Create)
	medicineAPI.GET("/transactions/all", transactions.List)
	medicineAPI.GET("/transactions/:id", transactions.Get)
	medicineAPI.GET("/:id", medicines.Get)
	medicineAPI.PUT("/:id", medicines.Update, mid.RequireRoles(model.RoleAdmin, model.RolePharmacist))
	medicineAPI.DELETE("/:id", medicines.Delete, mid.RequireRoles(model.RoleAdmin))

	// User management - admin only
	userAPI := e.Group("/api/users", mid.AuthMiddleware, mid.RequireRoles(model.RoleAdmin))
	userAPI.GET("", handler.ListUsers)
	userAPI.PUT("/:id/role", handler.UpdateUserRole)

	// Reports - read-only
	reportAPI := e.Group("/api/reports", mid.AuthMiddleware)
	reportAPI.GET("/inventory", reports.Inventory)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
