package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "assetverse/api/swagger" // swagger docs
	"assetverse/internal/config"
	"assetverse/internal/database"
	"assetverse/internal/handler"
	"assetverse/internal/logger"
	"assetverse/internal/middleware"
	"assetverse/internal/repository"
	"assetverse/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           AssetVerse API
// @version         1.0
// @description     Corporate asset requests, approvals, assignments and returns.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config depends on cfg, so fall back to a bare production logger
		zap.Must(zap.NewProduction()).Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.IsRelease())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	affiliationRepo := repository.NewAffiliationRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	verifier := service.TrustingPaymentVerifier
	if cfg.IsRelease() {
		verifier = service.UnconfiguredPaymentVerifier
		log.Warn("no payment processor configured, package upgrades will be rejected")
	}

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), cfg.JWTTTL)
	assetService := service.NewAssetService(assetRepo, assignmentRepo, userRepo, auditRepo, txManager, log)
	affiliationService := service.NewAffiliationService(affiliationRepo, userRepo, assignmentRepo, auditRepo, txManager, log)
	requestService := service.NewRequestService(requestRepo, assetRepo, assignmentRepo, userRepo, auditRepo, affiliationService, txManager, log)
	packageService := service.NewPackageService(packageRepo, userRepo, affiliationRepo, auditRepo, txManager, verifier, log)
	auditService := service.NewAuditService(auditRepo)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := packageService.SeedDefaults(seedCtx); err != nil {
		log.Fatal("seed packages", zap.Error(err))
	}
	cancelSeed()

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	assetHandler := handler.NewAssetHandler(assetService, log)
	requestHandler := handler.NewRequestHandler(requestService, log)
	employeeHandler := handler.NewEmployeeHandler(affiliationService, assetService, log)
	packageHandler := handler.NewPackageHandler(packageService, log)
	auditHandler := handler.NewAuditHandler(auditService, log)

	router := gin.New()
	router.Use(middleware.RequestLogger(log), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	requireAuth := middleware.RequireAuth([]byte(cfg.JWTSecret))
	api := router.Group("")
	authHandler.RegisterRoutes(api, requireAuth)
	assetHandler.RegisterRoutes(api, requireAuth)
	requestHandler.RegisterRoutes(api, requireAuth)
	employeeHandler.RegisterRoutes(api, requireAuth)
	packageHandler.RegisterRoutes(api, requireAuth)
	auditHandler.RegisterRoutes(api, requireAuth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
