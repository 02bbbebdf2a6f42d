package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/PulsaGit/promo_api/internal/cache"
	"github.com/PulsaGit/promo_api/internal/config"
	"github.com/PulsaGit/promo_api/internal/database"
	"github.com/PulsaGit/promo_api/internal/handler"
	"github.com/PulsaGit/promo_api/internal/middleware"
	"github.com/PulsaGit/promo_api/internal/repository"
	"github.com/PulsaGit/promo_api/internal/service"
	"github.com/PulsaGit/promo_api/internal/sse"
	"github.com/PulsaGit/promo_api/internal/worker"
)

// main is the application entrypoint for the promo pricing API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting promo api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Redis-backed caches
	moduleCache := cache.NewModuleCache(redisClient, cfg.Socx.ModuleCacheTTL)
	tokenBlacklist := cache.NewTokenBlacklist(redisClient)

	// 4. Initialize repositories
	userRepo := repository.NewUserRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	numberRepo := repository.NewPhoneNumberRepository(db)
	offerRepo := repository.NewPromoOfferRepository(db)
	listRepo := repository.NewPhoneListRepository(db)

	// 5. SSE hub for live run progress
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 6. Initialize services
	authSvc := service.NewAuthService(userRepo, tokenBlacklist)
	settingsSvc := service.NewSettingsService(settingRepo, &cfg.Socx)
	syncSvc := service.NewCatalogSyncService(settingsSvc, moduleCache)
	dashboardSvc := service.NewDashboardService(settingsSvc)

	runner := worker.NewBatchRunner(cfg.Batch.Concurrency, cfg.Batch.ChunkDelay)
	runs := worker.NewRunRegistry(cfg.Batch.StaleThreshold)
	checkSvc := service.NewPromoCheckService(projectRepo, numberRepo, offerRepo, listRepo, settingsSvc, runner, runs, notifier)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:      handler.NewHealthHandler(db, redisClient),
		Auth:        handler.NewAuthHandler(authSvc),
		Project:     handler.NewProjectHandler(projectRepo),
		PhoneNumber: handler.NewPhoneNumberHandler(projectRepo, numberRepo, offerRepo, listRepo),
		PromoCheck:  handler.NewPromoCheckHandler(checkSvc),
		CatalogSync: handler.NewCatalogSyncHandler(syncSvc),
		Settings:    handler.NewSettingsHandler(settingsSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		SocxProxy:   handler.NewSocxProxyHandler(settingsSvc),
		SSE:         handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(tokenBlacklist)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Shutdown HTTP server with timeout. Background batch runs are
	// cooperative and will be re-claimed through the staleness window
	// after a restart.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Project     *handler.ProjectHandler
	PhoneNumber *handler.PhoneNumberHandler
	PromoCheck  *handler.PromoCheckHandler
	CatalogSync *handler.CatalogSyncHandler
	Settings    *handler.SettingsHandler
	Dashboard   *handler.DashboardHandler
	SocxProxy   *handler.SocxProxyHandler
	SSE         *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Auth
	router.POST("/v1/auth/login", handlers.Auth.Login)
	router.POST("/v1/auth/register", handlers.Auth.Register)

	// SSE does its own token validation (query param).
	router.GET("/v1/promo-check/events", handlers.SSE.Stream)

	v1 := router.Group("/v1")
	v1.Use(jwtMiddleware.Handle())
	{
		v1.POST("/auth/logout", handlers.Auth.Logout)
		v1.GET("/auth/me", handlers.Auth.Me)

		// Projects
		v1.GET("/projects", handlers.Project.GetProjects)
		v1.POST("/projects", handlers.Project.CreateProject)
		v1.GET("/projects/:id", handlers.Project.GetProject)
		v1.PUT("/projects/:id", handlers.Project.UpdateProject)
		v1.DELETE("/projects/:id", handlers.Project.DeleteProject)

		// Numbers and offers
		v1.GET("/projects/:id/numbers", handlers.PhoneNumber.GetNumbers)
		v1.POST("/projects/:id/numbers", handlers.PhoneNumber.CreateNumber)
		v1.DELETE("/projects/:id/numbers/processed", handlers.PhoneNumber.ClearProcessed)
		v1.GET("/projects/:id/promo-counts", handlers.PhoneNumber.GetPromoCounts)
		v1.PATCH("/numbers/:id", handlers.PhoneNumber.UpdateNumber)
		v1.DELETE("/numbers/:id", handlers.PhoneNumber.DeleteNumber)
		v1.PATCH("/offers/:id/select", handlers.PhoneNumber.SelectOffer)

		// Import lists
		v1.GET("/phone-lists/:provider", handlers.PhoneNumber.GetList)
		v1.POST("/phone-lists/:provider", handlers.PhoneNumber.ImportList)
		v1.DELETE("/phone-lists/:provider", handlers.PhoneNumber.ClearList)
		v1.DELETE("/phone-lists/:provider/:number", handlers.PhoneNumber.RemoveListNumber)

		// Batch promo check
		v1.POST("/promo-check/:provider/check-all", handlers.PromoCheck.CheckAll)
		v1.GET("/promo-check/:provider/progress", handlers.PromoCheck.Progress)
		v1.POST("/promo-check/:provider/stop", handlers.PromoCheck.Stop)
		v1.POST("/promo-check/:provider/check", handlers.PromoCheck.Check)

		// Catalog reconciliation and SOCX passthrough
		v1.POST("/socx/sync-product-prices", handlers.CatalogSync.SyncProductPrices)
		v1.Any("/socx/proxy/*endpoint", handlers.SocxProxy.Proxy)

		// Settings
		v1.GET("/settings", handlers.Settings.GetSettings)
		v1.PUT("/settings", handlers.Settings.SetSetting)
		v1.DELETE("/settings/:key", handlers.Settings.DeleteSetting)
		v1.POST("/settings/socx/verify", handlers.Settings.VerifyToken)

		// Dashboard
		v1.GET("/dashboard/stats", handlers.Dashboard.GetStats)
		v1.GET("/dashboard/transactions", handlers.Dashboard.GetTransactions)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
