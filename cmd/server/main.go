package main

import (
	"context"
	"errors"
	"fmt"
	"mcp-directory/internal/cache"
	"mcp-directory/internal/config"
	"mcp-directory/internal/data"
	"mcp-directory/internal/handler"
	"mcp-directory/internal/logger"
	"mcp-directory/internal/middleware"
	"mcp-directory/internal/service"
	"mcp-directory/internal/telemetry"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stdout)

	// --- Pre-flight Checks ---
	if err := cfg.Validate(); err != nil {
		log.Fatal(err, "Invalid store configuration; set MCPDIR_DB_URL and MCPDIR_DB_KEY.")
	}

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Cache Initialization ---
	log.Info("Initializing SQLite cache...")
	responseCache, err := cache.New(cfg.Cache.FilePath)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer responseCache.Close()
	if purged, err := responseCache.Purge(context.Background()); err != nil {
		log.Error(err, "Failed to purge expired cache entries")
	} else if purged > 0 {
		log.Info(fmt.Sprintf("Purged %d expired cache entries.", purged))
	}
	log.Info("Cache initialized.")

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	listingRepository := data.NewListingRepository(db, log)
	analyticsRepository := data.NewAnalyticsRepository(db, log)
	dispatcher := telemetry.NewDispatcher(cfg.Telemetry, listingRepository, analyticsRepository, log)

	directoryService := service.NewDirectoryService(
		listingRepository,
		data.NewCategoryRepository(db),
		data.NewTagRepository(db),
		dispatcher,
	)
	listingHandler := handler.NewListingHandler(directoryService, log)
	seoHandler := handler.NewSeoHandler(directoryService, responseCache, handler.SeoConfig{
		BaseURL:    cfg.Server.BaseURL,
		Locales:    cfg.Sitemap.Locales,
		SitemapTTL: cfg.Cache.SitemapTTL,
	}, log)

	// --- Router Setup ---
	router := handler.NewRouter(listingHandler, seoHandler, handler.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EventLimiter:   middleware.NewRateLimiter(cfg.RateLimit),
		Log:            log,
	})

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	// Requests are done; flush the counters and events they queued.
	if err := dispatcher.Close(ctx); err != nil {
		log.Error(err, "Telemetry queue not fully drained")
	}
	log.Info("Server exiting")
}
